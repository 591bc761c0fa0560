package lpci2c

import "strconv"

// Status is the vendor SDK status word. Values are grouped as group*100+code.
type Status int32

const statusGroupI2C = 13

func makeStatus(group, code int32) Status { return Status(group*100 + code) }

// Generic status codes.
const (
	StatusSuccess         Status = 0
	StatusFail            Status = 1
	StatusReadOnly        Status = 2
	StatusOutOfRange      Status = 3
	StatusInvalidArgument Status = 4
)

// I2C group status codes.
var (
	StatusBusy                 = makeStatus(statusGroupI2C, 0)
	StatusIdle                 = makeStatus(statusGroupI2C, 1)
	StatusNak                  = makeStatus(statusGroupI2C, 2)
	StatusInvalidParameter     = makeStatus(statusGroupI2C, 3)
	StatusBitError             = makeStatus(statusGroupI2C, 4)
	StatusArbitrationLost      = makeStatus(statusGroupI2C, 5)
	StatusNoTransferInProgress = makeStatus(statusGroupI2C, 6)
	StatusDmaRequestFail       = makeStatus(statusGroupI2C, 7)
	StatusStartStopError       = makeStatus(statusGroupI2C, 8)
	StatusUnexpectedState      = makeStatus(statusGroupI2C, 9)
	StatusTimeout              = makeStatus(statusGroupI2C, 10)
	StatusAddrNak              = makeStatus(statusGroupI2C, 11)
)

var statusNames = map[Status]string{
	StatusSuccess:              "success",
	StatusFail:                 "fail",
	StatusReadOnly:             "read_only",
	StatusOutOfRange:           "out_of_range",
	StatusInvalidArgument:      "invalid_argument",
	StatusBusy:                 "i2c_busy",
	StatusIdle:                 "i2c_idle",
	StatusNak:                  "i2c_nak",
	StatusInvalidParameter:     "i2c_invalid_parameter",
	StatusBitError:             "i2c_bit_error",
	StatusArbitrationLost:      "i2c_arbitration_lost",
	StatusNoTransferInProgress: "i2c_no_transfer_in_progress",
	StatusDmaRequestFail:       "i2c_dma_request_fail",
	StatusStartStopError:       "i2c_start_stop_error",
	StatusUnexpectedState:      "i2c_unexpected_state",
	StatusTimeout:              "i2c_timeout",
	StatusAddrNak:              "i2c_addr_nak",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}
