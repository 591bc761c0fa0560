package i2c

import (
	"lpc845-go/drivers/lpci2c"
	"lpc845-go/errcode"
)

// Status is the HAL-level I2C status.
type Status uint8

const (
	StatusSuccess Status = iota
	StatusError
	StatusBusy
	StatusIdle
	StatusNak
	StatusArbitrationLost
	StatusTimeout
)

func (s Status) String() string {
	return string(s.code())
}

func (s Status) code() errcode.Code {
	switch s {
	case StatusSuccess:
		return errcode.OK
	case StatusBusy:
		return errcode.Busy
	case StatusIdle:
		return errcode.Idle
	case StatusNak:
		return errcode.Nak
	case StatusArbitrationLost:
		return errcode.ArbitrationLost
	case StatusTimeout:
		return errcode.Timeout
	default:
		return errcode.Error
	}
}

// Err returns nil for StatusSuccess and the matching errcode.Code otherwise.
func (s Status) Err() error {
	if s == StatusSuccess {
		return nil
	}
	return s.code()
}

// GetStatus maps a driver status to the HAL status. Codes without a HAL
// counterpart collapse to StatusError.
func GetStatus(s lpci2c.Status) Status {
	switch s {
	case lpci2c.StatusSuccess:
		return StatusSuccess
	case lpci2c.StatusBusy:
		return StatusBusy
	case lpci2c.StatusIdle:
		return StatusIdle
	case lpci2c.StatusNak:
		return StatusNak
	case lpci2c.StatusArbitrationLost:
		return StatusArbitrationLost
	case lpci2c.StatusTimeout:
		return StatusTimeout
	default:
		return StatusError
	}
}
