// Package lpci2c describes the LPC8xx I2C peripheral driver contract: base
// addresses, configuration and transfer descriptors, status codes, and the
// Driver interface that concrete backends implement.
//
// The HAL adapter in hal/i2c depends on the exact values and shapes declared
// here; backends live in sub-packages (sim for host builds, busdrv for any
// TinyGo board exposing a tinygo.org/x/drivers.I2C bus).
package lpci2c

// Base is a peripheral base address.
type Base uint32

// Peripheral base addresses (LPC845).
const (
	I2C0Base Base = 0x40050000
	I2C1Base Base = 0x40054000
	I2C2Base Base = 0x40030000
	I2C3Base Base = 0x40034000
)

// BasePtrs lists the I2C bases in instance order. Index with a validated instance.
var BasePtrs = [...]Base{I2C0Base, I2C1Base, I2C2Base, I2C3Base}

// Direction of a master transfer.
type Direction uint8

const (
	Write Direction = 0
	Read  Direction = 1
)

func (d Direction) String() string {
	if d == Read {
		return "read"
	}
	return "write"
}

// Master transfer flags.
const (
	FlagDefault       uint32 = 0x0
	FlagNoStart       uint32 = 0x1
	FlagRepeatedStart uint32 = 0x2
	FlagNoStop        uint32 = 0x4
)

// MasterConfig configures a peripheral in master mode.
type MasterConfig struct {
	EnableMaster   bool
	BaudRateBps    uint32
	EnableTimeout  bool
	TimeoutValueMs uint8
}

// DefaultMasterConfig returns the SDK defaults: enabled, 100 kHz, no timeout.
func DefaultMasterConfig() MasterConfig {
	return MasterConfig{
		EnableMaster:   true,
		BaudRateBps:    100000,
		TimeoutValueMs: 35,
	}
}

// SlaveAddress is one of the four slave address matchers.
type SlaveAddress struct {
	Address        uint8
	AddressDisable bool
}

// SlaveAddressQualMode selects how QualAddress extends Address0.
type SlaveAddressQualMode uint8

const (
	QualMask  SlaveAddressQualMode = 0
	QualRange SlaveAddressQualMode = 1
)

// SlaveBusSpeed hints the expected bus speed for clock stretching setup.
type SlaveBusSpeed uint8

const (
	StandardOrFastMode SlaveBusSpeed = iota
	FastPlusMode
	HsMode
)

// SlaveConfig configures a peripheral in slave mode.
type SlaveConfig struct {
	Address0      SlaveAddress
	Address1      SlaveAddress
	Address2      SlaveAddress
	Address3      SlaveAddress
	QualMode      SlaveAddressQualMode
	QualAddress   uint8
	BusSpeed      SlaveBusSpeed
	EnableSlave   bool
	EnableTimeout bool
}

// DefaultSlaveConfig returns the SDK defaults: enabled, address 0x00, the
// secondary matchers disabled.
func DefaultSlaveConfig() SlaveConfig {
	return SlaveConfig{
		Address1:    SlaveAddress{AddressDisable: true},
		Address2:    SlaveAddress{AddressDisable: true},
		Address3:    SlaveAddress{AddressDisable: true},
		QualMode:    QualMask,
		QualAddress: 0,
		BusSpeed:    StandardOrFastMode,
		EnableSlave: true,
	}
}

// MasterTransfer describes one master operation.
type MasterTransfer struct {
	Flags          uint32
	SlaveAddress   uint16
	Direction      Direction
	Subaddress     uint32
	SubaddressSize uint8
	Data           []byte
	DataSize       int
}

// SlaveEvent is a bitmask of slave transfer events.
type SlaveEvent uint32

const (
	SlaveAddressMatchEvent SlaveEvent = 0x01
	SlaveTransmitEvent     SlaveEvent = 0x02
	SlaveReceiveEvent      SlaveEvent = 0x04
	SlaveCompletionEvent   SlaveEvent = 0x20
	SlaveDeselectEvent     SlaveEvent = 0x40

	SlaveAllEvents = SlaveAddressMatchEvent | SlaveTransmitEvent | SlaveReceiveEvent |
		SlaveCompletionEvent | SlaveDeselectEvent
)

// SlaveTransfer is the live slave transfer shared with the slave callback.
// The callback may replace TxData/TxSize or RxData/RxSize to supply the next chunk.
type SlaveTransfer struct {
	Event            SlaveEvent
	TxData           []byte
	TxSize           int
	RxData           []byte
	RxSize           int
	CompletionStatus Status
	TransferredCount int
}

// MasterCallback is invoked from interrupt context when a non-blocking master
// transfer completes.
type MasterCallback func(base Base, h *MasterHandle, status Status)

// SlaveCallback is invoked from interrupt context for each enabled slave event.
type SlaveCallback func(base Base, xfer *SlaveTransfer)

// MasterHandle is the driver's transfer state for non-blocking master transfers.
// Callers own the storage; backends own the fields.
type MasterHandle struct {
	Callback    MasterCallback
	Transfer    MasterTransfer
	Transferred int
	Busy        bool
}

// SlaveHandle is the driver's transfer state for non-blocking slave transfers.
type SlaveHandle struct {
	Callback  SlaveCallback
	Transfer  SlaveTransfer
	EventMask SlaveEvent
	Busy      bool
}

// Driver is the peripheral driver surface, one call per SDK primitive.
type Driver interface {
	MasterInit(base Base, cfg *MasterConfig, srcClockHz uint32)
	MasterDeinit(base Base)
	MasterWriteBlocking(base Base, tx []byte, flags uint32) Status
	MasterReadBlocking(base Base, rx []byte, flags uint32) Status
	MasterTransferBlocking(base Base, xfer *MasterTransfer) Status
	MasterTransferCreateHandle(base Base, h *MasterHandle, cb MasterCallback)
	MasterTransferNonBlocking(base Base, h *MasterHandle, xfer *MasterTransfer) Status
	MasterTransferGetCount(base Base, h *MasterHandle, count *int) Status
	MasterTransferAbort(base Base, h *MasterHandle) Status

	SlaveInit(base Base, cfg *SlaveConfig, srcClockHz uint32) Status
	SlaveDeinit(base Base)
	SlaveWriteBlocking(base Base, tx []byte) Status
	SlaveReadBlocking(base Base, rx []byte) Status
	SlaveTransferCreateHandle(base Base, h *SlaveHandle, cb SlaveCallback)
	SlaveTransferNonBlocking(base Base, h *SlaveHandle, eventMask SlaveEvent) Status
	SlaveTransferGetCount(base Base, h *SlaveHandle, count *int) Status
	SlaveTransferAbort(base Base, h *SlaveHandle) Status
}
