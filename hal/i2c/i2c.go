// Package i2c is the vendor-neutral I2C HAL for LPC8xx parts. It translates
// HAL calls (master/slave init, blocking read/write, non-blocking transfers
// with completion callbacks, abort and count queries) into calls on an
// lpci2c.Driver, remapping status codes and transfer descriptors both ways.
//
// Handles are caller-allocated. Blocking calls run to completion on the caller.
// Non-blocking transfers complete from the driver's interrupt context through
// an adapter-owned trampoline, which forwards to the callback installed on the
// handle. Nothing here locks: a handle must not be used concurrently with its
// own in-flight transfer other than through the callback.
package i2c

import (
	"lpc845-go/drivers/lpci2c"
)

// Instance selects one of the identical I2C peripherals.
type Instance uint8

// NumInstances is the number of I2C peripherals on the part.
const NumInstances = len(lpci2c.BasePtrs)

// base resolves an instance to its peripheral base address.
func (i Instance) base() (lpci2c.Base, bool) {
	if int(i) >= NumInstances {
		return 0, false
	}
	return lpci2c.BasePtrs[i], true
}

// Direction of a master transfer.
type Direction uint8

const (
	Write Direction = 0
	Read  Direction = 1
)

// Transfer flags, bit-compatible with the driver.
const (
	TransferDefaultFlag       = lpci2c.FlagDefault
	TransferNoStartFlag       = lpci2c.FlagNoStart
	TransferRepeatedStartFlag = lpci2c.FlagRepeatedStart
	TransferNoStopFlag        = lpci2c.FlagNoStop
)

// Transfer describes one master operation. It is owned by the caller and
// translated per call.
type Transfer struct {
	Flags          uint32
	SlaveAddress   uint16
	Direction      Direction
	Subaddress     uint32
	SubaddressSize uint8
	Data           []byte
	DataSize       int
}

func (x *Transfer) toDriver() lpci2c.MasterTransfer {
	dir := lpci2c.Write
	if x.Direction == Read {
		dir = lpci2c.Read
	}
	return lpci2c.MasterTransfer{
		Flags:          x.Flags,
		SlaveAddress:   x.SlaveAddress,
		Direction:      dir,
		Subaddress:     x.Subaddress,
		SubaddressSize: x.SubaddressSize,
		Data:           x.Data,
		DataSize:       x.DataSize,
	}
}

// Adapter binds the HAL to a concrete peripheral driver.
type Adapter struct {
	drv lpci2c.Driver
}

// New returns an adapter forwarding to drv.
func New(drv lpci2c.Driver) *Adapter {
	return &Adapter{drv: drv}
}
