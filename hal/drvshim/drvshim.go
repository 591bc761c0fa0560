// Package drvshim adapts an initialised HAL master handle to the TinyGo
// drivers.I2C shape so chip drivers from tinygo.org/x/drivers run on top of
// the HAL.
package drvshim

import (
	"tinygo.org/x/drivers"

	"lpc845-go/errcode"
	"lpc845-go/hal/i2c"
)

// maxSubaddress is the longest write prefix sent as a transfer subaddress.
const maxSubaddress = 4

// I2C adapts a master handle to drivers.I2C.
type I2C struct {
	h *i2c.MasterHandle
}

var _ drivers.I2C = I2C{}

// New binds the shim to h. h must already be initialised.
func New(h *i2c.MasterHandle) I2C {
	return I2C{h: h}
}

// Tx writes w then reads into r in one bus transaction. Short writes before
// a read travel as the subaddress; longer ones are sent without a stop and
// followed by a repeated-start read.
func (s I2C) Tx(addr uint16, w, r []byte) error {
	switch {
	case len(r) == 0:
		return s.do(&i2c.Transfer{SlaveAddress: addr, Direction: i2c.Write, Data: w, DataSize: len(w)})
	case len(w) == 0:
		return s.do(&i2c.Transfer{SlaveAddress: addr, Direction: i2c.Read, Data: r, DataSize: len(r)})
	case len(w) <= maxSubaddress:
		var sub uint32
		for _, b := range w {
			sub = sub<<8 | uint32(b)
		}
		return s.do(&i2c.Transfer{
			SlaveAddress:   addr,
			Direction:      i2c.Read,
			Subaddress:     sub,
			SubaddressSize: uint8(len(w)),
			Data:           r,
			DataSize:       len(r),
		})
	default:
		if err := s.do(&i2c.Transfer{
			Flags:        i2c.TransferNoStopFlag,
			SlaveAddress: addr,
			Direction:    i2c.Write,
			Data:         w,
			DataSize:     len(w),
		}); err != nil {
			return err
		}
		return s.do(&i2c.Transfer{
			Flags:        i2c.TransferRepeatedStartFlag,
			SlaveAddress: addr,
			Direction:    i2c.Read,
			Data:         r,
			DataSize:     len(r),
		})
	}
}

func (s I2C) do(x *i2c.Transfer) error {
	return errcode.Wrap("i2c tx", errcode.Of(s.h.TransferBlocking(x).Err()))
}
