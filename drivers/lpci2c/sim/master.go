package sim

import (
	"go.uber.org/zap"

	"lpc845-go/drivers/lpci2c"
)

func (d *Driver) MasterInit(base lpci2c.Base, cfg *lpci2c.MasterConfig, srcClockHz uint32) {
	pp := d.at(base)
	pp.MasterOn = cfg.EnableMaster
	pp.Master = *cfg
	pp.SrcClockHz = srcClockHz
	pp.Inits++
	d.log.Debug("master init",
		zap.Uint32("base", uint32(base)),
		zap.Bool("enable", cfg.EnableMaster),
		zap.Uint32("baud", cfg.BaudRateBps),
		zap.Uint32("src_clock_hz", srcClockHz))
}

func (d *Driver) MasterDeinit(base lpci2c.Base) {
	pp := d.at(base)
	pp.MasterOn = false
	pp.started = false
	pp.pending = nil
	d.log.Debug("master deinit", zap.Uint32("base", uint32(base)))
}

// MasterStart issues a start condition addressing addr, for use with the raw
// blocking write/read primitives.
func (d *Driver) MasterStart(base lpci2c.Base, addr uint16, dir lpci2c.Direction) lpci2c.Status {
	pp := d.at(base)
	if !pp.MasterOn {
		return lpci2c.StatusUnexpectedState
	}
	if _, ok := d.lookup(base, addr); !ok {
		return lpci2c.StatusNak
	}
	pp.addr, pp.dir, pp.started = addr, dir, true
	return lpci2c.StatusSuccess
}

// MasterStop releases the bus.
func (d *Driver) MasterStop(base lpci2c.Base) lpci2c.Status {
	d.at(base).started = false
	return lpci2c.StatusSuccess
}

func (d *Driver) MasterWriteBlocking(base lpci2c.Base, tx []byte, flags uint32) lpci2c.Status {
	pp := d.at(base)
	if !pp.MasterOn || !pp.started || pp.dir != lpci2c.Write {
		return lpci2c.StatusUnexpectedState
	}
	if st := d.takeFault(pp); st != lpci2c.StatusSuccess {
		pp.started = false
		return st
	}
	t, _ := d.lookup(base, pp.addr)
	st := phase(t.Write(tx))
	if flags&lpci2c.FlagNoStop == 0 {
		pp.started = false
	}
	d.trace("write", base, pp.addr, len(tx), st)
	return st
}

func (d *Driver) MasterReadBlocking(base lpci2c.Base, rx []byte, flags uint32) lpci2c.Status {
	pp := d.at(base)
	if !pp.MasterOn || !pp.started || pp.dir != lpci2c.Read {
		return lpci2c.StatusUnexpectedState
	}
	if st := d.takeFault(pp); st != lpci2c.StatusSuccess {
		pp.started = false
		return st
	}
	t, _ := d.lookup(base, pp.addr)
	st := phase(t.Read(rx))
	if flags&lpci2c.FlagNoStop == 0 {
		pp.started = false
	}
	d.trace("read", base, pp.addr, len(rx), st)
	return st
}

func (d *Driver) MasterTransferBlocking(base lpci2c.Base, xfer *lpci2c.MasterTransfer) lpci2c.Status {
	st, _ := d.run(base, xfer)
	return st
}

func (d *Driver) MasterTransferCreateHandle(base lpci2c.Base, h *lpci2c.MasterHandle, cb lpci2c.MasterCallback) {
	*h = lpci2c.MasterHandle{Callback: cb}
}

func (d *Driver) MasterTransferNonBlocking(base lpci2c.Base, h *lpci2c.MasterHandle, xfer *lpci2c.MasterTransfer) lpci2c.Status {
	pp := d.at(base)
	if h.Busy {
		return lpci2c.StatusBusy
	}
	if !pp.MasterOn {
		return lpci2c.StatusUnexpectedState
	}
	h.Transfer = *xfer
	h.Transferred = 0
	h.Busy = true
	pp.pending = h
	return lpci2c.StatusSuccess
}

func (d *Driver) MasterTransferGetCount(base lpci2c.Base, h *lpci2c.MasterHandle, count *int) lpci2c.Status {
	if !h.Busy {
		*count = 0
		return lpci2c.StatusNoTransferInProgress
	}
	*count = h.Transferred
	return lpci2c.StatusSuccess
}

func (d *Driver) MasterTransferAbort(base lpci2c.Base, h *lpci2c.MasterHandle) lpci2c.Status {
	pp := d.at(base)
	if pp.pending == h {
		pp.pending = nil
	}
	h.Busy = false
	return lpci2c.StatusSuccess
}

// IRQ services the peripheral interrupt for base: a pending non-blocking
// master transfer completes and its callback runs. It reports whether any
// work was done.
func (d *Driver) IRQ(base lpci2c.Base) bool {
	pp := d.at(base)
	h := pp.pending
	if h == nil {
		return false
	}
	pp.pending = nil
	st, n := d.run(base, &h.Transfer)
	h.Transferred = n
	h.Busy = false
	if h.Callback != nil {
		h.Callback(base, h, st)
	}
	return true
}

// run executes one addressed master transfer and returns the data bytes moved.
func (d *Driver) run(base lpci2c.Base, x *lpci2c.MasterTransfer) (lpci2c.Status, int) {
	pp := d.at(base)
	if !pp.MasterOn {
		return lpci2c.StatusUnexpectedState, 0
	}
	if x.DataSize < 0 || x.DataSize > len(x.Data) || x.SubaddressSize > 4 {
		return lpci2c.StatusInvalidArgument, 0
	}
	if st := d.takeFault(pp); st != lpci2c.StatusSuccess {
		d.trace("xfer", base, x.SlaveAddress, 0, st)
		return st, 0
	}
	t, ok := d.lookup(base, x.SlaveAddress)
	if !ok {
		d.trace("xfer", base, x.SlaveAddress, 0, lpci2c.StatusNak)
		return lpci2c.StatusNak, 0
	}

	sub := make([]byte, x.SubaddressSize)
	for i := range sub {
		sub[i] = byte(x.Subaddress >> (8 * (len(sub) - 1 - i)))
	}
	data := x.Data[:x.DataSize]

	var st lpci2c.Status
	if x.Direction == lpci2c.Write {
		st = phase(t.Write(append(sub, data...)))
	} else {
		st = lpci2c.StatusSuccess
		if len(sub) > 0 {
			st = phase(t.Write(sub))
		}
		if st == lpci2c.StatusSuccess {
			st = phase(t.Read(data))
		}
	}
	n := 0
	if st == lpci2c.StatusSuccess {
		n = len(data)
	}
	d.trace("xfer "+x.Direction.String(), base, x.SlaveAddress, n, st)
	return st, n
}

func (d *Driver) trace(op string, base lpci2c.Base, addr uint16, n int, st lpci2c.Status) {
	d.log.Debug(op,
		zap.Uint32("base", uint32(base)),
		zap.Uint16("addr", addr),
		zap.Int("bytes", n),
		zap.Stringer("status", st))
}

func phase(err error) lpci2c.Status {
	if err != nil {
		return lpci2c.StatusNak
	}
	return lpci2c.StatusSuccess
}
