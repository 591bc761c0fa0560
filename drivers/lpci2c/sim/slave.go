package sim

import (
	"go.uber.org/zap"

	"lpc845-go/drivers/lpci2c"
)

// lookup resolves addr on the bus of base: attached targets first, then any
// other peripheral enabled as a slave on that address. All simulated buses
// are wired together for the latter.
func (d *Driver) lookup(base lpci2c.Base, addr uint16) (Target, bool) {
	if t, ok := d.at(base).targets[addr]; ok {
		return t, true
	}
	for _, b := range lpci2c.BasePtrs {
		if b == base {
			continue
		}
		pp := d.at(b)
		if pp.SlaveOn && !pp.Slave.Address0.AddressDisable && uint16(pp.Slave.Address0.Address) == addr {
			return slaveTarget{d: d, base: b}, true
		}
	}
	return nil, false
}

// slaveTarget routes master phases into a peripheral running in slave mode.
type slaveTarget struct {
	d    *Driver
	base lpci2c.Base
}

func (s slaveTarget) Write(p []byte) error {
	if _, st := s.d.ControllerWrite(s.base, p); st != lpci2c.StatusSuccess {
		return ErrNak
	}
	return nil
}

func (s slaveTarget) Read(p []byte) error {
	if _, st := s.d.ControllerRead(s.base, p); st != lpci2c.StatusSuccess {
		return ErrNak
	}
	return nil
}

func (d *Driver) SlaveInit(base lpci2c.Base, cfg *lpci2c.SlaveConfig, srcClockHz uint32) lpci2c.Status {
	pp := d.at(base)
	pp.SlaveOn = cfg.EnableSlave
	pp.Slave = *cfg
	pp.SrcClockHz = srcClockHz
	pp.Inits++
	d.log.Debug("slave init",
		zap.Uint32("base", uint32(base)),
		zap.Bool("enable", cfg.EnableSlave),
		zap.Uint8("address", cfg.Address0.Address))
	return lpci2c.StatusSuccess
}

func (d *Driver) SlaveDeinit(base lpci2c.Base) {
	pp := d.at(base)
	pp.SlaveOn = false
	pp.armed = nil
	pp.inbox, pp.outbox = nil, nil
	d.log.Debug("slave deinit", zap.Uint32("base", uint32(base)))
}

// SlaveWriteBlocking queues tx for the next controller read.
func (d *Driver) SlaveWriteBlocking(base lpci2c.Base, tx []byte) lpci2c.Status {
	pp := d.at(base)
	if !pp.SlaveOn {
		return lpci2c.StatusUnexpectedState
	}
	pp.outbox = append(pp.outbox, tx...)
	return lpci2c.StatusSuccess
}

// SlaveReadBlocking takes len(rx) bytes already written by the controller.
// With too few bytes waiting it reports a timeout and consumes nothing.
func (d *Driver) SlaveReadBlocking(base lpci2c.Base, rx []byte) lpci2c.Status {
	pp := d.at(base)
	if !pp.SlaveOn {
		return lpci2c.StatusUnexpectedState
	}
	if len(pp.inbox) < len(rx) {
		return lpci2c.StatusTimeout
	}
	n := copy(rx, pp.inbox)
	pp.inbox = pp.inbox[n:]
	return lpci2c.StatusSuccess
}

func (d *Driver) SlaveTransferCreateHandle(base lpci2c.Base, h *lpci2c.SlaveHandle, cb lpci2c.SlaveCallback) {
	*h = lpci2c.SlaveHandle{Callback: cb}
}

func (d *Driver) SlaveTransferNonBlocking(base lpci2c.Base, h *lpci2c.SlaveHandle, eventMask lpci2c.SlaveEvent) lpci2c.Status {
	pp := d.at(base)
	if h.Busy {
		return lpci2c.StatusBusy
	}
	if !pp.SlaveOn {
		return lpci2c.StatusUnexpectedState
	}
	h.Transfer = lpci2c.SlaveTransfer{}
	h.EventMask = eventMask | lpci2c.SlaveCompletionEvent
	h.Busy = true
	pp.armed = h
	return lpci2c.StatusSuccess
}

func (d *Driver) SlaveTransferGetCount(base lpci2c.Base, h *lpci2c.SlaveHandle, count *int) lpci2c.Status {
	if !h.Busy {
		*count = 0
		return lpci2c.StatusNoTransferInProgress
	}
	*count = h.Transfer.TransferredCount
	return lpci2c.StatusSuccess
}

func (d *Driver) SlaveTransferAbort(base lpci2c.Base, h *lpci2c.SlaveHandle) lpci2c.Status {
	pp := d.at(base)
	if pp.armed == h {
		pp.armed = nil
	}
	if !h.Busy {
		return lpci2c.StatusNoTransferInProgress
	}
	h.Busy = false
	return lpci2c.StatusSuccess
}

func (d *Driver) slaveEvent(base lpci2c.Base, h *lpci2c.SlaveHandle, ev lpci2c.SlaveEvent) {
	h.Transfer.Event = ev
	if h.EventMask&ev != 0 && h.Callback != nil {
		h.Callback(base, &h.Transfer)
	}
}

// ControllerWrite plays a bus controller writing p to the slave peripheral at
// base. An armed slave handle receives address-match, receive and completion
// events; receive events fire whenever the current buffer is exhausted. Bytes
// beyond the last buffer supplied are NAKed. Without an armed handle the bytes
// are queued for SlaveReadBlocking.
func (d *Driver) ControllerWrite(base lpci2c.Base, p []byte) (int, lpci2c.Status) {
	pp := d.at(base)
	if !pp.SlaveOn {
		return 0, lpci2c.StatusNak
	}
	h := pp.armed
	if h == nil {
		pp.inbox = append(pp.inbox, p...)
		return len(p), lpci2c.StatusSuccess
	}

	x := &h.Transfer
	*x = lpci2c.SlaveTransfer{}
	d.slaveEvent(base, h, lpci2c.SlaveAddressMatchEvent)

	n := 0
	for n < len(p) {
		if x.RxSize <= 0 || len(x.RxData) == 0 {
			d.slaveEvent(base, h, lpci2c.SlaveReceiveEvent)
			if x.RxSize <= 0 || len(x.RxData) == 0 {
				break
			}
		}
		c := copy(x.RxData[:min(x.RxSize, len(x.RxData))], p[n:])
		x.RxData, x.RxSize = x.RxData[c:], x.RxSize-c
		x.TransferredCount += c
		n += c
	}

	st := lpci2c.StatusSuccess
	if n < len(p) {
		st = lpci2c.StatusNak
	}
	x.CompletionStatus = st
	d.slaveEvent(base, h, lpci2c.SlaveCompletionEvent)
	d.trace("controller write", base, uint16(pp.Slave.Address0.Address), n, st)
	return n, st
}

// ControllerRead plays a bus controller reading len(p) bytes from the slave
// peripheral at base. An armed slave handle receives address-match, transmit
// and completion events; transmit events fire whenever the current buffer is
// exhausted. Bytes the slave does not supply read as 0xFF. Without an armed
// handle the bytes come from SlaveWriteBlocking.
func (d *Driver) ControllerRead(base lpci2c.Base, p []byte) (int, lpci2c.Status) {
	pp := d.at(base)
	if !pp.SlaveOn {
		return 0, lpci2c.StatusNak
	}
	h := pp.armed
	n := 0
	if h == nil {
		n = copy(p, pp.outbox)
		pp.outbox = pp.outbox[n:]
	} else {
		x := &h.Transfer
		*x = lpci2c.SlaveTransfer{}
		d.slaveEvent(base, h, lpci2c.SlaveAddressMatchEvent)
		for n < len(p) {
			if x.TxSize <= 0 || len(x.TxData) == 0 {
				d.slaveEvent(base, h, lpci2c.SlaveTransmitEvent)
				if x.TxSize <= 0 || len(x.TxData) == 0 {
					break
				}
			}
			c := copy(p[n:], x.TxData[:min(x.TxSize, len(x.TxData))])
			x.TxData, x.TxSize = x.TxData[c:], x.TxSize-c
			x.TransferredCount += c
			n += c
		}
		x.CompletionStatus = lpci2c.StatusSuccess
		d.slaveEvent(base, h, lpci2c.SlaveCompletionEvent)
	}
	for i := n; i < len(p); i++ {
		p[i] = 0xFF
	}
	d.trace("controller read", base, uint16(pp.Slave.Address0.Address), n, lpci2c.StatusSuccess)
	return n, lpci2c.StatusSuccess
}
