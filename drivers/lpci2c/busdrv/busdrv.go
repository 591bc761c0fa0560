// Package busdrv implements lpci2c.Driver over tinygo.org/x/drivers.I2C
// buses, so the HAL runs on any board whose TinyGo machine package exposes
// an I2C controller.
//
// A drivers.I2C bus only offers whole transactions, so master transfers map
// onto Tx: the subaddress is written big-endian ahead of the data, and reads
// use a repeated start. A write flagged FlagNoStop is held on the port and
// sent with the following FlagRepeatedStart read to the same address as one
// Tx. Non-blocking transfers run to completion before returning and then
// invoke the callback. Raw blocking read/write and every slave-mode primitive
// report StatusFail.
package busdrv

import (
	"strings"

	"tinygo.org/x/drivers"

	"lpc845-go/drivers/lpci2c"
)

// baudSetter is implemented by machine.I2C on most TinyGo targets.
type baudSetter interface {
	SetBaudRate(br uint32) error
}

type port struct {
	bus     drivers.I2C
	enabled bool

	// Write phase awaiting its repeated-start read.
	held     []byte
	heldAddr uint16
	holding  bool
}

// flush sends a held write on its own.
func (p *port) flush() lpci2c.Status {
	if !p.holding {
		return lpci2c.StatusSuccess
	}
	w, addr := p.held, p.heldAddr
	p.drop()
	return status(p.bus.Tx(addr, w, nil))
}

func (p *port) drop() {
	p.held, p.heldAddr, p.holding = nil, 0, false
}

// Driver maps peripheral bases to TinyGo buses.
type Driver struct {
	ports map[lpci2c.Base]*port
}

var _ lpci2c.Driver = (*Driver)(nil)

// New returns a driver with no buses attached.
func New() *Driver {
	return &Driver{ports: map[lpci2c.Base]*port{}}
}

// Attach backs the peripheral at base with bus. The bus must already be
// configured for its pins.
func (d *Driver) Attach(base lpci2c.Base, bus drivers.I2C) {
	d.ports[base] = &port{bus: bus}
}

func (d *Driver) live(base lpci2c.Base) (*port, bool) {
	p, ok := d.ports[base]
	if !ok || !p.enabled {
		return nil, false
	}
	return p, true
}

func (d *Driver) MasterInit(base lpci2c.Base, cfg *lpci2c.MasterConfig, _ uint32) {
	p, ok := d.ports[base]
	if !ok {
		return
	}
	p.enabled = cfg.EnableMaster
	if bs, ok := p.bus.(baudSetter); ok && cfg.BaudRateBps > 0 {
		_ = bs.SetBaudRate(cfg.BaudRateBps)
	}
}

func (d *Driver) MasterDeinit(base lpci2c.Base) {
	if p, ok := d.ports[base]; ok {
		p.enabled = false
		p.drop()
	}
}

func (d *Driver) MasterWriteBlocking(lpci2c.Base, []byte, uint32) lpci2c.Status {
	return lpci2c.StatusFail
}

func (d *Driver) MasterReadBlocking(lpci2c.Base, []byte, uint32) lpci2c.Status {
	return lpci2c.StatusFail
}

func (d *Driver) MasterTransferBlocking(base lpci2c.Base, x *lpci2c.MasterTransfer) lpci2c.Status {
	p, ok := d.live(base)
	if !ok {
		return lpci2c.StatusUnexpectedState
	}
	if x.DataSize < 0 || x.DataSize > len(x.Data) || x.SubaddressSize > 4 {
		return lpci2c.StatusInvalidArgument
	}

	w := make([]byte, x.SubaddressSize, int(x.SubaddressSize)+x.DataSize)
	for i := range w {
		w[i] = byte(x.Subaddress >> (8 * (len(w) - 1 - i)))
	}
	data := x.Data[:x.DataSize]

	if x.Direction == lpci2c.Write {
		w = append(w, data...)
		if x.Flags&lpci2c.FlagNoStop != 0 {
			if p.holding && p.heldAddr == x.SlaveAddress {
				p.held = append(p.held, w...)
				return lpci2c.StatusSuccess
			}
			if st := p.flush(); st != lpci2c.StatusSuccess {
				return st
			}
			p.held, p.heldAddr, p.holding = w, x.SlaveAddress, true
			return lpci2c.StatusSuccess
		}
		if st := p.flush(); st != lpci2c.StatusSuccess {
			return st
		}
		return status(p.bus.Tx(x.SlaveAddress, w, nil))
	}

	if p.holding && p.heldAddr == x.SlaveAddress && x.Flags&lpci2c.FlagRepeatedStart != 0 {
		w = append(p.held, w...)
		p.drop()
		return status(p.bus.Tx(x.SlaveAddress, w, data))
	}
	if st := p.flush(); st != lpci2c.StatusSuccess {
		return st
	}
	return status(p.bus.Tx(x.SlaveAddress, w, data))
}

// status classifies a TinyGo bus error. Ports report failures as plain
// errors, so the message is all there is to go on.
func status(err error) lpci2c.Status {
	if err == nil {
		return lpci2c.StatusSuccess
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "nack"), strings.Contains(msg, "no ack"), strings.Contains(msg, "expected ack"):
		return lpci2c.StatusNak
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return lpci2c.StatusTimeout
	case strings.Contains(msg, "arbitration"):
		return lpci2c.StatusArbitrationLost
	default:
		return lpci2c.StatusFail
	}
}

func (d *Driver) MasterTransferCreateHandle(_ lpci2c.Base, h *lpci2c.MasterHandle, cb lpci2c.MasterCallback) {
	*h = lpci2c.MasterHandle{Callback: cb}
}

func (d *Driver) MasterTransferNonBlocking(base lpci2c.Base, h *lpci2c.MasterHandle, x *lpci2c.MasterTransfer) lpci2c.Status {
	if h.Busy {
		return lpci2c.StatusBusy
	}
	if _, ok := d.live(base); !ok {
		return lpci2c.StatusUnexpectedState
	}
	h.Transfer = *x
	h.Busy = true
	st := d.MasterTransferBlocking(base, &h.Transfer)
	if st == lpci2c.StatusSuccess {
		h.Transferred = h.Transfer.DataSize
	}
	h.Busy = false
	if h.Callback != nil {
		h.Callback(base, h, st)
	}
	return lpci2c.StatusSuccess
}

func (d *Driver) MasterTransferGetCount(_ lpci2c.Base, h *lpci2c.MasterHandle, count *int) lpci2c.Status {
	*count = h.Transferred
	if !h.Busy {
		return lpci2c.StatusNoTransferInProgress
	}
	return lpci2c.StatusSuccess
}

func (d *Driver) MasterTransferAbort(_ lpci2c.Base, h *lpci2c.MasterHandle) lpci2c.Status {
	h.Busy = false
	return lpci2c.StatusSuccess
}

func (d *Driver) SlaveInit(lpci2c.Base, *lpci2c.SlaveConfig, uint32) lpci2c.Status {
	return lpci2c.StatusFail
}

func (d *Driver) SlaveDeinit(lpci2c.Base) {}

func (d *Driver) SlaveWriteBlocking(lpci2c.Base, []byte) lpci2c.Status { return lpci2c.StatusFail }

func (d *Driver) SlaveReadBlocking(lpci2c.Base, []byte) lpci2c.Status { return lpci2c.StatusFail }

func (d *Driver) SlaveTransferCreateHandle(_ lpci2c.Base, h *lpci2c.SlaveHandle, cb lpci2c.SlaveCallback) {
	*h = lpci2c.SlaveHandle{Callback: cb}
}

func (d *Driver) SlaveTransferNonBlocking(lpci2c.Base, *lpci2c.SlaveHandle, lpci2c.SlaveEvent) lpci2c.Status {
	return lpci2c.StatusFail
}

func (d *Driver) SlaveTransferGetCount(_ lpci2c.Base, _ *lpci2c.SlaveHandle, count *int) lpci2c.Status {
	*count = 0
	return lpci2c.StatusNoTransferInProgress
}

func (d *Driver) SlaveTransferAbort(lpci2c.Base, *lpci2c.SlaveHandle) lpci2c.Status {
	return lpci2c.StatusNoTransferInProgress
}
