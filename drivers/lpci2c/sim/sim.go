// Package sim is a host-side lpci2c.Driver. It models each peripheral as an
// in-memory bus with attached Targets, answers master transfers, and drives
// slave-mode handles from a simulated bus controller.
//
// Interrupts are explicit: a non-blocking master transfer stays pending until
// IRQ is called for its base, which completes it and runs the callback on the
// caller's goroutine. The driver is not safe for concurrent use, matching the
// single-context model of the hardware it stands in for.
package sim

import (
	"errors"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"lpc845-go/drivers/lpci2c"
)

// Target is a device attached to a simulated bus.
// Write receives one write phase; Read fills one read phase.
// A non-nil error NAKs the phase.
type Target interface {
	Write(p []byte) error
	Read(p []byte) error
}

// ErrNak may be returned by Targets to refuse a phase.
var ErrNak = errors.New("nak")

// Peripheral is a snapshot of one simulated peripheral.
type Peripheral struct {
	MasterOn   bool
	Master     lpci2c.MasterConfig
	SlaveOn    bool
	Slave      lpci2c.SlaveConfig
	SrcClockHz uint32
	Inits      int
}

type periph struct {
	Peripheral

	targets map[uint16]Target

	// Raw blocking master state: address latched by MasterStart.
	addr    uint16
	dir     lpci2c.Direction
	started bool

	pending *lpci2c.MasterHandle // non-blocking master transfer awaiting IRQ
	fault   lpci2c.Status        // one-shot status for the next master transaction

	armed  *lpci2c.SlaveHandle // non-blocking slave handle
	inbox  []byte              // controller writes for blocking slave reads
	outbox []byte              // blocking slave writes for controller reads
}

// Driver implements lpci2c.Driver in memory.
type Driver struct {
	log *zap.Logger
	p   map[lpci2c.Base]*periph
}

var _ lpci2c.Driver = (*Driver)(nil)

// Option configures a Driver.
type Option func(*Driver)

// WithLogger traces bus activity to l.
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

// New returns a driver with one idle peripheral per lpci2c.BasePtrs entry.
func New(opts ...Option) *Driver {
	d := &Driver{log: zap.NewNop(), p: make(map[lpci2c.Base]*periph, len(lpci2c.BasePtrs))}
	for _, b := range lpci2c.BasePtrs {
		d.p[b] = &periph{targets: map[uint16]Target{}}
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Driver) at(base lpci2c.Base) *periph {
	pp, ok := d.p[base]
	if !ok {
		// Unknown bases behave like an unclocked peripheral.
		pp = &periph{targets: map[uint16]Target{}}
		d.p[base] = pp
	}
	return pp
}

// Attach places t on the bus of base at the 7-bit address addr.
func (d *Driver) Attach(base lpci2c.Base, addr uint16, t Target) {
	d.at(base).targets[addr] = t
}

// Detach removes the target at addr.
func (d *Driver) Detach(base lpci2c.Base, addr uint16) {
	delete(d.at(base).targets, addr)
}

// Targets lists the occupied addresses on base in ascending order, including
// other peripherals enabled as slaves.
func (d *Driver) Targets(base lpci2c.Base) []uint16 {
	pp := d.at(base)
	out := make([]uint16, 0, len(pp.targets))
	for a := range pp.targets {
		out = append(out, a)
	}
	for b, other := range d.p {
		if b != base && other.SlaveOn {
			a := uint16(other.Slave.Address0.Address)
			if _, dup := pp.targets[a]; !dup {
				out = append(out, a)
			}
		}
	}
	slices.Sort(out)
	return out
}

// Peripheral returns the current configuration of base.
func (d *Driver) Peripheral(base lpci2c.Base) Peripheral {
	return d.at(base).Peripheral
}

// InjectFault makes the next master transaction on base fail with st.
func (d *Driver) InjectFault(base lpci2c.Base, st lpci2c.Status) {
	d.at(base).fault = st
}

func (d *Driver) takeFault(pp *periph) lpci2c.Status {
	st := pp.fault
	pp.fault = lpci2c.StatusSuccess
	return st
}
