//go:build tinygo

package blinky

import "machine"

type machinePin struct{ p machine.Pin }

// Output configures p as an output at the given level and wraps it as a Pin.
func Output(p machine.Pin, initial bool) Pin {
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Set(initial)
	return machinePin{p: p}
}

func (m machinePin) Get() bool      { return m.p.Get() }
func (m machinePin) Set(level bool) { m.p.Set(level) }
func (m machinePin) Toggle() {
	if m.p.Get() {
		m.p.Low()
	} else {
		m.p.High()
	}
}
