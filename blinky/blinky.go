// Package blinky holds the LED bring-up examples: a free-running blink loop
// and a SysTick-style divider that toggles several LEDs at independent
// periods from one 1 ms tick.
package blinky

import (
	"context"
	"time"
)

// Pin is the output subset of a GPIO handle.
type Pin interface {
	Get() bool
	Set(level bool)
	Toggle()
}

// Blink toggles pin every period until ctx is done.
func Blink(ctx context.Context, pin Pin, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pin.Toggle()
		}
	}
}

// Channel is one LED driven by a Divider, toggled every Every ticks.
type Channel struct {
	Pin   Pin
	Every uint32
}

type counter struct {
	Channel
	n uint32
}

// Divider counts ticks and toggles each channel when its period elapses.
// Channels count independently, so periods need not divide one another.
type Divider struct {
	ch    []counter
	ticks uint64
}

// NewDivider returns a divider over chs. Channels with Every == 0 never toggle.
func NewDivider(chs ...Channel) *Divider {
	d := &Divider{ch: make([]counter, len(chs))}
	for i, c := range chs {
		d.ch[i] = counter{Channel: c}
	}
	return d
}

// Tick advances the divider by one tick. It is the body of the tick handler.
func (d *Divider) Tick() {
	d.ticks++
	for i := range d.ch {
		c := &d.ch[i]
		if c.Every == 0 {
			continue
		}
		c.n++
		if c.n == c.Every {
			c.n = 0
			c.Pin.Toggle()
		}
	}
}

// Ticks reports how many ticks have been counted.
func (d *Divider) Ticks() uint64 { return d.ticks }

// Run calls d.Tick every tick until ctx is done.
func Run(ctx context.Context, d *Divider, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			d.Tick()
		}
	}
}
