//go:build tinygo

// cmd/blinky toggles the board LED from a plain loop.
package main

import (
	"context"
	"machine"
	"time"

	"lpc845-go/blinky"
)

const period = 250 * time.Millisecond

func main() {
	led := blinky.Output(machine.LED, true)
	println("[blinky] running, period", period.String())
	blinky.Blink(context.Background(), led, period)
}
