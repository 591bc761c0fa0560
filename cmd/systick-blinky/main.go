//go:build tinygo

// cmd/systick-blinky drives two LEDs from a 1 ms tick: the board LED every
// 500 ms and a second LED every 1500 ms.
package main

import (
	"context"
	"machine"
	"time"

	"lpc845-go/blinky"
)

const (
	tick = time.Millisecond

	blueEvery = 500
	d1Every   = 1500
)

// Second LED on pin 29 of the target board.
const ledD1 = machine.Pin(29)

func main() {
	blue := blinky.Output(machine.LED, true)
	d1 := blinky.Output(ledD1, true)

	d := blinky.NewDivider(
		blinky.Channel{Pin: blue, Every: blueEvery},
		blinky.Channel{Pin: d1, Every: d1Every},
	)
	println("[systick-blinky] tick", tick.String())
	blinky.Run(context.Background(), d, tick)
}
