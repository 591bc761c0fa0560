// cmd/i2c-sim is a host console for the I2C HAL. It runs the HAL against the
// simulated LPC845 peripherals with an EEPROM, an AHT20 sensor and a second
// peripheral in slave mode on the bus.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"lpc845-go/errcode"
	"lpc845-go/hal/i2c"
)

func main() {
	var (
		instance = flag.Uint("instance", 0, "I2C peripheral instance for the master")
		baud     = flag.Uint("baud", 400000, "bus baud rate in bit/s")
		clock    = flag.Uint("clock", 12_000_000, "peripheral source clock in Hz")
		debug    = flag.Bool("debug", false, "trace bus activity")
	)
	flag.Parse()

	log, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *instance >= uint(i2c.NumInstances) {
		log.Fatal("instance out of range", zap.Uint("instance", *instance), zap.Int("instances", i2c.NumInstances))
	}

	c, err := newConsole(os.Stdout, log, config{
		instance:   i2c.Instance(*instance),
		baud:       uint32(*baud),
		srcClockHz: uint32(*clock),
	})
	if err != nil {
		log.Fatal("board setup failed", zap.Error(err))
	}

	in := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for in.Scan() {
		if err := c.exec(in.Text()); err != nil {
			if errors.Is(err, errQuit) {
				return
			}
			fmt.Println("error:", err, "("+string(errcode.Of(err))+")")
		}
		fmt.Print("> ")
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
