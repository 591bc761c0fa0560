//go:build tinygo

// cmd/aht20-read polls an AHT20 once a second through the HAL adapter on a
// real TinyGo I2C bus.
package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/aht20"

	"lpc845-go/drivers/lpci2c"
	"lpc845-go/drivers/lpci2c/busdrv"
	"lpc845-go/hal/drvshim"
	"lpc845-go/hal/i2c"
)

const (
	instance = i2c.Instance(0)
	baud     = 100_000
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)

	if err := machine.I2C0.Configure(machine.I2CConfig{Frequency: baud}); err != nil {
		println("[aht20-read] i2c configure:", err.Error())
		return
	}

	drv := busdrv.New()
	drv.Attach(lpci2c.BasePtrs[instance], machine.I2C0)

	h := i2c.NewMasterHandle(i2c.MasterHandleSize)
	cfg := i2c.MasterConfig{EnableMaster: true, BaudRateBps: baud, Instance: instance, SrcClockHz: machine.CPUFrequency()}
	if st := i2c.New(drv).MasterInit(h, cfg); st != i2c.StatusSuccess {
		println("[aht20-read] master init:", st.String())
		return
	}

	dev := aht20.New(drvshim.New(h))
	dev.Configure()

	for {
		if err := dev.Read(); err != nil {
			println("[aht20-read] read:", err.Error())
		} else {
			println("[aht20-read] deci-C", dev.DeciCelsius(), "deci-RH", dev.DeciRelHumidity())
		}
		time.Sleep(time.Second)
	}
}
