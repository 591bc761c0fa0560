package sim

import (
	"sync"
	"time"
)

// Memory is a register-file target (EEPROM-like). The first AddrBytes of each
// write set the register pointer; remaining bytes are stored from there. Reads
// continue from the pointer. The pointer wraps at len(Mem).
type Memory struct {
	AddrBytes int
	Mem       []byte
	ptr       int
}

// NewMemory returns a Memory of size bytes addressed with addrBytes bytes.
func NewMemory(size, addrBytes int) *Memory {
	return &Memory{AddrBytes: addrBytes, Mem: make([]byte, size)}
}

func (m *Memory) Write(p []byte) error {
	if len(m.Mem) == 0 {
		return ErrNak
	}
	if len(p) >= m.AddrBytes && m.AddrBytes > 0 {
		a := 0
		for _, b := range p[:m.AddrBytes] {
			a = a<<8 | int(b)
		}
		m.ptr = a % len(m.Mem)
		p = p[m.AddrBytes:]
	}
	for _, b := range p {
		m.Mem[m.ptr] = b
		m.ptr = (m.ptr + 1) % len(m.Mem)
	}
	return nil
}

func (m *Memory) Read(p []byte) error {
	if len(m.Mem) == 0 {
		return ErrNak
	}
	for i := range p {
		p[i] = m.Mem[m.ptr]
		m.ptr = (m.ptr + 1) % len(m.Mem)
	}
	return nil
}

// AHT20 commands and status bits.
const (
	aht20CmdTrigger = 0xAC
	aht20CmdStatus  = 0x71

	aht20StatusBusy       = 0x80
	aht20StatusCalibrated = 0x08

	// Idle status as read from production parts: calibrated plus bits 2 and 4.
	aht20StatusIdle = 0x1C
)

// AHT20 models an AHT20 humidity/temperature sensor: status reads, triggered
// conversions with a busy window, and 7-byte measurement frames.
type AHT20 struct {
	mu         sync.Mutex
	now        func() time.Time
	readyAt    time.Time
	busy       bool
	statusNext bool

	// Conversion time after a trigger.
	Conversion time.Duration
	// Raw 20-bit readings returned by the next measurement.
	RawHumidity, RawTemp uint32
}

// NewAHT20 returns a calibrated sensor reporting 25.0 °C and about 55 %RH.
func NewAHT20() *AHT20 {
	return &AHT20{
		now:         time.Now,
		Conversion:  30 * time.Millisecond,
		RawHumidity: 576_717,
		RawTemp:     393_216,
	}
}

// SetReading sets the values, in tenths of a unit, returned by later frames.
func (a *AHT20) SetReading(deciCelsius, deciRH int32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.RawTemp = uint32((int64(deciCelsius) + 500) * 0x100000 / 2000)
	a.RawHumidity = uint32(int64(deciRH) * 0x100000 / 1000)
}

func (a *AHT20) status(now time.Time) byte {
	s := byte(aht20StatusIdle)
	if a.busy && now.Before(a.readyAt) {
		s |= aht20StatusBusy
	} else {
		a.busy = false
	}
	return s
}

func (a *AHT20) Write(p []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(p) == 0 {
		return nil
	}
	switch p[0] {
	case aht20CmdTrigger:
		a.busy = true
		a.readyAt = a.now().Add(a.Conversion)
	case aht20CmdStatus:
		a.statusNext = true
	}
	return nil
}

func (a *AHT20) Read(p []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(p) == 0 {
		return nil
	}
	p[0] = a.status(a.now())
	if a.statusNext {
		a.statusNext = false
		return nil
	}
	h, t := a.RawHumidity, a.RawTemp
	frame := [6]byte{
		byte(h >> 12),
		byte(h >> 4),
		byte((h&0xF)<<4 | (t>>16)&0x0F),
		byte(t >> 8),
		byte(t),
		0,
	}
	copy(p[1:], frame[:])
	return nil
}
