package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"go.uber.org/zap"
	"tinygo.org/x/drivers/aht20"

	"lpc845-go/drivers/lpci2c"
	"lpc845-go/drivers/lpci2c/sim"
	"lpc845-go/errcode"
	"lpc845-go/hal/drvshim"
	"lpc845-go/hal/i2c"
)

// Simulated board population.
const (
	eepromAddr = 0x50
	sensorAddr = 0x38
	slaveAddr  = 0x42

	probeFirst = 0x08
	probeLast  = 0x77
)

var errQuit = errors.New("quit")

type config struct {
	instance   i2c.Instance
	baud       uint32
	srcClockHz uint32
}

// console drives the simulated board through the HAL.
type console struct {
	out io.Writer
	log *zap.Logger

	drv    *sim.Driver
	base   lpci2c.Base
	master *i2c.MasterHandle
	slave  *i2c.SlaveHandle
	sensor aht20.Device

	// Slave-side register file served on slaveAddr.
	regs  [16]byte
	reg   [1]byte
	regAt int

	lastAsync []byte
}

type command struct {
	usage string
	run   func(c *console, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":    {"help", (*console).help},
		"scan":    {"scan", (*console).scan},
		"targets": {"targets", (*console).targets},
		"write":   {"write <addr> <byte>...", (*console).write},
		"read":    {"read <addr> <n> [subaddr-byte]...", (*console).read},
		"async":   {"async <addr> <n>", (*console).async},
		"abort":   {"abort", (*console).abort},
		"count":   {"count", (*console).count},
		"fault":   {"fault nak|busy|timeout|arbitration|bit", (*console).fault},
		"aht20":   {"aht20", (*console).readSensor},
		"slave":   {"slave [reg value]", (*console).slaveCmd},
		"quit":    {"quit", func(*console, []string) error { return errQuit }},
	}
}

func newConsole(out io.Writer, log *zap.Logger, cfg config) (*console, error) {
	c := &console{out: out, log: log, drv: sim.New(sim.WithLogger(log.Named("sim")))}
	hal := i2c.New(c.drv)

	if int(cfg.instance) >= i2c.NumInstances {
		return nil, &errcode.E{C: errcode.InvalidInstance, Op: "master init", Msg: "instance " + strconv.Itoa(int(cfg.instance))}
	}
	c.master = i2c.NewMasterHandle(i2c.MasterHandleSize)
	st := hal.MasterInit(c.master, i2c.MasterConfig{
		EnableMaster: true,
		BaudRateBps:  cfg.baud,
		Instance:     cfg.instance,
		SrcClockHz:   cfg.srcClockHz,
	})
	if st != i2c.StatusSuccess {
		return nil, errcode.Wrap("master init", errcode.Of(st.Err()))
	}
	c.base = lpci2c.BasePtrs[cfg.instance]
	c.master.InstallCallback(c.onComplete, nil)

	c.drv.Attach(c.base, eepromAddr, sim.NewMemory(256, 1))
	c.drv.Attach(c.base, sensorAddr, sim.NewAHT20())

	// The slave runs on the next peripheral and answers on slaveAddr.
	c.slave = i2c.NewSlaveHandle(i2c.SlaveHandleSize)
	slaveInst := i2c.Instance((int(cfg.instance) + 1) % i2c.NumInstances)
	if st := hal.SlaveInit(c.slave, i2c.SlaveConfig{
		EnableSlave:  true,
		SlaveAddress: slaveAddr,
		Instance:     slaveInst,
		SrcClockHz:   cfg.srcClockHz,
	}); st != i2c.StatusSuccess {
		return nil, errcode.Wrap("slave init", errcode.Of(st.Err()))
	}
	c.slave.InstallCallback(c.onSlaveEvent, nil)
	if st := c.slave.TransferNonBlocking(i2c.SlaveAllEvents); st != i2c.StatusSuccess {
		return nil, errcode.Wrap("slave arm", errcode.Of(st.Err()))
	}
	for i := range c.regs {
		c.regs[i] = byte(0xA0 + i)
	}

	c.sensor = aht20.New(drvshim.New(c.master))
	c.sensor.Configure()

	log.Info("board ready",
		zap.Uint8("instance", uint8(cfg.instance)),
		zap.Uint8("slave_instance", uint8(slaveInst)),
		zap.Uint32("baud", cfg.baud))
	return c, nil
}

// exec runs one console line. It returns errQuit when the session should end.
func (c *console) exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "parse", Err: err}
	}
	if len(args) == 0 {
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return &errcode.E{C: errcode.Unsupported, Op: args[0], Msg: "unknown command, try help"}
	}
	return cmd.run(c, args[1:])
}

func (c *console) printf(format string, a ...any) {
	fmt.Fprintf(c.out, format, a...)
}

func (c *console) help(_ []string) error {
	for _, name := range []string{"scan", "targets", "write", "read", "async", "abort", "count", "fault", "aht20", "slave", "help", "quit"} {
		c.printf("  %s\n", commands[name].usage)
	}
	return nil
}

// scan probes every 7-bit address with an empty write.
func (c *console) scan(_ []string) error {
	var found []string
	for a := uint16(probeFirst); a <= probeLast; a++ {
		x := i2c.Transfer{SlaveAddress: a, Direction: i2c.Write}
		if c.master.TransferBlocking(&x) == i2c.StatusSuccess {
			found = append(found, fmt.Sprintf("0x%02x", a))
		}
	}
	c.printf("found %d: %s\n", len(found), strings.Join(found, " "))
	return nil
}

func (c *console) targets(_ []string) error {
	for _, a := range c.drv.Targets(c.base) {
		c.printf("0x%02x\n", a)
	}
	return nil
}

func (c *console) write(args []string) error {
	if len(args) < 1 {
		return errcode.InvalidParams
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	data, err := parseBytes(args[1:])
	if err != nil {
		return err
	}
	x := i2c.Transfer{SlaveAddress: addr, Direction: i2c.Write, Data: data, DataSize: len(data)}
	return c.report("write", c.master.TransferBlocking(&x))
}

func (c *console) read(args []string) error {
	if len(args) < 2 {
		return errcode.InvalidParams
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	n, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "read", Err: err}
	}
	sub, err := parseBytes(args[2:])
	if err != nil {
		return err
	}
	if len(sub) > 4 {
		return &errcode.E{C: errcode.InvalidParams, Op: "read", Msg: "subaddress longer than 4 bytes"}
	}
	var subaddr uint32
	for _, b := range sub {
		subaddr = subaddr<<8 | uint32(b)
	}
	buf := make([]byte, n)
	x := i2c.Transfer{
		SlaveAddress:   addr,
		Direction:      i2c.Read,
		Subaddress:     subaddr,
		SubaddressSize: uint8(len(sub)),
		Data:           buf,
		DataSize:       len(buf),
	}
	if err := c.report("read", c.master.TransferBlocking(&x)); err != nil {
		return err
	}
	c.printf("% x\n", buf)
	return nil
}

// async starts a non-blocking read and services the interrupt.
func (c *console) async(args []string) error {
	if len(args) < 2 {
		return errcode.InvalidParams
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	n, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "async", Err: err}
	}
	c.lastAsync = make([]byte, n)
	x := i2c.Transfer{SlaveAddress: addr, Direction: i2c.Read, Data: c.lastAsync, DataSize: len(c.lastAsync)}
	if err := c.report("async start", c.master.TransferNonBlocking(&x)); err != nil {
		return err
	}
	c.drv.IRQ(c.base)
	return nil
}

func (c *console) onComplete(_ *i2c.MasterHandle, st i2c.Status, _ any) {
	c.printf("async complete: %s", st)
	if st == i2c.StatusSuccess {
		c.printf(" % x", c.lastAsync)
	}
	c.printf("\n")
}

func (c *console) abort(_ []string) error {
	c.printf("abort: %s\n", c.master.TransferAbort())
	return nil
}

func (c *console) count(_ []string) error {
	n, st := c.master.TransferGetCount()
	c.printf("count: %d (%s)\n", n, st)
	return nil
}

var faults = map[string]lpci2c.Status{
	"nak":         lpci2c.StatusNak,
	"busy":        lpci2c.StatusBusy,
	"timeout":     lpci2c.StatusTimeout,
	"arbitration": lpci2c.StatusArbitrationLost,
	"bit":         lpci2c.StatusBitError,
}

func (c *console) fault(args []string) error {
	if len(args) != 1 {
		return errcode.InvalidParams
	}
	st, ok := faults[args[0]]
	if !ok {
		return &errcode.E{C: errcode.InvalidParams, Op: "fault", Msg: args[0]}
	}
	c.drv.InjectFault(c.base, st)
	c.printf("next transaction fails with %s\n", st)
	return nil
}

func (c *console) readSensor(_ []string) error {
	if err := c.sensor.Read(); err != nil {
		return &errcode.E{C: errcode.Of(err), Op: "aht20", Err: err}
	}
	t, h := c.sensor.DeciCelsius(), c.sensor.DeciRelHumidity()
	c.printf("aht20: %d.%d C  %d.%d %%RH\n", t/10, abs(t%10), h/10, abs(h%10))
	return nil
}

func (c *console) slaveCmd(args []string) error {
	switch len(args) {
	case 0:
		n, st := c.slave.TransferGetCount()
		c.printf("slave 0x%02x: last transfer %d bytes (%s), reg=%d\n", slaveAddr, n, st, c.regAt)
		c.printf("regs: % x\n", c.regs[:])
		return nil
	case 2:
		v, err := parseBytes(args)
		if err != nil {
			return err
		}
		c.regs[int(v[0])%len(c.regs)] = v[1]
		return nil
	default:
		return errcode.InvalidParams
	}
}

// onSlaveEvent serves the register file: a one-byte write selects the
// register, reads stream from it.
func (c *console) onSlaveEvent(_ *i2c.SlaveHandle, x *i2c.SlaveTransfer, _ any) {
	switch x.Event {
	case i2c.SlaveReceiveEvent:
		if x.TransferredCount == 0 {
			x.Frame = i2c.RxFrame{Data: c.reg[:], Size: len(c.reg)}
		}
	case i2c.SlaveTransmitEvent:
		x.Frame = i2c.TxFrame{Data: c.regs[c.regAt:], Size: len(c.regs) - c.regAt}
		c.regAt = 0
	case i2c.SlaveCompletionEvent:
		if x.TransferredCount == 1 && x.CompletionStatus == i2c.StatusSuccess {
			c.regAt = int(c.reg[0]) % len(c.regs)
		}
	}
	c.log.Debug("slave event",
		zap.Uint32("event", uint32(x.Event)),
		zap.Int("transferred", x.TransferredCount),
		zap.Stringer("status", x.CompletionStatus))
}

func (c *console) report(op string, st i2c.Status) error {
	if err := errcode.Wrap(op, errcode.Of(st.Err())); err != nil {
		return err
	}
	c.printf("%s: ok\n", op)
	return nil
}

func parseAddr(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 7)
	if err != nil {
		return 0, &errcode.E{C: errcode.InvalidParams, Op: "address", Msg: s, Err: err}
	}
	return uint16(v), nil
}

func parseBytes(args []string) ([]byte, error) {
	out := make([]byte, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseUint(a, 0, 8)
		if err != nil {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "byte", Msg: a, Err: err}
		}
		out = append(out, byte(v))
	}
	return out, nil
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
