package sim

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"lpc845-go/drivers/lpci2c"
)

const b0, b1 = lpci2c.I2C0Base, lpci2c.I2C1Base

func newMaster(t *testing.T) *Driver {
	t.Helper()
	d := New()
	cfg := lpci2c.DefaultMasterConfig()
	d.MasterInit(b0, &cfg, 12_000_000)
	return d
}

func TestMasterInitRecordsConfig(t *testing.T) {
	d := newMaster(t)
	p := d.Peripheral(b0)
	if !p.MasterOn || p.Master.BaudRateBps != 100000 || p.SrcClockHz != 12_000_000 || p.Inits != 1 {
		t.Fatalf("unexpected peripheral state: %+v", p)
	}
	d.MasterDeinit(b0)
	if d.Peripheral(b0).MasterOn {
		t.Fatal("master still on after deinit")
	}
}

func TestTransferBlockingWithSubaddress(t *testing.T) {
	d := newMaster(t)
	mem := NewMemory(256, 1)
	d.Attach(b0, 0x50, mem)

	w := lpci2c.MasterTransfer{
		SlaveAddress: 0x50, Direction: lpci2c.Write,
		Subaddress: 0x10, SubaddressSize: 1,
		Data: []byte{1, 2, 3}, DataSize: 3,
	}
	if st := d.MasterTransferBlocking(b0, &w); st != lpci2c.StatusSuccess {
		t.Fatalf("write: %v", st)
	}
	if !bytes.Equal(mem.Mem[0x10:0x13], []byte{1, 2, 3}) {
		t.Fatalf("memory not written: % x", mem.Mem[0x10:0x13])
	}

	buf := make([]byte, 3)
	r := lpci2c.MasterTransfer{
		SlaveAddress: 0x50, Direction: lpci2c.Read,
		Subaddress: 0x10, SubaddressSize: 1,
		Data: buf, DataSize: 3,
	}
	if st := d.MasterTransferBlocking(b0, &r); st != lpci2c.StatusSuccess {
		t.Fatalf("read: %v", st)
	}
	if diff := cmp.Diff([]byte{1, 2, 3}, buf); diff != "" {
		t.Fatalf("read mismatch (-want +got):\n%s", diff)
	}
}

func TestTransferErrors(t *testing.T) {
	d := newMaster(t)
	x := lpci2c.MasterTransfer{SlaveAddress: 0x11, Data: []byte{0}, DataSize: 1}
	if st := d.MasterTransferBlocking(b0, &x); st != lpci2c.StatusNak {
		t.Fatalf("absent address: got %v, want nak", st)
	}

	d.Attach(b0, 0x11, NewMemory(4, 0))
	bad := lpci2c.MasterTransfer{SlaveAddress: 0x11, Data: []byte{0}, DataSize: 2}
	if st := d.MasterTransferBlocking(b0, &bad); st != lpci2c.StatusInvalidArgument {
		t.Fatalf("oversized DataSize: got %v", st)
	}

	d.InjectFault(b0, lpci2c.StatusArbitrationLost)
	if st := d.MasterTransferBlocking(b0, &x); st != lpci2c.StatusArbitrationLost {
		t.Fatalf("fault: got %v", st)
	}
	if st := d.MasterTransferBlocking(b0, &x); st != lpci2c.StatusSuccess {
		t.Fatalf("fault must be one-shot, got %v", st)
	}

	d.MasterDeinit(b0)
	if st := d.MasterTransferBlocking(b0, &x); st != lpci2c.StatusUnexpectedState {
		t.Fatalf("disabled master: got %v", st)
	}
}

func TestRawBlockingNeedsStart(t *testing.T) {
	d := newMaster(t)
	mem := NewMemory(8, 1)
	d.Attach(b0, 0x20, mem)

	if st := d.MasterWriteBlocking(b0, []byte{0}, lpci2c.FlagDefault); st != lpci2c.StatusUnexpectedState {
		t.Fatalf("write without start: %v", st)
	}
	if st := d.MasterStart(b0, 0x20, lpci2c.Write); st != lpci2c.StatusSuccess {
		t.Fatalf("start: %v", st)
	}
	if st := d.MasterWriteBlocking(b0, []byte{2, 0xAA}, lpci2c.FlagDefault); st != lpci2c.StatusSuccess {
		t.Fatalf("write: %v", st)
	}
	if mem.Mem[2] != 0xAA {
		t.Fatalf("mem[2]=%#x", mem.Mem[2])
	}
	// The stop released the bus.
	if st := d.MasterWriteBlocking(b0, []byte{0}, lpci2c.FlagDefault); st != lpci2c.StatusUnexpectedState {
		t.Fatalf("write after stop: %v", st)
	}
	if st := d.MasterStart(b0, 0x21, lpci2c.Read); st != lpci2c.StatusNak {
		t.Fatalf("start on empty address: %v", st)
	}
}

func TestNonBlockingCompletesOnIRQ(t *testing.T) {
	d := newMaster(t)
	d.Attach(b0, 0x30, NewMemory(16, 1))

	var h lpci2c.MasterHandle
	calls := 0
	var got lpci2c.Status
	d.MasterTransferCreateHandle(b0, &h, func(_ lpci2c.Base, _ *lpci2c.MasterHandle, st lpci2c.Status) {
		calls++
		got = st
	})

	x := lpci2c.MasterTransfer{SlaveAddress: 0x30, Data: []byte{0, 9, 9}, DataSize: 3}
	if st := d.MasterTransferNonBlocking(b0, &h, &x); st != lpci2c.StatusSuccess {
		t.Fatalf("start: %v", st)
	}
	if st := d.MasterTransferNonBlocking(b0, &h, &x); st != lpci2c.StatusBusy {
		t.Fatalf("second start: got %v, want busy", st)
	}
	var n int
	if st := d.MasterTransferGetCount(b0, &h, &n); st != lpci2c.StatusSuccess || n != 0 {
		t.Fatalf("count in flight: %v %d", st, n)
	}
	if !d.IRQ(b0) {
		t.Fatal("IRQ found nothing pending")
	}
	if calls != 1 || got != lpci2c.StatusSuccess {
		t.Fatalf("callback calls=%d status=%v", calls, got)
	}
	if d.IRQ(b0) {
		t.Fatal("second IRQ must be idle")
	}
	if st := d.MasterTransferGetCount(b0, &h, &n); st != lpci2c.StatusNoTransferInProgress {
		t.Fatalf("count when idle: %v", st)
	}
}

func TestAbortDropsPendingTransfer(t *testing.T) {
	d := newMaster(t)
	d.Attach(b0, 0x30, NewMemory(16, 1))
	var h lpci2c.MasterHandle
	called := false
	d.MasterTransferCreateHandle(b0, &h, func(lpci2c.Base, *lpci2c.MasterHandle, lpci2c.Status) { called = true })

	x := lpci2c.MasterTransfer{SlaveAddress: 0x30, Data: []byte{0}, DataSize: 1}
	_ = d.MasterTransferNonBlocking(b0, &h, &x)
	if st := d.MasterTransferAbort(b0, &h); st != lpci2c.StatusSuccess {
		t.Fatalf("abort: %v", st)
	}
	if d.IRQ(b0) || called {
		t.Fatal("aborted transfer must not complete")
	}
	if st := d.MasterTransferAbort(b0, &h); st != lpci2c.StatusSuccess {
		t.Fatalf("abort when idle: %v", st)
	}
}

func TestControllerWriteChunksThroughSlaveCallback(t *testing.T) {
	d := New()
	scfg := lpci2c.DefaultSlaveConfig()
	scfg.Address0.Address = 0x42
	d.SlaveInit(b1, &scfg, 12_000_000)

	first, second := make([]byte, 2), make([]byte, 4)
	var events []lpci2c.SlaveEvent
	var h lpci2c.SlaveHandle
	d.SlaveTransferCreateHandle(b1, &h, func(_ lpci2c.Base, x *lpci2c.SlaveTransfer) {
		events = append(events, x.Event)
		if x.Event != lpci2c.SlaveReceiveEvent {
			return
		}
		if x.TransferredCount == 0 {
			x.RxData, x.RxSize = first, len(first)
		} else {
			x.RxData, x.RxSize = second, len(second)
		}
	})
	if st := d.SlaveTransferNonBlocking(b1, &h, lpci2c.SlaveAllEvents); st != lpci2c.StatusSuccess {
		t.Fatalf("arm: %v", st)
	}

	n, st := d.ControllerWrite(b1, []byte{1, 2, 3, 4, 5})
	if st != lpci2c.StatusSuccess || n != 5 {
		t.Fatalf("controller write: n=%d st=%v", n, st)
	}
	if !bytes.Equal(first, []byte{1, 2}) || !bytes.Equal(second[:3], []byte{3, 4, 5}) {
		t.Fatalf("buffers: % x / % x", first, second)
	}
	want := []lpci2c.SlaveEvent{
		lpci2c.SlaveAddressMatchEvent,
		lpci2c.SlaveReceiveEvent,
		lpci2c.SlaveReceiveEvent,
		lpci2c.SlaveCompletionEvent,
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}
	var cnt int
	if st := d.SlaveTransferGetCount(b1, &h, &cnt); st != lpci2c.StatusSuccess || cnt != 5 {
		t.Fatalf("count: %v %d", st, cnt)
	}
}

func TestControllerWriteNaksWithoutBuffer(t *testing.T) {
	d := New()
	scfg := lpci2c.DefaultSlaveConfig()
	d.SlaveInit(b1, &scfg, 0)
	var h lpci2c.SlaveHandle
	d.SlaveTransferCreateHandle(b1, &h, func(lpci2c.Base, *lpci2c.SlaveTransfer) {})
	_ = d.SlaveTransferNonBlocking(b1, &h, lpci2c.SlaveReceiveEvent)

	n, st := d.ControllerWrite(b1, []byte{1})
	if n != 0 || st != lpci2c.StatusNak {
		t.Fatalf("got n=%d st=%v", n, st)
	}
	if h.Transfer.CompletionStatus != lpci2c.StatusNak {
		t.Fatalf("completion status %v", h.Transfer.CompletionStatus)
	}
}

func TestControllerReadPadsAndMasksEvents(t *testing.T) {
	d := New()
	scfg := lpci2c.DefaultSlaveConfig()
	scfg.Address0.Address = 0x42
	d.SlaveInit(b1, &scfg, 0)

	var seen []lpci2c.SlaveEvent
	var h lpci2c.SlaveHandle
	d.SlaveTransferCreateHandle(b1, &h, func(_ lpci2c.Base, x *lpci2c.SlaveTransfer) {
		seen = append(seen, x.Event)
		if x.Event == lpci2c.SlaveTransmitEvent && x.TransferredCount == 0 {
			x.TxData, x.TxSize = []byte{0xDE, 0xAD}, 2
		}
	})
	// Address match is masked out; completion is always delivered.
	_ = d.SlaveTransferNonBlocking(b1, &h, lpci2c.SlaveTransmitEvent)

	p := make([]byte, 4)
	n, st := d.ControllerRead(b1, p)
	if st != lpci2c.StatusSuccess || n != 2 {
		t.Fatalf("n=%d st=%v", n, st)
	}
	if diff := cmp.Diff([]byte{0xDE, 0xAD, 0xFF, 0xFF}, p); diff != "" {
		t.Fatalf("data (-want +got):\n%s", diff)
	}
	want := []lpci2c.SlaveEvent{lpci2c.SlaveTransmitEvent, lpci2c.SlaveTransmitEvent, lpci2c.SlaveCompletionEvent}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}

	if st := d.SlaveTransferAbort(b1, &h); st != lpci2c.StatusSuccess {
		t.Fatalf("abort: %v", st)
	}
	if st := d.SlaveTransferAbort(b1, &h); st != lpci2c.StatusNoTransferInProgress {
		t.Fatalf("abort when idle: %v", st)
	}
}

func TestBlockingSlaveQueues(t *testing.T) {
	d := New()
	scfg := lpci2c.DefaultSlaveConfig()
	d.SlaveInit(b1, &scfg, 0)

	rx := make([]byte, 3)
	if st := d.SlaveReadBlocking(b1, rx); st != lpci2c.StatusTimeout {
		t.Fatalf("read with empty inbox: %v", st)
	}
	_, _ = d.ControllerWrite(b1, []byte{7, 8, 9})
	if st := d.SlaveReadBlocking(b1, rx); st != lpci2c.StatusSuccess || !bytes.Equal(rx, []byte{7, 8, 9}) {
		t.Fatalf("read: %v % x", st, rx)
	}

	if st := d.SlaveWriteBlocking(b1, []byte{0x55}); st != lpci2c.StatusSuccess {
		t.Fatalf("write: %v", st)
	}
	p := make([]byte, 2)
	if n, _ := d.ControllerRead(b1, p); n != 1 || p[0] != 0x55 || p[1] != 0xFF {
		t.Fatalf("controller read: n=%d % x", n, p)
	}
}

func TestMasterReachesSlavePeripheral(t *testing.T) {
	d := newMaster(t)
	scfg := lpci2c.DefaultSlaveConfig()
	scfg.Address0.Address = 0x42
	d.SlaveInit(b1, &scfg, 0)
	d.Attach(b0, 0x50, NewMemory(4, 1))

	if diff := cmp.Diff([]uint16{0x42, 0x50}, d.Targets(b0)); diff != "" {
		t.Fatalf("targets (-want +got):\n%s", diff)
	}

	x := lpci2c.MasterTransfer{SlaveAddress: 0x42, Data: []byte{1, 2}, DataSize: 2}
	if st := d.MasterTransferBlocking(b0, &x); st != lpci2c.StatusSuccess {
		t.Fatalf("write to slave: %v", st)
	}
	rx := make([]byte, 2)
	if st := d.SlaveReadBlocking(b1, rx); st != lpci2c.StatusSuccess || !bytes.Equal(rx, []byte{1, 2}) {
		t.Fatalf("slave read: %v % x", st, rx)
	}
}

func TestAHT20Target(t *testing.T) {
	a := NewAHT20()
	now := time.Unix(100, 0)
	a.now = func() time.Time { return now }

	st := make([]byte, 1)
	_ = a.Write([]byte{aht20CmdStatus})
	_ = a.Read(st)
	if st[0] != aht20StatusIdle || st[0]&aht20StatusCalibrated == 0 {
		t.Fatalf("status %#x", st[0])
	}

	_ = a.Write([]byte{aht20CmdTrigger, 0x33, 0x00})
	frame := make([]byte, 7)
	_ = a.Read(frame)
	if frame[0]&aht20StatusBusy == 0 {
		t.Fatal("expected busy right after trigger")
	}

	now = now.Add(a.Conversion)
	a.SetReading(250, 550)
	_ = a.Read(frame)
	if frame[0]&aht20StatusBusy != 0 {
		t.Fatal("still busy after conversion time")
	}
	h := uint32(frame[1])<<12 | uint32(frame[2])<<4 | uint32(frame[3])>>4
	tr := (uint32(frame[3])&0xF)<<16 | uint32(frame[4])<<8 | uint32(frame[5])
	if dc := int32(tr)*2000/0x100000 - 500; dc != 250 {
		t.Fatalf("temperature %d deci-C", dc)
	}
	if drh := int32(int64(h) * 1000 / 0x100000); drh != 549 && drh != 550 {
		t.Fatalf("humidity %d deci-%%", drh)
	}
}
