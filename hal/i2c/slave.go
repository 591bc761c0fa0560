package i2c

import (
	"unsafe"

	"lpc845-go/drivers/lpci2c"
)

// SlaveHandleSize is the storage a caller should reserve for a slave handle.
const SlaveHandleSize = 384

// SlaveConfig configures a slave handle.
type SlaveConfig struct {
	EnableSlave  bool
	SlaveAddress uint8
	Instance     Instance
	SrcClockHz   uint32
}

// SlaveEvent is a bitmask of slave transfer events, bit-compatible with the driver.
type SlaveEvent uint32

const (
	SlaveAddressMatchEvent = SlaveEvent(lpci2c.SlaveAddressMatchEvent)
	SlaveTransmitEvent     = SlaveEvent(lpci2c.SlaveTransmitEvent)
	SlaveReceiveEvent      = SlaveEvent(lpci2c.SlaveReceiveEvent)
	SlaveCompletionEvent   = SlaveEvent(lpci2c.SlaveCompletionEvent)
	SlaveDeselectEvent     = SlaveEvent(lpci2c.SlaveDeselectEvent)
	SlaveAllEvents         = SlaveEvent(lpci2c.SlaveAllEvents)
)

// Frame is the buffer window of a slave event: TxFrame for transmit events,
// RxFrame for everything else.
type Frame interface {
	isFrame()
}

// TxFrame holds the bytes to send to the bus controller.
type TxFrame struct {
	Data []byte
	Size int
}

// RxFrame holds the space for bytes received from the bus controller.
type RxFrame struct {
	Data []byte
	Size int
}

func (TxFrame) isFrame() {}
func (RxFrame) isFrame() {}

// SlaveTransfer is the snapshot handed to a SlaveCallback. The callback may
// replace Frame to redirect the buffer for the next chunk. The replacement
// must be of the kind the event carried; a frame of the other kind is
// ignored and the live buffer is left as it was. A nil Frame clears it.
type SlaveTransfer struct {
	Event            SlaveEvent
	Frame            Frame
	CompletionStatus Status
	TransferredCount int
}

// SlaveCallback receives slave events. It runs in interrupt context and must
// not block.
type SlaveCallback func(h *SlaveHandle, xfer *SlaveTransfer, ctx any)

type slaveState struct {
	callback SlaveCallback
	ctx      any
	xfer     SlaveTransfer
	hw       lpci2c.SlaveHandle
	drv      lpci2c.Driver
	base     lpci2c.Base
	instance Instance
}

const slaveStateSize = unsafe.Sizeof(slaveState{})

// SlaveHandle is caller-allocated slave state. Use NewSlaveHandle.
type SlaveHandle struct {
	size uintptr
	st   slaveState
}

// NewSlaveHandle reserves a slave handle declaring size bytes of storage.
func NewSlaveHandle(size uintptr) *SlaveHandle {
	return &SlaveHandle{size: size}
}

// Instance reports the peripheral instance recorded at init.
func (h *SlaveHandle) Instance() Instance { return h.st.instance }

func (h *SlaveHandle) ready() bool { return h != nil && h.st.drv != nil }

// SlaveInit initialises the peripheral selected by cfg.Instance in slave mode,
// answering on cfg.SlaveAddress.
func (a *Adapter) SlaveInit(h *SlaveHandle, cfg SlaveConfig) Status {
	if h == nil || h.size < slaveStateSize {
		return StatusError
	}
	base, ok := cfg.Instance.base()
	if !ok || a.drv == nil {
		return StatusError
	}

	dc := lpci2c.DefaultSlaveConfig()
	dc.EnableSlave = cfg.EnableSlave
	dc.Address0.Address = cfg.SlaveAddress

	h.st = slaveState{drv: a.drv, base: base, instance: cfg.Instance}
	_ = a.drv.SlaveInit(base, &dc, cfg.SrcClockHz)
	return StatusSuccess
}

// Deinit shuts the peripheral down. It always reports success.
func (h *SlaveHandle) Deinit() Status {
	if h.ready() {
		h.st.drv.SlaveDeinit(h.st.base)
	}
	return StatusSuccess
}

// WriteBlocking sends tx to the bus controller and returns when done.
func (h *SlaveHandle) WriteBlocking(tx []byte) Status {
	if !h.ready() {
		return StatusError
	}
	return GetStatus(h.st.drv.SlaveWriteBlocking(h.st.base, tx))
}

// ReadBlocking fills rx from the bus controller and returns when done.
func (h *SlaveHandle) ReadBlocking(rx []byte) Status {
	if !h.ready() {
		return StatusError
	}
	return GetStatus(h.st.drv.SlaveReadBlocking(h.st.base, rx))
}

// InstallCallback registers cb and ctx for slave events and creates the
// driver transfer handle.
func (h *SlaveHandle) InstallCallback(cb SlaveCallback, ctx any) Status {
	if !h.ready() {
		return StatusError
	}
	h.st.callback = cb
	h.st.ctx = ctx
	h.st.drv.SlaveTransferCreateHandle(h.st.base, &h.st.hw, h.event)
	return StatusSuccess
}

// event is the driver-facing trampoline. It snapshots the live transfer,
// runs the callback, then writes the callback's frame back on the same
// transmit/receive branch.
func (h *SlaveHandle) event(_ lpci2c.Base, x *lpci2c.SlaveTransfer) {
	if h.st.callback == nil {
		return
	}
	tx := x.Event == lpci2c.SlaveTransmitEvent

	s := &h.st.xfer
	s.Event = SlaveEvent(x.Event)
	if tx {
		s.Frame = TxFrame{Data: x.TxData, Size: x.TxSize}
	} else {
		s.Frame = RxFrame{Data: x.RxData, Size: x.RxSize}
	}
	s.CompletionStatus = GetStatus(x.CompletionStatus)
	s.TransferredCount = x.TransferredCount

	h.st.callback(h, s, h.st.ctx)

	switch f := s.Frame.(type) {
	case nil:
		if tx {
			x.TxData, x.TxSize = nil, 0
		} else {
			x.RxData, x.RxSize = nil, 0
		}
	case TxFrame:
		if tx {
			x.TxData, x.TxSize = f.Data, f.Size
		}
	case RxFrame:
		if !tx {
			x.RxData, x.RxSize = f.Data, f.Size
		}
	}
}

// TransferNonBlocking arms the slave for the events in eventMask.
func (h *SlaveHandle) TransferNonBlocking(eventMask SlaveEvent) Status {
	if !h.ready() {
		return StatusError
	}
	return GetStatus(h.st.drv.SlaveTransferNonBlocking(h.st.base, &h.st.hw, lpci2c.SlaveEvent(eventMask)))
}

// TransferAbort disarms the slave. The driver's own result is not reported;
// the call always succeeds.
func (h *SlaveHandle) TransferAbort() Status {
	if h.ready() {
		_ = h.st.drv.SlaveTransferAbort(h.st.base, &h.st.hw)
	}
	return StatusSuccess
}

// TransferGetCount reports the bytes moved by the current slave transfer.
func (h *SlaveHandle) TransferGetCount() (int, Status) {
	if !h.ready() {
		return 0, StatusError
	}
	var n int
	st := GetStatus(h.st.drv.SlaveTransferGetCount(h.st.base, &h.st.hw, &n))
	return n, st
}
