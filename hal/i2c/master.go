package i2c

import (
	"unsafe"

	"lpc845-go/drivers/lpci2c"
)

// MasterHandleSize is the storage a caller should reserve for a master handle.
const MasterHandleSize = 256

// MasterConfig configures a master handle.
type MasterConfig struct {
	EnableMaster bool
	BaudRateBps  uint32
	Instance     Instance
	SrcClockHz   uint32
}

// MasterCallback receives the completion of a non-blocking master transfer.
// It runs in interrupt context and must not block.
type MasterCallback func(h *MasterHandle, status Status, ctx any)

type masterState struct {
	callback MasterCallback
	ctx      any
	hw       lpci2c.MasterHandle
	drv      lpci2c.Driver
	base     lpci2c.Base
	instance Instance
}

const masterStateSize = unsafe.Sizeof(masterState{})

// MasterHandle is caller-allocated master state. The zero value has no
// storage; use NewMasterHandle.
type MasterHandle struct {
	size uintptr
	st   masterState
}

// NewMasterHandle reserves a master handle declaring size bytes of storage.
func NewMasterHandle(size uintptr) *MasterHandle {
	return &MasterHandle{size: size}
}

// Instance reports the peripheral instance recorded at init.
func (h *MasterHandle) Instance() Instance { return h.st.instance }

func (h *MasterHandle) ready() bool { return h != nil && h.st.drv != nil }

// MasterInit initialises the peripheral selected by cfg.Instance in master
// mode and binds h to it.
func (a *Adapter) MasterInit(h *MasterHandle, cfg MasterConfig) Status {
	if h == nil || h.size < masterStateSize {
		return StatusError
	}
	base, ok := cfg.Instance.base()
	if !ok || a.drv == nil {
		return StatusError
	}

	dc := lpci2c.DefaultMasterConfig()
	dc.EnableMaster = cfg.EnableMaster
	dc.BaudRateBps = cfg.BaudRateBps

	h.st = masterState{drv: a.drv, base: base, instance: cfg.Instance}
	a.drv.MasterInit(base, &dc, cfg.SrcClockHz)
	return StatusSuccess
}

// Deinit shuts the peripheral down. It always reports success.
func (h *MasterHandle) Deinit() Status {
	if h.ready() {
		h.st.drv.MasterDeinit(h.st.base)
	}
	return StatusSuccess
}

// WriteBlocking writes tx on the bus and returns when done.
func (h *MasterHandle) WriteBlocking(tx []byte, flags uint32) Status {
	if !h.ready() {
		return StatusError
	}
	return GetStatus(h.st.drv.MasterWriteBlocking(h.st.base, tx, flags))
}

// ReadBlocking fills rx from the bus and returns when done.
func (h *MasterHandle) ReadBlocking(rx []byte, flags uint32) Status {
	if !h.ready() {
		return StatusError
	}
	return GetStatus(h.st.drv.MasterReadBlocking(h.st.base, rx, flags))
}

// TransferBlocking performs xfer and returns when done.
func (h *MasterHandle) TransferBlocking(xfer *Transfer) Status {
	if !h.ready() || xfer == nil {
		return StatusError
	}
	t := xfer.toDriver()
	return GetStatus(h.st.drv.MasterTransferBlocking(h.st.base, &t))
}

// InstallCallback registers cb and ctx for non-blocking completions and
// creates the driver transfer handle. It reports success on any initialised
// handle.
func (h *MasterHandle) InstallCallback(cb MasterCallback, ctx any) Status {
	if !h.ready() {
		return StatusError
	}
	h.st.callback = cb
	h.st.ctx = ctx
	h.st.drv.MasterTransferCreateHandle(h.st.base, &h.st.hw, h.complete)
	return StatusSuccess
}

// complete is the driver-facing trampoline.
func (h *MasterHandle) complete(_ lpci2c.Base, _ *lpci2c.MasterHandle, status lpci2c.Status) {
	if h.st.callback != nil {
		h.st.callback(h, GetStatus(status), h.st.ctx)
	}
}

// TransferNonBlocking starts xfer. Completion arrives through the installed
// callback.
func (h *MasterHandle) TransferNonBlocking(xfer *Transfer) Status {
	if !h.ready() || xfer == nil {
		return StatusError
	}
	t := xfer.toDriver()
	return GetStatus(h.st.drv.MasterTransferNonBlocking(h.st.base, &h.st.hw, &t))
}

// TransferGetCount reports the bytes moved by the current non-blocking transfer.
func (h *MasterHandle) TransferGetCount() (int, Status) {
	if !h.ready() {
		return 0, StatusError
	}
	var n int
	st := GetStatus(h.st.drv.MasterTransferGetCount(h.st.base, &h.st.hw, &n))
	return n, st
}

// TransferAbort stops the current non-blocking transfer.
func (h *MasterHandle) TransferAbort() Status {
	if !h.ready() {
		return StatusError
	}
	return GetStatus(h.st.drv.MasterTransferAbort(h.st.base, &h.st.hw))
}
