package i2c

import "lpc845-go/drivers/lpci2c"

// fakeDriver records calls and returns scripted statuses.
type fakeDriver struct {
	calls []string

	masterCfg   lpci2c.MasterConfig
	slaveCfg    lpci2c.SlaveConfig
	base        lpci2c.Base
	srcClock    uint32
	lastXfer    lpci2c.MasterTransfer
	lastMask    lpci2c.SlaveEvent
	lastBuf     []byte
	lastFlags   uint32
	masterCB    lpci2c.MasterCallback
	masterHW    *lpci2c.MasterHandle
	slaveCB     lpci2c.SlaveCallback
	slaveHW     *lpci2c.SlaveHandle
	count       int
	ret         lpci2c.Status // returned by every status-returning call
	abortStatus lpci2c.Status
}

var _ lpci2c.Driver = (*fakeDriver)(nil)

func (f *fakeDriver) rec(s string) { f.calls = append(f.calls, s) }

func (f *fakeDriver) MasterInit(base lpci2c.Base, cfg *lpci2c.MasterConfig, src uint32) {
	f.rec("MasterInit")
	f.base, f.masterCfg, f.srcClock = base, *cfg, src
}
func (f *fakeDriver) MasterDeinit(base lpci2c.Base) { f.rec("MasterDeinit"); f.base = base }
func (f *fakeDriver) MasterWriteBlocking(_ lpci2c.Base, tx []byte, flags uint32) lpci2c.Status {
	f.rec("MasterWriteBlocking")
	f.lastBuf, f.lastFlags = tx, flags
	return f.ret
}
func (f *fakeDriver) MasterReadBlocking(_ lpci2c.Base, rx []byte, flags uint32) lpci2c.Status {
	f.rec("MasterReadBlocking")
	f.lastBuf, f.lastFlags = rx, flags
	return f.ret
}
func (f *fakeDriver) MasterTransferBlocking(_ lpci2c.Base, x *lpci2c.MasterTransfer) lpci2c.Status {
	f.rec("MasterTransferBlocking")
	f.lastXfer = *x
	return f.ret
}
func (f *fakeDriver) MasterTransferCreateHandle(_ lpci2c.Base, h *lpci2c.MasterHandle, cb lpci2c.MasterCallback) {
	f.rec("MasterTransferCreateHandle")
	f.masterHW, f.masterCB = h, cb
}
func (f *fakeDriver) MasterTransferNonBlocking(_ lpci2c.Base, h *lpci2c.MasterHandle, x *lpci2c.MasterTransfer) lpci2c.Status {
	f.rec("MasterTransferNonBlocking")
	f.masterHW, f.lastXfer = h, *x
	return f.ret
}
func (f *fakeDriver) MasterTransferGetCount(_ lpci2c.Base, _ *lpci2c.MasterHandle, n *int) lpci2c.Status {
	f.rec("MasterTransferGetCount")
	*n = f.count
	return f.ret
}
func (f *fakeDriver) MasterTransferAbort(lpci2c.Base, *lpci2c.MasterHandle) lpci2c.Status {
	f.rec("MasterTransferAbort")
	return f.abortStatus
}

func (f *fakeDriver) SlaveInit(base lpci2c.Base, cfg *lpci2c.SlaveConfig, src uint32) lpci2c.Status {
	f.rec("SlaveInit")
	f.base, f.slaveCfg, f.srcClock = base, *cfg, src
	return f.ret
}
func (f *fakeDriver) SlaveDeinit(lpci2c.Base) { f.rec("SlaveDeinit") }
func (f *fakeDriver) SlaveWriteBlocking(_ lpci2c.Base, tx []byte) lpci2c.Status {
	f.rec("SlaveWriteBlocking")
	f.lastBuf = tx
	return f.ret
}
func (f *fakeDriver) SlaveReadBlocking(_ lpci2c.Base, rx []byte) lpci2c.Status {
	f.rec("SlaveReadBlocking")
	f.lastBuf = rx
	return f.ret
}
func (f *fakeDriver) SlaveTransferCreateHandle(_ lpci2c.Base, h *lpci2c.SlaveHandle, cb lpci2c.SlaveCallback) {
	f.rec("SlaveTransferCreateHandle")
	f.slaveHW, f.slaveCB = h, cb
}
func (f *fakeDriver) SlaveTransferNonBlocking(_ lpci2c.Base, _ *lpci2c.SlaveHandle, mask lpci2c.SlaveEvent) lpci2c.Status {
	f.rec("SlaveTransferNonBlocking")
	f.lastMask = mask
	return f.ret
}
func (f *fakeDriver) SlaveTransferGetCount(_ lpci2c.Base, _ *lpci2c.SlaveHandle, n *int) lpci2c.Status {
	f.rec("SlaveTransferGetCount")
	*n = f.count
	return f.ret
}
func (f *fakeDriver) SlaveTransferAbort(lpci2c.Base, *lpci2c.SlaveHandle) lpci2c.Status {
	f.rec("SlaveTransferAbort")
	return f.abortStatus
}
