package bus

import (
	"testing"

	"github.com/kek11/kek/device"
	"github.com/kek11/kek/interrupt"
	"github.com/kek11/kek/memory"
	"github.com/kek11/kek/mmu"
)

type fakeHost struct {
	mode       mmu.Mode
	gpr        [8]uint16
	sp         [4]uint16
	psw        uint16
	stackLimit uint16
}

func (h *fakeHost) Mode() mmu.Mode                       { return h.mode }
func (h *fakeHost) GPR(n int) uint16                     { return h.gpr[n] }
func (h *fakeHost) SetGPR(n int, v uint16)               { h.gpr[n] = v }
func (h *fakeHost) SP(mode mmu.Mode) uint16              { return h.sp[mode] }
func (h *fakeHost) SetSP(mode mmu.Mode, v uint16)        { h.sp[mode] = v }
func (h *fakeHost) PSW() uint16                          { return h.psw }
func (h *fakeHost) SetPSW(v uint16)                      { h.psw = v }
func (h *fakeHost) StackLimit() uint16                   { return h.stackLimit }
func (h *fakeHost) SetStackLimit(v uint16)               { h.stackLimit = v }

type fakeDevice struct {
	regs [4]uint16
}

func (d *fakeDevice) ReadByte(off uint32) uint8 {
	w := d.regs[off/2]
	if off%2 == 1 {
		return uint8(w >> 8)
	}
	return uint8(w)
}
func (d *fakeDevice) ReadWord(off uint32) uint16 { return d.regs[off/2] }
func (d *fakeDevice) WriteByte(off uint32, v uint8) {
	if off%2 == 1 {
		d.regs[off/2] = (d.regs[off/2] & 0x00ff) | uint16(v)<<8
	} else {
		d.regs[off/2] = (d.regs[off/2] & 0xff00) | uint16(v)
	}
}
func (d *fakeDevice) WriteWord(off uint32, v uint16) { d.regs[off/2] = v }
func (d *fakeDevice) Reset()                         { d.regs = [4]uint16{} }
func (d *fakeDevice) Base() (uint32, uint32)         { return 0o177560, 8 }

func newTestBus() (*Bus, *fakeHost) {
	return newTestBusSize(1 << 16)
}

func newTestBusSize(size uint32) (*Bus, *fakeHost) {
	host := &fakeHost{}
	m := mmu.New(nil)
	b := New(memory.New(size), m, interrupt.New(), host, nil)
	return b, host
}

func TestReadWriteBelowIOPageMMUDisabled(t *testing.T) {
	b, _ := newTestBus()
	if err := b.Write(0o1000, true, 0o123456, false, mmu.SpaceD); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := b.Read(0o1000, true, false, false, mmu.SpaceD)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0o123456&0xffff {
		t.Fatalf("got %#o, want %#o", v, uint16(0o123456))
	}
}

func TestOddAddressWordTrap(t *testing.T) {
	b, _ := newTestBus()
	_, err := b.Read(0o1001, true, false, false, mmu.SpaceD)
	trap, ok := err.(*Trap)
	if !ok || trap.Vector != vectorBusError {
		t.Fatalf("expected odd-address bus trap, got %v", err)
	}
	if b.CPUErrorRegister()&errOddAddr == 0 {
		t.Fatalf("expected odd-address flag latched in CPU error register")
	}
}

func TestNonExistentMemoryTrap(t *testing.T) {
	b, _ := newTestBusSize(4096)
	_, err := b.Read(0o010000, true, false, false, mmu.SpaceD) // 4096 decimal, past phys size
	trap, ok := err.(*Trap)
	if !ok || trap.Vector != vectorBusError {
		t.Fatalf("expected non-existent-memory trap, got %v", err)
	}
	if b.CPUErrorRegister()&errNonExist == 0 {
		t.Fatalf("expected non-existent-memory flag latched")
	}
}

func TestRegisterAliasWindow(t *testing.T) {
	b, host := newTestBus()
	host.gpr[2] = 0o7777
	v, err := b.Read(addrRegs+2*2, true, false, false, mmu.SpaceD)
	if err != nil || v != 0o7777 {
		t.Fatalf("got %#o, %v, want 0o7777", v, err)
	}

	if err := b.Write(addrRegs+2*8, true, 0o1234, false, mmu.SpaceD); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.sp[mmu.Kernel] != 0o1234 {
		t.Fatalf("expected kernel SP write through alias window")
	}
}

func TestPSWAndStackLimitWindows(t *testing.T) {
	b, host := newTestBus()
	if err := b.Write(addrPSW, true, 0o140000, false, mmu.SpaceD); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.psw != 0o140000 {
		t.Fatalf("expected PSW set via alias")
	}
	v, _ := b.Read(addrPSW, true, false, false, mmu.SpaceD)
	if v != 0o140000 {
		t.Fatalf("got %#o", v)
	}

	if err := b.Write(addrStackLim, true, 0o1000, false, mmu.SpaceD); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.stackLimit != 0o1000 {
		t.Fatalf("expected stack limit set via alias")
	}
	v, _ = b.Read(addrStackLim, true, false, false, mmu.SpaceD)
	if v != 0o1000 {
		t.Fatalf("got %#o", v)
	}
}

func TestMMR0ReadWriteThroughIOPage(t *testing.T) {
	b, _ := newTestBus()
	if err := b.Write(addrMMR0, true, 1, false, mmu.SpaceD); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _ := b.Read(addrMMR0, true, false, false, mmu.SpaceD)
	if v&1 == 0 {
		t.Fatalf("expected MMR0 enable bit set, got %#o", v)
	}
}

func TestCPUErrorRegisterClearsOnRead(t *testing.T) {
	b, _ := newTestBus()
	b.latchError(errTimeout)
	v, _ := b.Read(addrCPUErr, false, false, false, mmu.SpaceD)
	if uint8(v) != errTimeout {
		t.Fatalf("got %#x, want %#x", v, errTimeout)
	}
	v2, _ := b.Read(addrCPUErr, false, false, false, mmu.SpaceD)
	if v2 != 0 {
		t.Fatalf("expected CPU error register to clear on read, got %#x", v2)
	}
}

func TestDeviceDispatchThroughIOPage(t *testing.T) {
	b, _ := newTestBus()
	var _ device.Device = (*fakeDevice)(nil)
	dev := &fakeDevice{}
	b.Attach(dev)

	if err := b.Write(0o177560, true, 0o200, false, mmu.SpaceD); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := b.Read(0o177560, true, false, false, mmu.SpaceD)
	if err != nil || v != 0o200 {
		t.Fatalf("got %#o, %v, want 0o200", v, err)
	}
}

func TestUnmappedIOAddressTimesOut(t *testing.T) {
	b, _ := newTestBus()
	_, err := b.Read(0o177500, true, false, false, mmu.SpaceD)
	trap, ok := err.(*Trap)
	if !ok || trap.Vector != vectorBusError {
		t.Fatalf("expected bus timeout, got %v", err)
	}
	if b.CPUErrorRegister()&errTimeout == 0 {
		t.Fatalf("expected timeout flag latched")
	}
}

func TestBusResetClearsDevicesAndErrorRegister(t *testing.T) {
	b, _ := newTestBus()
	dev := &fakeDevice{}
	dev.regs[0] = 0o777
	b.Attach(dev)
	b.latchError(errOddAddr)

	b.Reset()
	if b.CPUErrorRegister() != 0 {
		t.Fatalf("expected error register cleared on reset")
	}
	if dev.regs[0] != 0 {
		t.Fatalf("expected device reset to be called")
	}
}
