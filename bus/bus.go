/*
 * kek - UNIBUS: I/O page decode, odd-address and timeout traps
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package bus is the single front door the CPU uses to touch memory,
// the MMU, and every device: it decodes the 16-bit virtual address
// space, routing the top of it (the I/O page) to register windows and
// everything below it through MMU translation to physical memory.
package bus

import (
	"log/slog"

	"github.com/kek11/kek/device"
	"github.com/kek11/kek/interrupt"
	"github.com/kek11/kek/memory"
	"github.com/kek11/kek/mmu"
	"github.com/kek11/kek/octal"
)

// ioPageStart is the lowest virtual address routed to the I/O page
// rather than through MMU translation.
const ioPageStart = 0o160000

// CPUHost is the narrow view of CPU register state the bus needs to
// serve the general-register aliases, PSW and stack-limit register
// windows of the I/O page. cpu.CPU implements this; bus never imports
// cpu (cpu imports bus), so the dependency runs one way only, the same
// pattern as device.Interrupter.
type CPUHost interface {
	Mode() mmu.Mode
	GPR(n int) uint16
	SetGPR(n int, value uint16)
	SP(mode mmu.Mode) uint16
	SetSP(mode mmu.Mode, value uint16)
	PSW() uint16
	SetPSW(value uint16)
	StackLimit() uint16
	SetStackLimit(value uint16)
}

// Trap is returned by Read/Write when the access must take a CPU trap.
// Cause is a short machine-readable tag; Vector is the trap vector.
type Trap struct {
	Cause  string
	Vector uint16
}

func (t *Trap) Error() string { return "bus: " + t.Cause }

const (
	vectorBusError uint16 = 0o004 // odd address, non-existent memory, bus timeout
)

// errorRegister bit assignments, CPU error register at 0o177766.
const (
	errRedZone    uint8 = 1 << 7
	errYellowZone uint8 = 1 << 6
	errTimeout    uint8 = 1 << 5
	errNonExist   uint8 = 1 << 4
	errOddAddr    uint8 = 1 << 2
)

type deviceSlot struct {
	dev  device.Device
	base uint32
	size uint32
}

// Bus wires physical memory, the MMU, the interrupt queue, a CPU
// register host and the registered device table into one address
// space.
type Bus struct {
	mem  *memory.Memory
	mmu  *mmu.MMU
	irq  *interrupt.Queue
	host CPUHost
	log  *slog.Logger

	devices []deviceSlot

	errReg   uint8
	switches uint16
	display  uint16
}

// New returns a Bus over mem/mmu/irq, driven by host for the
// register-alias windows of the I/O page.
func New(mem *memory.Memory, m *mmu.MMU, irq *interrupt.Queue, host CPUHost, log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{mem: mem, mmu: m, irq: irq, host: host, log: log}
}

// Attach registers dev's register window on the bus. Overlapping
// windows are a configuration error the caller is expected to avoid;
// Attach does not validate it.
func (b *Bus) Attach(dev device.Device) {
	base, size := dev.Base()
	b.devices = append(b.devices, deviceSlot{dev: dev, base: base, size: size})
}

// Reset pulses RESET across every attached device and clears the CPU
// error register and the display register; the switch register keeps
// its value. Memory and the MMU reset
// independently; the CPU loop calls their Reset directly.
func (b *Bus) Reset() {
	for _, d := range b.devices {
		d.dev.Reset()
	}
	b.errReg = 0
	b.display = 0
}

// Switches/SetSwitches expose the front-panel switch register to a
// console collaborator; Display/SetDisplay the data-display lights.
func (b *Bus) Switches() uint16           { return b.switches }
func (b *Bus) SetSwitches(value uint16)   { b.switches = value }
func (b *Bus) Display() uint16            { return b.display }
func (b *Bus) SetDisplay(value uint16)    { b.display = value }
func (b *Bus) CPUErrorRegister() uint8    { return b.errReg }

// latchError ORs flag into the CPU error register; it is cleared by
// reading it back (clearErrorRegister) or by RESET.
func (b *Bus) latchError(flag uint8) {
	b.errReg |= flag
}

// clearErrorRegister implements the read-clears semantics of
// 0o177766.
func (b *Bus) clearErrorRegister() uint8 {
	v := b.errReg
	b.errReg = 0
	return v
}

// Read fetches a word or byte from va. usePrevMode selects the
// previous-mode PSW bits for translation (MFPI/MFPD/MTPI/MTPD); space
// selects I or D. peek suppresses every trap, MMU latch and the CPU
// error register (used by the debugger).
func (b *Bus) Read(va uint16, wordMode bool, usePrevMode bool, peek bool, space mmu.Space) (uint16, error) {
	if va >= ioPageStart {
		return b.readIOPage(va, wordMode, peek)
	}

	if wordMode && va&1 != 0 {
		if !peek {
			b.latchError(errOddAddr)
			b.log.Debug("odd address trap", "va", octal.Word(va))
		}
		return 0, &Trap{Cause: "odd address", Vector: vectorBusError}
	}

	mode := b.translateMode(usePrevMode)
	phys, abort := b.mmu.Translate(mode, va, space == mmu.SpaceD, false, peek)
	if abort != nil {
		return 0, &Trap{Cause: abort.Error(), Vector: abort.Vector}
	}
	if phys >= b.mem.Size() {
		if !peek {
			b.latchError(errNonExist)
			b.log.Debug("non-existent memory read", "va", octal.Word(va), "phys", octal.Phys(phys))
		}
		return 0, &Trap{Cause: "non-existent memory", Vector: vectorBusError}
	}
	if wordMode {
		return b.mem.ReadWord(phys), nil
	}
	return uint16(b.mem.ReadByte(phys)), nil
}

// Write stores a word or byte at va, following the same decode rules
// as Read.
func (b *Bus) Write(va uint16, wordMode bool, value uint16, usePrevMode bool, space mmu.Space) error {
	if va >= ioPageStart {
		return b.writeIOPage(va, wordMode, value)
	}

	if wordMode && va&1 != 0 {
		b.latchError(errOddAddr)
		b.log.Debug("odd address trap", "va", octal.Word(va))
		return &Trap{Cause: "odd address", Vector: vectorBusError}
	}

	mode := b.translateMode(usePrevMode)
	phys, abort := b.mmu.Translate(mode, va, space == mmu.SpaceD, true, false)
	if abort != nil {
		return &Trap{Cause: abort.Error(), Vector: abort.Vector}
	}
	if phys >= b.mem.Size() {
		b.latchError(errNonExist)
		b.log.Debug("non-existent memory write", "va", octal.Word(va), "phys", octal.Phys(phys))
		return &Trap{Cause: "non-existent memory", Vector: vectorBusError}
	}
	if wordMode {
		b.mem.WriteWord(phys, value)
	} else {
		b.mem.WriteByte(phys, byte(value))
	}
	return nil
}

func (b *Bus) translateMode(usePrevMode bool) mmu.Mode {
	psw := b.host.PSW()
	if usePrevMode {
		return mmu.Mode((psw >> 12) & 0x3)
	}
	return mmu.Mode((psw >> 14) & 0x3)
}

// ReadVector fetches a trap/interrupt vector word using kernel-mode
// translation regardless of the CPU's current mode -- vector fetches
// are always kernel-space accesses (spec §4.5 step 5), so they must
// not be translated through whatever user/supervisor page table
// happens to be current when the trap is taken.
func (b *Bus) ReadVector(va uint16) (uint16, error) {
	phys, abort := b.mmu.Translate(mmu.Kernel, va, false, false, false)
	if abort != nil {
		return 0, &Trap{Cause: abort.Error(), Vector: abort.Vector}
	}
	if phys >= b.mem.Size() {
		b.latchError(errNonExist)
		b.log.Debug("non-existent memory read", "va", octal.Word(va), "phys", octal.Phys(phys))
		return 0, &Trap{Cause: "non-existent memory", Vector: vectorBusError}
	}
	return b.mem.ReadWord(phys), nil
}

// ReadWordPhysical and WriteWordPhysical give DMA-capable devices
// (RK05, RL02) direct access to physical memory by UNIBUS address,
// bypassing MMU translation -- real UNIBUS DMA addresses physical
// memory directly, never through the CPU's page tables. Out-of-range
// addresses are silently ignored, matching a real controller wrapping
// or stalling rather than trapping the CPU.
func (b *Bus) ReadWordPhysical(addr uint32) uint16 {
	if addr+1 >= b.mem.Size() {
		return 0
	}
	return b.mem.ReadWord(addr)
}

func (b *Bus) WriteWordPhysical(addr uint32, value uint16) {
	if addr+1 >= b.mem.Size() {
		return
	}
	b.mem.WriteWord(addr, value)
}
