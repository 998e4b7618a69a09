/*
 * kek - CPU: registers, PSW, fetch-decode-execute loop
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

// Package cpu implements the PDP-11/70 instruction interpreter: the
// register file, PSW, addressing-mode resolution, the opcode decode
// tree and trap/interrupt dispatch. It is the only package that
// imports both bus and mmu directly; devices never see it (they talk
// to device.Interrupter instead), which is how the module avoids an
// import cycle.
package cpu

import (
	"log/slog"

	"github.com/kek11/kek/bus"
	"github.com/kek11/kek/interrupt"
	"github.com/kek11/kek/mmu"
	"github.com/kek11/kek/octal"
)

// PSW bit layout.
const (
	pswC uint16 = 1 << 0
	pswV uint16 = 1 << 1
	pswZ uint16 = 1 << 2
	pswN uint16 = 1 << 3
	pswT uint16 = 1 << 4
	pswSPLShift        = 5
	pswSPLMask  uint16 = 0x7 << pswSPLShift
	pswPrevModeShift    = 12
	pswModeShift        = 14
	pswModeMask  uint16 = 0x3 << pswModeShift
)

// Trap vectors not owned by the MMU or bus packages.
const (
	VectorReservedInstruction uint16 = 0o010
	VectorBPT                 uint16 = 0o014
	VectorIOT                 uint16 = 0o020
	VectorEMT                 uint16 = 0o030
	VectorTRAP                uint16 = 0o034
	vectorStackLimit          uint16 = 0o004
)

// defaultYellowStackLimit is the power-up stack-limit register value;
// the decision to treat 0o400 as the documented yellow threshold (and
// 0xfffe, wraparound, as red) is recorded in DESIGN.md.
const defaultYellowStackLimit = 0o400

// trapSignal is raised by instruction execution to unwind to Step's
// trap dispatch. It is never passed across a package boundary.
type trapSignal struct {
	vector uint16
}

func (t *trapSignal) Error() string { return "cpu: trap" }

// CPU holds the full register file (shared R0-R5, one SP per mode, PC)
// plus the PSW, and drives the bus/MMU/interrupt queue.
type CPU struct {
	reg [6]uint16 // R0-R5
	sp  [4]uint16 // indexed by mmu.Mode; Illegal unused
	pc  uint16
	psw uint16

	stackLimit uint16
	fps        uint16 // FPP status word stub; FPP is always "absent"

	bus *bus.Bus
	mmu *mmu.MMU
	irq *interrupt.Queue
	log *slog.Logger

	// Terminate is checked at every instruction boundary; set it to
	// stop Step from fetching further instructions.
	Terminate bool
	// Halted is true after HALT in kernel mode, until Continue clears it.
	Halted bool
}

// New returns a CPU wired to mmu/irq. The bus is attached separately
// via AttachBus, since bus.New needs the CPU itself as its CPUHost --
// main (see cmd/kek) constructs CPU first, then Bus, then calls
// AttachBus to close the loop.
func New(m *mmu.MMU, irq *interrupt.Queue, log *slog.Logger) *CPU {
	if log == nil {
		log = slog.Default()
	}
	return &CPU{mmu: m, irq: irq, log: log, stackLimit: defaultYellowStackLimit}
}

// AttachBus completes construction; Step panics if called before this.
func (c *CPU) AttachBus(b *bus.Bus) { c.bus = b }

// Reset implements power-up/RESET register state: PC, PSW, SPs zeroed
// except the stack-limit register returns to its default.
func (c *CPU) Reset() {
	c.reg = [6]uint16{}
	c.sp = [4]uint16{}
	c.pc = 0
	c.psw = 0
	c.stackLimit = defaultYellowStackLimit
	c.fps = 0
	c.Halted = false
}

// bus.CPUHost implementation -------------------------------------------------

func (c *CPU) Mode() mmu.Mode { return mmu.Mode((c.psw & pswModeMask) >> pswModeShift) }
func (c *CPU) PrevMode() mmu.Mode {
	return mmu.Mode((c.psw >> pswPrevModeShift) & 0x3)
}
func (c *CPU) GPR(n int) uint16 {
	if n == 7 {
		return c.pc
	}
	return c.reg[n]
}
func (c *CPU) SetGPR(n int, v uint16) {
	if n == 7 {
		c.pc = v
		return
	}
	c.reg[n] = v
}
func (c *CPU) SP(mode mmu.Mode) uint16        { return c.sp[mode] }
func (c *CPU) SetSP(mode mmu.Mode, v uint16)  { c.sp[mode] = v }
func (c *CPU) PSW() uint16                    { return c.psw }
func (c *CPU) SetPSW(v uint16)                { c.psw = v }
func (c *CPU) StackLimit() uint16             { return c.stackLimit }
func (c *CPU) SetStackLimit(v uint16)         { c.stackLimit = v }

// register file helpers used by addressing-mode resolution ------------------

func (c *CPU) getReg(n int) uint16 {
	if n == 7 {
		return c.pc
	}
	if n == 6 {
		return c.sp[c.Mode()]
	}
	return c.reg[n]
}

func (c *CPU) setReg(n int, v uint16) {
	if n == 7 {
		c.pc = v
		return
	}
	if n == 6 {
		c.sp[c.Mode()] = v
		return
	}
	c.reg[n] = v
}

// condition code helpers -----------------------------------------------------

func (c *CPU) setCC(n, z, v, cc bool) {
	c.psw &^= pswN | pswZ | pswV | pswC
	if n {
		c.psw |= pswN
	}
	if z {
		c.psw |= pswZ
	}
	if v {
		c.psw |= pswV
	}
	if cc {
		c.psw |= pswC
	}
}

func (c *CPU) ccN() bool { return c.psw&pswN != 0 }
func (c *CPU) ccZ() bool { return c.psw&pswZ != 0 }
func (c *CPU) ccV() bool { return c.psw&pswV != 0 }
func (c *CPU) ccC() bool { return c.psw&pswC != 0 }

func (c *CPU) spl() int { return int((c.psw & pswSPLMask) >> pswSPLShift) }

func (c *CPU) setSPL(level int) {
	c.psw = (c.psw &^ pswSPLMask) | (uint16(level&0x7) << pswSPLShift)
}

// fetchWord reads the word at PC from instruction space and advances
// PC by 2.
func (c *CPU) fetchWord() (uint16, error) {
	v, err := c.bus.Read(c.pc, true, false, false, mmu.SpaceI)
	if err != nil {
		return 0, err
	}
	c.pc += 2
	return v, nil
}

// Step executes one instruction, or dispatches one pending interrupt,
// or does nothing if halted. It never panics: every trap condition is
// funneled into the trap-dispatch path before Step returns.
func (c *CPU) Step() {
	if c.Terminate || c.Halted {
		return
	}

	if level := c.irq.Highest(c.spl()); level > 0 {
		if vector, ok := c.irq.Dequeue(level); ok {
			c.dispatchTrap(vector, true)
			return
		}
	}

	c.mmu.ClearMMR1()
	c.mmu.SetMMR2(c.pc)

	instr, err := c.fetchWord()
	if err != nil {
		c.dispatchErr(err)
		return
	}

	if err := c.execute(instr); err != nil {
		c.dispatchErr(err)
		return
	}

	// RTT (0o000006) lets the instruction after it run before a trace
	// trap from the PSW it restored.
	if c.psw&pswT != 0 && instr != 0o000006 {
		c.dispatchTrap(VectorBPT, false) // T-bit trace trap fires after the instruction retires
	}
}

func (c *CPU) dispatchErr(err error) {
	switch e := err.(type) {
	case *bus.Trap:
		c.dispatchTrap(e.Vector, false)
	case *mmu.Abort:
		c.dispatchTrap(e.Vector, false)
	case *trapSignal:
		c.dispatchTrap(e.vector, false)
	default:
		c.dispatchTrap(0o004, false)
	}
}

// dispatchTrap pushes PSW then PC onto the new-mode stack (mode taken
// from the vector's PSW word) and loads PC/PSW from the two-word
// vector, per spec §4.5 step 5 / Interrupt dispatch.
func (c *CPU) dispatchTrap(vector uint16, isInterrupt bool) {
	c.log.Debug("trap dispatched", "vector", octal.Word(vector), "interrupt", isInterrupt, "pc", octal.Word(c.pc))
	newPC, err := c.bus.ReadVector(vector)
	if err != nil {
		c.Halted = true
		return
	}
	newPSW, err := c.bus.ReadVector(vector + 2)
	if err != nil {
		c.Halted = true
		return
	}

	savedPSW := c.psw
	newMode := mmu.Mode((newPSW & pswModeMask) >> pswModeShift)

	oldMode := c.Mode()
	c.psw = (c.psw &^ (0x3 << pswPrevModeShift)) | (uint16(oldMode) << pswPrevModeShift)
	c.psw = (c.psw &^ pswModeMask) | (uint16(newMode) << pswModeShift)

	newSP := c.sp[newMode]
	newSP -= 2
	_ = c.bus.Write(newSP, true, savedPSW, false, mmu.SpaceD)
	newSP -= 2
	_ = c.bus.Write(newSP, true, c.pc, false, mmu.SpaceD)
	c.sp[newMode] = newSP

	c.pc = newPC
	c.psw = newPSW
}

// checkStackLimit implements the documented KB11 yellow/red stack
// thresholds (spec §9 open question): in kernel mode a push to an
// address below the stack-limit register is a yellow violation, and
// any push whose new SP wraps past zero into 0xfff0-0xfffe is red.
// Both trap at once through vector 004: the push is not made and the
// instruction is abandoned; no yellow trap is deferred until after
// the instruction completes. Call after computing the new SP, before
// using it.
func (c *CPU) checkStackLimit(newSP uint16) error {
	if newSP <= 0xfffe && newSP >= 0xfff0 {
		return &trapSignal{vector: vectorStackLimit}
	}
	if c.Mode() == mmu.Kernel && newSP < c.stackLimit {
		return &trapSignal{vector: vectorStackLimit}
	}
	return nil
}

// push writes value onto the current mode's stack, pre-decrementing
// SP by 2.
func (c *CPU) push(value uint16) error {
	sp := c.getReg(6) - 2
	if err := c.checkStackLimit(sp); err != nil {
		return err
	}
	c.setReg(6, sp)
	return c.bus.Write(sp, true, value, false, mmu.SpaceD)
}

// pop reads a word from the current mode's stack, post-incrementing
// SP by 2.
func (c *CPU) pop() (uint16, error) {
	sp := c.getReg(6)
	v, err := c.bus.Read(sp, true, false, false, mmu.SpaceD)
	if err != nil {
		return 0, err
	}
	c.setReg(6, sp+2)
	return v, nil
}
