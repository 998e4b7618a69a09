/*
 * kek - Memory management unit: dual I/D space translation
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

// Package mmu implements the PDP-11/70 memory management unit: the
// 4x2x8 page table (run mode x space x page), the MMR0-MMR3 registers,
// and virtual-to-physical translation with access and length checks.
//
// Mode 2 (illegal) exists only to give the page-table array a regular
// shape; while translation is enabled, Translate aborts every non-peek
// access in it.
package mmu

import "log/slog"

// Mode is a PSW run mode, taken from PSW bits 14-15 (current) or 12-13
// (previous).
type Mode int

const (
	Kernel Mode = iota
	Supervisor
	Illegal
	User
)

// Space distinguishes the instruction and data address spaces.
type Space int

const (
	SpaceI Space = iota
	SpaceD
)

// MMR0 bit layout.
const (
	mmr0Enable     uint16 = 1 << 0
	mmr0PageMask   uint16 = 0xf << 1 // bits 1-4; the page at fault goes in bits 1-3
	mmr0PageShift         = 1
	mmr0ModeMask   uint16 = 0x3 << 5 // bits 5-6: mode at fault
	mmr0ModeShift         = 5
	mmr0TrapOnWr   uint16 = 1 << 8
	mmr0RO10_11    uint16 = 0x3 << 10 // always reads zero
	mmr0TrapFlag   uint16 = 1 << 12
	mmr0ROFlag     uint16 = 1 << 13
	mmr0LenFlag    uint16 = 1 << 14
	mmr0NonResFlag uint16 = 1 << 15
	mmr0AbortMask  uint16 = mmr0NonResFlag | mmr0ROFlag | mmr0LenFlag | mmr0TrapFlag
	mmr0FrozenMask uint16 = 0xfe // bits 1-7
)

// MMR3 bit layout.
const (
	mmr3UserD  uint16 = 1 << 0
	mmr3SuperD uint16 = 1 << 1
	mmr3KernD  uint16 = 1 << 2
	mmr3Is22   uint16 = 1 << 4
)

// AbortCause identifies why Translate failed.
type AbortCause int

const (
	NoAbort AbortCause = iota
	NonResident
	ReadOnly
	LengthViolation
)

// Abort is returned by Translate when the access must trap. Vector is
// the CPU trap vector to take (0o4 for non-resident memory per spec
// §4.2, 0o250 for access/length violations).
type Abort struct {
	Cause  AbortCause
	Vector uint16
}

func (a *Abort) Error() string {
	switch a.Cause {
	case NonResident:
		return "mmu: non-resident page"
	case ReadOnly:
		return "mmu: access-control violation"
	case LengthViolation:
		return "mmu: page length violation"
	default:
		return "mmu: abort"
	}
}

const (
	VectorNonResidentMemory uint16 = 0o004
	VectorInvalidAccess     uint16 = 0o250
)

// PageDescriptor is one (PAR, PDR) pair.
type PageDescriptor struct {
	PAR uint16
	PDR uint16
}

// ac returns the page's 3-bit access-control field, PDR bits 0-2.
func (pd PageDescriptor) ac() uint16 { return pd.PDR & 0x7 }

// downward reports the page's expansion direction, PDR bit 3.
func (pd PageDescriptor) downward() bool { return pd.PDR&(1<<3) != 0 }

// length returns PDR bits 8-14, the page length in 64-byte blocks.
func (pd PageDescriptor) length() uint16 { return (pd.PDR >> 8) & 0x7f }

const (
	pdrW uint16 = 1 << 6 // written-to flag
	pdrA uint16 = 1 << 7 // accessed flag
)

// MMU holds the page table and the four MMU status/control registers.
type MMU struct {
	pages [4][2][8]PageDescriptor

	mmr0 uint16
	mmr1 uint16
	mmr2 uint16
	mmr3 uint16

	log *slog.Logger
}

// New returns a zero-initialized MMU (translation disabled, all pages
// non-resident, matching power-up state).
func New(log *slog.Logger) *MMU {
	if log == nil {
		log = slog.Default()
	}
	return &MMU{log: log}
}

// Reset zeroes the page table and all four MMR registers.
func (m *MMU) Reset() {
	m.pages = [4][2][8]PageDescriptor{}
	m.mmr0, m.mmr1, m.mmr2, m.mmr3 = 0, 0, 0, 0
}

// Enabled reports whether MMR0 bit 0 (translation enable) is set.
func (m *MMU) Enabled() bool {
	return m.mmr0&mmr0Enable != 0
}

// Page returns the page descriptor for (mode, space, page).
func (m *MMU) Page(mode Mode, space Space, page int) PageDescriptor {
	return m.pages[mode][space][page&7]
}

// SetPAR/SetPDR mutate one page descriptor; called by the bus when
// software writes the PAR/PDR I/O page window.
func (m *MMU) SetPAR(mode Mode, space Space, page int, value uint16) {
	m.pages[mode][space][page&7].PAR = value & 0xfff
}

func (m *MMU) SetPDR(mode Mode, space Space, page int, value uint16) {
	// Bits not defined by spec §3 (9-10, 15) are simply stored; only
	// ac/direction/W/A/length are interpreted by Translate.
	m.pages[mode][space][page&7].PDR = value
}

// MMR0/MMR1/MMR2/MMR3 read the raw register value.
func (m *MMU) MMR0() uint16 { return m.mmr0 &^ mmr0RO10_11 }
func (m *MMU) MMR1() uint16 { return m.mmr1 }
func (m *MMU) MMR2() uint16 { return m.mmr2 }
func (m *MMU) MMR3() uint16 { return m.mmr3 }

// SetMMR2 latches the PC of the instruction being fetched, called by
// the CPU at the start of every fetch (spec §4.5 step 2).
func (m *MMU) SetMMR2(pc uint16) { m.mmr2 = pc }

// WriteMMR0 implements the latch-freeze rule of spec §4.2: while any
// abort-cause flag is set, bits 1-7 are read-only, and writing can only
// clear those flags by clearing bit 0 at the same time.
func (m *MMU) WriteMMR0(value uint16) {
	frozen := m.mmr0&mmr0AbortMask != 0
	if frozen {
		if value&mmr0Enable == 0 {
			// Clearing the enable bit while frozen clears the abort
			// latch entirely, matching "clears abort flags only if bit
			// 0 is cleared simultaneously".
			m.mmr0 = value &^ (mmr0AbortMask | mmr0RO10_11)
			return
		}
		// Bits 1-7 and the abort flags stay latched; only bits 0, 8
		// and 9 take the written value.
		preserved := m.mmr0 & (mmr0FrozenMask | mmr0AbortMask)
		m.mmr0 = (value &^ (mmr0FrozenMask | mmr0AbortMask | mmr0RO10_11)) | preserved
		return
	}
	m.mmr0 = value &^ mmr0RO10_11
}

// WriteMMR3 stores the D-space/22-bit control register.
func (m *MMU) WriteMMR3(value uint16) { m.mmr3 = value }

// ClearMMR1 is called at the start of every instruction fetch; MMR1
// only records the auto-inc/dec deltas of the instruction in flight.
func (m *MMU) ClearMMR1() { m.mmr1 = 0 }

// RecordAutoMod packs one (register, signed delta) entry into MMR1, two
// per word as spec §3 describes. Only the most recent two are kept,
// which matches the original's "stack" of restart entries for the
// (at most two) auto-modified operands of a double-operand
// instruction.
func (m *MMU) RecordAutoMod(reg int, delta int8) {
	entry := (uint16(delta) & 0x1f) << 3
	entry |= uint16(reg) & 0x7
	if m.mmr1 == 0 {
		m.mmr1 = entry
		return
	}
	m.mmr1 = (m.mmr1 << 8) | (entry & 0xff)
}

func (m *MMU) latchAbort(cause AbortCause, mode Mode, apf int) {
	if m.mmr0&mmr0AbortMask != 0 {
		// Already latched; spec §4.2 "On any MMU abort, and only if
		// MMR0's abort flags are not already latched".
		return
	}
	m.mmr0 &^= mmr0PageMask | mmr0ModeMask
	m.mmr0 |= uint16(apf&0x7) << mmr0PageShift
	m.mmr0 |= uint16(mode&0x3) << mmr0ModeShift
	switch cause {
	case NonResident:
		m.mmr0 |= mmr0NonResFlag
	case ReadOnly:
		m.mmr0 |= mmr0ROFlag
	case LengthViolation:
		m.mmr0 |= mmr0LenFlag
	}
}

// physMask returns the mask applied to a computed physical address,
// honoring MMR3 bit 4 uniformly (spec §9 open question).
func (m *MMU) physMask() uint32 {
	if m.mmr3&mmr3Is22 != 0 {
		return 0x3fffff
	}
	return 0x3ffff
}

// dSpaceEnabled reports whether D-space is split out for mode.
func (m *MMU) dSpaceEnabled(mode Mode) bool {
	switch mode {
	case Kernel:
		return m.mmr3&mmr3KernD != 0
	case Supervisor:
		return m.mmr3&mmr3SuperD != 0
	case User:
		return m.mmr3&mmr3UserD != 0
	default:
		return false
	}
}

// Translate converts a 16-bit virtual address into a physical address,
// per spec §4.2. isData selects the logical space the caller intends
// (set false for instruction fetch); the effective space only becomes
// D if MMR3 enables D-space for mode. peek suppresses every side
// effect: MMR0 latching, the accessed/written flags, and traps -- it
// never returns an abort, used by the debugger's read-only inspection.
func (m *MMU) Translate(mode Mode, va uint16, isData bool, write bool, peek bool) (uint32, *Abort) {
	if !m.Enabled() {
		return uint32(va) & m.physMask(), nil
	}

	space := SpaceI
	if isData && m.dSpaceEnabled(mode) {
		space = SpaceD
	}

	apf := int((va >> 13) & 0x7)
	offset := uint32(va & 0x1fff)

	if mode == Illegal && !peek {
		m.latchAbort(NonResident, mode, apf)
		return 0, &Abort{Cause: NonResident, Vector: VectorNonResidentMemory}
	}

	pd := m.pages[mode][space][apf]
	ac := pd.ac()

	if !peek {
		// Access check: a read traps for ac in {0,1,3,4,7}; a write
		// traps for any ac other than 6 (spec §4.2).
		var illegal bool
		if write {
			illegal = ac != 6
		} else {
			switch ac {
			case 0, 1, 3, 4, 7:
				illegal = true
			}
		}
		if illegal {
			cause := ReadOnly
			vec := VectorInvalidAccess
			if ac == 0 || ac == 4 {
				cause = NonResident
				vec = VectorNonResidentMemory
			}
			m.latchAbort(cause, mode, apf)
			return 0, &Abort{Cause: cause, Vector: vec}
		}

		// Length check.
		cmp := uint16((va >> 6) & 0x7f)
		pdrLen := pd.length()
		var lenViolation bool
		if pd.downward() {
			lenViolation = cmp < pdrLen
		} else {
			lenViolation = cmp > pdrLen
		}
		if lenViolation {
			m.latchAbort(LengthViolation, mode, apf)
			return 0, &Abort{Cause: LengthViolation, Vector: VectorInvalidAccess}
		}

		idx := &m.pages[mode][space][apf]
		idx.PDR |= pdrA
		if write {
			idx.PDR |= pdrW
		}
	}

	phys := (uint32(pd.PAR&0xfff) * 64) + offset
	return phys & m.physMask(), nil
}
