package mmu

import "testing"

func TestTranslateDisabledIsIdentity(t *testing.T) {
	m := New(nil)
	phys, abort := m.Translate(Kernel, 0o001000, false, false, false)
	if abort != nil {
		t.Fatalf("unexpected abort: %v", abort)
	}
	if phys != 0o001000 {
		t.Fatalf("got %#o, want %#o", phys, 0o001000)
	}
}

func TestTranslateBasic(t *testing.T) {
	m := New(nil)
	m.WriteMMR0(mmr0Enable)
	m.SetPAR(Kernel, SpaceI, 1, 0o000200)
	m.SetPDR(Kernel, SpaceI, 1, 0o0077<<8|6) // ac=6 (read/write), length=0o77, upward

	va := uint16(1)<<13 | 0o100 // page 1, byte offset 0o100 (block 1)
	phys, abort := m.Translate(Kernel, va, false, true, false)
	if abort != nil {
		t.Fatalf("unexpected abort: %v", abort)
	}
	want := uint32(0o000200)*64 + 0o100
	if phys != want {
		t.Fatalf("got %#o, want %#o", phys, want)
	}
}

func TestTranslateNonResident(t *testing.T) {
	m := New(nil)
	m.WriteMMR0(mmr0Enable)
	// ac left at 0: non-resident.
	va := uint16(2) << 13
	_, abort := m.Translate(Kernel, va, false, false, false)
	if abort == nil || abort.Cause != NonResident {
		t.Fatalf("expected NonResident abort, got %v", abort)
	}
	if m.MMR0()&mmr0NonResFlag == 0 {
		t.Fatalf("expected MMR0 non-resident flag latched")
	}
}

func TestTranslateReadOnlyViolation(t *testing.T) {
	m := New(nil)
	m.WriteMMR0(mmr0Enable)
	m.SetPDR(Kernel, SpaceI, 0, 2) // ac=2, read-only

	_, abort := m.Translate(Kernel, 0, false, true, false)
	if abort == nil || abort.Cause != ReadOnly {
		t.Fatalf("expected ReadOnly abort on write, got %v", abort)
	}

	_, abort = m.Translate(Kernel, 0, false, false, false)
	if abort != nil {
		t.Fatalf("expected read to succeed against ac=2, got %v", abort)
	}
}

func TestTranslateLengthViolationUpward(t *testing.T) {
	m := New(nil)
	m.WriteMMR0(mmr0Enable)
	m.SetPDR(Kernel, SpaceI, 0, 0<<8|6) // length 0, upward: only block 0 valid

	va := uint16(1) << 6 // block 1
	_, abort := m.Translate(Kernel, va, false, false, false)
	if abort == nil || abort.Cause != LengthViolation {
		t.Fatalf("expected LengthViolation, got %v", abort)
	}
}

func TestTranslateLengthViolationDownward(t *testing.T) {
	m := New(nil)
	m.WriteMMR0(mmr0Enable)
	m.SetPDR(Kernel, SpaceI, 0, 0o177<<8|(1<<3)|6) // downward, length 0o177

	va := uint16(0o176) << 6
	_, abort := m.Translate(Kernel, va, false, false, false)
	if abort == nil || abort.Cause != LengthViolation {
		t.Fatalf("expected LengthViolation for downward page below length, got %v", abort)
	}

	va = uint16(0o177) << 6
	if _, abort := m.Translate(Kernel, va, false, false, false); abort != nil {
		t.Fatalf("expected block at length boundary to be valid, got %v", abort)
	}
}

func TestTranslateIllegalModeAlwaysAborts(t *testing.T) {
	m := New(nil)
	m.WriteMMR0(mmr0Enable)
	_, abort := m.Translate(Illegal, 0, false, false, false)
	if abort == nil || abort.Cause != NonResident {
		t.Fatalf("expected illegal mode to abort as non-resident, got %v", abort)
	}
}

func TestTranslatePeekSuppressesAbortAndFlags(t *testing.T) {
	m := New(nil)
	m.WriteMMR0(mmr0Enable)
	// Page left non-resident (ac=0); a real access would abort.
	phys, abort := m.Translate(Kernel, 0, false, true, true)
	if abort != nil {
		t.Fatalf("peek must never abort, got %v", abort)
	}
	if phys != 0 {
		t.Fatalf("got %#o, want 0", phys)
	}
	if m.MMR0()&mmr0AbortMask != 0 {
		t.Fatalf("peek must not latch MMR0 abort flags")
	}
	if m.Page(Kernel, SpaceI, 0).PDR&(pdrA|pdrW) != 0 {
		t.Fatalf("peek must not set accessed/written flags")
	}
}

func TestWriteMMR0FreezeAndClear(t *testing.T) {
	m := New(nil)
	m.WriteMMR0(mmr0Enable)
	m.SetPDR(Kernel, SpaceI, 3, 0) // ac=0
	if _, abort := m.Translate(Kernel, uint16(3)<<13, false, false, false); abort == nil {
		t.Fatalf("expected abort to latch MMR0")
	}
	if m.MMR0()&mmr0AbortMask == 0 {
		t.Fatalf("expected abort flags latched")
	}

	// While frozen, bits 1-7 must not change even if we try to rewrite them.
	m.WriteMMR0(mmr0Enable | 0o16) // attempt to set page-at-fault bits
	if m.MMR0()&mmr0FrozenMask != (uint16(3)<<mmr0PageShift)&mmr0FrozenMask {
		t.Fatalf("frozen bits 1-7 were overwritten: MMR0=%#o", m.MMR0())
	}

	// Clearing bit 0 clears the whole latch.
	m.WriteMMR0(0)
	if m.MMR0() != 0 {
		t.Fatalf("expected clear of enable bit to clear latch, got %#o", m.MMR0())
	}
}

func TestRecordAutoModPacksTwoEntries(t *testing.T) {
	m := New(nil)
	m.ClearMMR1()
	m.RecordAutoMod(6, -2)
	m.RecordAutoMod(1, 2)
	if m.MMR1() == 0 {
		t.Fatalf("expected MMR1 to record entries")
	}
}

func TestDSpaceRequiresMMR3Bit(t *testing.T) {
	m := New(nil)
	m.WriteMMR0(mmr0Enable)
	m.SetPAR(Kernel, SpaceD, 0, 0o000400)
	m.SetPDR(Kernel, SpaceD, 0, 0o0177<<8|6)
	m.SetPAR(Kernel, SpaceI, 0, 0o000100)
	m.SetPDR(Kernel, SpaceI, 0, 0o0177<<8|6)

	phys, _ := m.Translate(Kernel, 0, true, false, false)
	if phys != uint32(0o000100)*64 {
		t.Fatalf("expected D-space access to fall back to I-space without MMR3 bit, got %#o", phys)
	}

	m.WriteMMR3(mmr3KernD)
	phys, _ = m.Translate(Kernel, 0, true, false, false)
	if phys != uint32(0o000400)*64 {
		t.Fatalf("expected D-space access once MMR3 kernel-D bit set, got %#o", phys)
	}
}

func TestPhysMaskHonorsMMR3Bit4(t *testing.T) {
	m := New(nil)
	if m.physMask() != 0x3ffff {
		t.Fatalf("expected 18-bit mask by default")
	}
	m.WriteMMR3(mmr3Is22)
	if m.physMask() != 0x3fffff {
		t.Fatalf("expected 22-bit mask once MMR3 bit 4 set")
	}
}
