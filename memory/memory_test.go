package memory

import "testing"

func TestWordRoundTrip(t *testing.T) {
	m := New(1 << 16)
	for addr := uint32(0); addr < m.Size()-1; addr += 2 {
		m.WriteWord(addr, 0o123456)
		if got := m.ReadWord(addr); got != 0o123456&0xffff {
			t.Fatalf("addr %#o: got %#o, want %#o", addr, got, uint16(0o123456))
		}
	}
}

func TestByteOrderLittleEndian(t *testing.T) {
	m := New(16)
	m.WriteWord(0, 0x1234)
	if m.ReadByte(0) != 0x34 || m.ReadByte(1) != 0x12 {
		t.Fatalf("expected little-endian layout, got lo=%#x hi=%#x", m.ReadByte(0), m.ReadByte(1))
	}
}

func TestReset(t *testing.T) {
	m := New(16)
	m.WriteWord(4, 0xffff)
	m.Reset()
	if m.ReadWord(4) != 0 {
		t.Fatalf("expected zeroed memory after reset")
	}
}

func TestSize(t *testing.T) {
	m := New(4096)
	if m.Size() != 4096 {
		t.Fatalf("got size %d, want 4096", m.Size())
	}
}
