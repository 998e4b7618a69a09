package loader

import (
	"bytes"
	"testing"
)

type fakeMemory struct {
	data map[uint32]byte
}

func newFakeMemory() *fakeMemory { return &fakeMemory{data: make(map[uint32]byte)} }

func (m *fakeMemory) WriteByte(addr uint32, value byte) { m.data[addr] = value }

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data := []byte{0o1, 0o2, 0o3, 0o4, 0o5}
	rec := Encode(0o1000, data)

	decoded, n, err := Decode(rec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(rec) {
		t.Fatalf("consumed %d bytes, want %d", n, len(rec))
	}
	if decoded.Addr != 0o1000 {
		t.Fatalf("addr = %#o, want 0o1000", decoded.Addr)
	}
	if !bytes.Equal(decoded.Data, data) {
		t.Fatalf("data = %v, want %v", decoded.Data, data)
	}
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	rec := Encode(0o1000, []byte{1, 2, 3})
	rec[len(rec)-1] ^= 0xff

	if _, _, err := Decode(rec); err == nil {
		t.Fatalf("expected checksum error")
	}
}

func TestStartAndTerminateRecords(t *testing.T) {
	start := EncodeStart(0o2000)
	rec, _, err := Decode(start)
	if err != nil {
		t.Fatalf("decode start: %v", err)
	}
	if !rec.Start || rec.Addr != 0o2000 {
		t.Fatalf("got %+v, want Start addr 0o2000", rec)
	}

	term := EncodeTerminate()
	rec, _, err = Decode(term)
	if err != nil {
		t.Fatalf("decode terminate: %v", err)
	}
	if !rec.Terminate {
		t.Fatalf("expected terminate record")
	}
}

func TestLoadDepositsBytesAndReturnsStartPC(t *testing.T) {
	var tape []byte
	tape = append(tape, Encode(0o1000, []byte{0xAA, 0xBB, 0xCC})...)
	tape = append(tape, EncodeStart(0o1000)...)
	tape = append(tape, EncodeTerminate()...)

	mem := newFakeMemory()
	pc, ok, err := Load(tape, mem)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok || pc != 0o1000 {
		t.Fatalf("got pc=%#o ok=%v, want 0o1000 true", pc, ok)
	}
	want := map[uint32]byte{0o1000: 0xAA, 0o1001: 0xBB, 0o1002: 0xCC}
	for addr, b := range want {
		if mem.data[addr] != b {
			t.Fatalf("mem[%#o] = %#x, want %#x", addr, mem.data[addr], b)
		}
	}
}
