package backend

import (
	"bytes"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	b := NewMemory(4096)
	b.Begin(false)

	data := bytes.Repeat([]byte{0xAA}, 512)
	if err := b.Write(512, 512, data, 512); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := make([]byte, 512)
	if err := b.Read(512, 512, out, 512); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("round-trip mismatch")
	}
}

func TestSnapshotOverlayLeavesBaseUntouched(t *testing.T) {
	b := NewMemory(2048)
	b.Begin(true)

	base := make([]byte, 512)
	if err := b.Read(0, 512, base, 512); err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, v := range base {
		if v != 0 {
			t.Fatalf("expected zero-filled base sector")
		}
	}

	overlay := bytes.Repeat([]byte{0xFF}, 512)
	if err := b.Write(0, 512, overlay, 512); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := make([]byte, 512)
	if err := b.Read(0, 512, out, 512); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(out, overlay) {
		t.Fatalf("expected overlay to be visible on read")
	}
}

func TestUnalignedAccessRejected(t *testing.T) {
	b := NewMemory(1024)
	b.Begin(false)
	if err := b.Read(1, 512, make([]byte, 512), 512); err == nil {
		t.Fatalf("expected error for unaligned offset")
	}
	if err := b.Read(0, 100, make([]byte, 100), 512); err == nil {
		t.Fatalf("expected error for unaligned length")
	}
}

func TestMultiSectorReadWrite(t *testing.T) {
	b := NewMemory(4096)
	b.Begin(false)

	data := make([]byte, 1536)
	for i := range data {
		data[i] = byte(i)
	}
	if err := b.Write(0, 1536, data, 512); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := make([]byte, 1536)
	if err := b.Read(0, 1536, out, 512); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("multi-sector round-trip mismatch")
	}
}
