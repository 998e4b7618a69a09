package rl02

import (
	"testing"

	"github.com/kek11/kek/backend"
)

type fakeIRQ struct {
	level, count int
	vector       uint16
}

func (f *fakeIRQ) Queue(level int, vector uint16) {
	f.level, f.vector = level, vector
	f.count++
}

type fakeBus struct {
	mem map[uint32]uint16
}

func newFakeBus() *fakeBus { return &fakeBus{mem: make(map[uint32]uint16)} }

func (f *fakeBus) ReadWordPhysical(addr uint32) uint16    { return f.mem[addr] }
func (f *fakeBus) WriteWordPhysical(addr uint32, v uint16) { f.mem[addr] = v }

func TestWriteThenReadRoundTrip(t *testing.T) {
	b := newFakeBus()
	irq := &fakeIRQ{}
	u := backend.NewMemory(4 << 20)
	u.Begin(false)
	r := New([]backend.Backend{u}, b, irq, nil)

	const memBase = 0o3000
	for i := uint32(0); i < SectorSize/2; i++ {
		b.mem[memBase+i*2] = uint16(i) + 1
	}

	r.WriteWord(offDA, 0)
	r.WriteWord(offBA, memBase)
	r.WriteWord(offWC, uint16(0x10000-SectorSize/2)) // -256 words
	r.WriteWord(offCS, funcWrite<<csFuncShift|csGo)

	const readBase = 0o4000
	r.WriteWord(offDA, 0)
	r.WriteWord(offBA, readBase)
	r.WriteWord(offWC, uint16(0x10000-SectorSize/2)) // -256 words
	r.WriteWord(offCS, funcRead<<csFuncShift|csGo)

	for i := uint32(0); i < SectorSize/2; i++ {
		want := uint16(i) + 1
		if got := b.mem[readBase+i*2]; got != want {
			t.Fatalf("word %d: got %#o, want %#o", i, got, want)
		}
	}
}

func TestByteWriteIsWordReadModifyWrite(t *testing.T) {
	b := newFakeBus()
	irq := &fakeIRQ{}
	r := New(nil, b, irq, nil)

	r.WriteWord(offBA, 0o123456)
	r.WriteByte(offBA, 0xff) // low byte only

	if got := r.ReadWord(offBA); got != (0o123456&0xff00)|0xff {
		t.Fatalf("BA = %#o, want low byte replaced only", got)
	}
}

func TestCompletionInterruptVector(t *testing.T) {
	b := newFakeBus()
	irq := &fakeIRQ{}
	u := backend.NewMemory(1 << 20)
	u.Begin(false)
	r := New([]backend.Backend{u}, b, irq, nil)

	r.WriteWord(offWC, uint16(0x10000-SectorSize/2)) // -256 words
	r.WriteWord(offCS, csIE|funcWrite<<csFuncShift|csGo)

	if irq.count != 1 || irq.level != levelRL || irq.vector != vectorRL {
		t.Fatalf("got queue(%d,%#o) count=%d, want queue(5,0160) count=1", irq.level, irq.vector, irq.count)
	}
}

func TestSeekSetsSearchComplete(t *testing.T) {
	b := newFakeBus()
	irq := &fakeIRQ{}
	r := New(nil, b, irq, nil)

	r.WriteWord(offCS, funcSeek<<csFuncShift|csGo)

	if r.ReadWord(offCS)&csSearch == 0 {
		t.Fatalf("expected search-complete bit set after seek")
	}
}
