package tty

import "testing"

type fakeIRQ struct {
	level  int
	vector uint16
	count  int
}

func (f *fakeIRQ) Queue(level int, vector uint16) {
	f.level, f.vector = level, vector
	f.count++
}

type fakePrinter struct {
	got []byte
}

func (f *fakePrinter) Print(b byte) { f.got = append(f.got, b) }

func TestInputSetsDoneAndQueuesWhenIESet(t *testing.T) {
	irq := &fakeIRQ{}
	tt := New(nil, irq, nil)
	tt.WriteWord(offTKS, statusIE)

	tt.Input('A')

	if tt.ReadWord(offTKS)&statusDone == 0 {
		t.Fatalf("expected DONE set after Input")
	}
	if irq.count != 1 || irq.level != levelReader || irq.vector != vectorReader {
		t.Fatalf("got queue(%d,%#o) count=%d, want queue(4,060) count=1", irq.level, irq.vector, irq.count)
	}
}

func TestInputDoesNotQueueWhenIEClear(t *testing.T) {
	irq := &fakeIRQ{}
	tt := New(nil, irq, nil)

	tt.Input('A')

	if irq.count != 0 {
		t.Fatalf("expected no interrupt queued, got %d", irq.count)
	}
}

func TestReadTKBClearsDone(t *testing.T) {
	irq := &fakeIRQ{}
	tt := New(nil, irq, nil)
	tt.Input('Z')

	v := tt.ReadWord(offTKB)
	if v != 'Z' {
		t.Fatalf("TKB = %v, want 'Z'", v)
	}
	if tt.ReadWord(offTKS)&statusDone != 0 {
		t.Fatalf("expected DONE cleared after reading TKB")
	}
}

func TestWriteTPBPrintsAndQueuesWhenIESet(t *testing.T) {
	irq := &fakeIRQ{}
	p := &fakePrinter{}
	tt := New(p, irq, nil)
	tt.WriteWord(offTPS, statusIE)

	tt.WriteWord(offTPB, 'x')

	if len(p.got) != 1 || p.got[0] != 'x' {
		t.Fatalf("printer got %v, want ['x']", p.got)
	}
	if tt.ReadWord(offTPS)&statusDone == 0 {
		t.Fatalf("expected TPS DONE restored after print")
	}
	if irq.count != 1 || irq.level != levelPunch || irq.vector != vectorPunch {
		t.Fatalf("got queue(%d,%#o) count=%d, want queue(4,064) count=1", irq.level, irq.vector, irq.count)
	}
}

func TestResetRestoresPowerUpState(t *testing.T) {
	irq := &fakeIRQ{}
	tt := New(nil, irq, nil)
	tt.Input('Q')
	tt.Reset()

	if tt.ReadWord(offTKS) != 0 {
		t.Fatalf("expected TKS cleared after reset")
	}
	if tt.ReadWord(offTPS)&statusDone == 0 {
		t.Fatalf("expected TPS DONE set after reset")
	}
}

func TestWriteByteToTKBDoesNotClearDoneAsSideEffect(t *testing.T) {
	irq := &fakeIRQ{}
	tt := New(nil, irq, nil)
	tt.Input('Q') // sets TKS DONE

	// A byte write addressed at TKB must not perform a side-effecting
	// ReadWord(TKB) as part of its read-modify-write; that would clear
	// TKS's DONE bit as an unrelated side effect of the write.
	tt.WriteByte(offTKB, 0)

	if tt.ReadWord(offTKS)&statusDone == 0 {
		t.Fatalf("expected DONE still set after WriteByte(TKB), got cleared")
	}
}

func TestByteAccessToTKB(t *testing.T) {
	irq := &fakeIRQ{}
	tt := New(nil, irq, nil)
	tt.Input('M')

	if got := tt.ReadByte(offTKB); got != 'M' {
		t.Fatalf("ReadByte(TKB) = %v, want 'M'", got)
	}
}
