package interrupt

import "testing"

func TestQueueAndDequeueFIFO(t *testing.T) {
	q := New()
	q.Queue(5, 0o220)
	q.Queue(5, 0o224)
	if lvl := q.Highest(0); lvl != 5 {
		t.Fatalf("Highest(0) = %d, want 5", lvl)
	}
	if lvl := q.Highest(5); lvl != 0 {
		t.Fatalf("Highest(5) = %d, want 0 (spl blocks equal level)", lvl)
	}
	v, ok := q.Dequeue(5)
	if !ok || v != 0o220 {
		t.Fatalf("Dequeue = %#o, %v, want 0o220, true", v, ok)
	}
	v, ok = q.Dequeue(5)
	if !ok || v != 0o224 {
		t.Fatalf("Dequeue = %#o, %v, want 0o224, true", v, ok)
	}
	if _, ok := q.Dequeue(5); ok {
		t.Fatalf("expected empty queue")
	}
}

func TestDuplicateVectorCollapses(t *testing.T) {
	q := New()
	q.Queue(4, 0o60)
	q.Queue(4, 0o60)
	count := 0
	for {
		if _, ok := q.Dequeue(4); !ok {
			break
		}
		count++
	}
	if count != 1 {
		t.Fatalf("expected one entry after duplicate queue, got %d", count)
	}
}

func TestPriorityOrdering(t *testing.T) {
	q := New()
	q.Queue(4, 0o60)
	q.Queue(6, 0o100)
	if lvl := q.Highest(0); lvl != 6 {
		t.Fatalf("Highest(0) = %d, want 6", lvl)
	}
}

func TestReset(t *testing.T) {
	q := New()
	q.Queue(5, 0o220)
	q.Reset()
	if q.Pending() {
		t.Fatalf("expected no pending interrupts after reset")
	}
}

func TestInvalidLevelIgnored(t *testing.T) {
	q := New()
	q.Queue(0, 0o60)
	q.Queue(8, 0o60)
	if q.Pending() {
		t.Fatalf("expected out-of-range levels to be ignored")
	}
}
