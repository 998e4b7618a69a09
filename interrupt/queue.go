/*
 * kek - Interrupt queue and priority arbiter
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

// Package interrupt holds the pending-interrupt queue shared between
// device threads (producers, via Queue) and the CPU's instruction loop
// (the sole consumer, via Highest/Dequeue). Devices reach this through
// the device.Interrupter handle so device code never imports cpu.
//
// Levels run 1-7; level 0 means "no interrupt". Unique by (level,
// vector) -- queuing the same vector twice at the same level before it
// is dequeued is a no-op, matching the edge-triggered semantics of
// spec §4.5 (Interrupts are edge-triggered in the queue and not
// re-raised by dispatch).
package interrupt

import "sync"

const (
	minLevel = 1
	maxLevel = 7
)

// entry is one pending interrupt request, kept in insertion order
// within its level for FIFO fairness.
type entry struct {
	vector uint16
}

// Queue is the bus-wide interrupt arbiter. The zero value is usable.
type Queue struct {
	mu     sync.Mutex
	levels [maxLevel + 1][]entry
	seen   [maxLevel + 1]map[uint16]bool
}

// New returns an empty interrupt queue.
func New() *Queue {
	q := &Queue{}
	for l := minLevel; l <= maxLevel; l++ {
		q.seen[l] = map[uint16]bool{}
	}
	return q
}

// Queue enqueues a (level, vector) request. Levels outside 1-7 are
// ignored. Duplicate (level, vector) pairs already pending collapse
// into the single pending entry, per the edge-triggered rule.
func (q *Queue) Queue(level int, vector uint16) {
	if level < minLevel || level > maxLevel {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.seen[level][vector] {
		return
	}
	q.seen[level][vector] = true
	q.levels[level] = append(q.levels[level], entry{vector: vector})
}

// Highest returns the highest pending level strictly greater than spl,
// or 0 if none qualifies. Used by the CPU at each instruction boundary
// to decide whether to dispatch (spec §4.5: "highest level with a
// non-empty set > current spl").
func (q *Queue) Highest(spl int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	for l := maxLevel; l > spl; l-- {
		if len(q.levels[l]) > 0 {
			return l
		}
	}
	return 0
}

// Dequeue pops the oldest pending vector at level, FIFO within the
// level. Returns ok=false if the level was empty.
func (q *Queue) Dequeue(level int) (vector uint16, ok bool) {
	if level < minLevel || level > maxLevel {
		return 0, false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.levels[level]) == 0 {
		return 0, false
	}
	e := q.levels[level][0]
	q.levels[level] = q.levels[level][1:]
	delete(q.seen[level], e.vector)
	return e.vector, true
}

// Reset clears every pending interrupt, as RESET does bus-wide.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for l := minLevel; l <= maxLevel; l++ {
		q.levels[l] = nil
		q.seen[l] = map[uint16]bool{}
	}
}

// Pending reports whether any interrupt is queued at all, for tests
// and diagnostics.
func (q *Queue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for l := minLevel; l <= maxLevel; l++ {
		if len(q.levels[l]) > 0 {
			return true
		}
	}
	return false
}
