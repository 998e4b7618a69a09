/*
 * kek - KW11-P programmable timer
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

// Package timer implements the KW11-P programmable real-time clock:
// a control/status register (CSR) and a count register at
// 0o172540, with run/repeat/interrupt-enable control bits mirrored
// from the original's gen.h register list (see SPEC_FULL.md).
package timer

import "github.com/kek11/kek/device"

const (
	Base = 0o172540
	Size = 4

	offCSR   = 0
	offCount = 2

	ctrlRun    uint16 = 1 << 0
	ctrlRepeat uint16 = 1 << 1
	ctrlIE     uint16 = 1 << 6
	ctrlDone   uint16 = 1 << 7

	vectorTimer = 0o244
	levelTimer  = 6
)

// Timer is the KW11-P. Tick increments the count register once per
// scheduler tick (cmd/kek drives the rate); when the count wraps from
// 0xffff to 0 it sets DONE, queues the interrupt if enabled, and clears
// RUN unless in repeat mode. There is no preset register: in repeat
// mode counting simply continues from 0.
type Timer struct {
	ctrl  uint16
	count uint16
	irq   device.Interrupter
}

func New(irq device.Interrupter) *Timer {
	t := &Timer{irq: irq}
	t.Reset()
	return t
}

func (t *Timer) Base() (uint32, uint32) { return Base, Size }

func (t *Timer) Reset() {
	t.ctrl = 0
	t.count = 0
}

func (t *Timer) Tick() {
	if t.ctrl&ctrlRun == 0 {
		return
	}
	t.count++
	if t.count != 0 {
		return
	}
	t.ctrl |= ctrlDone
	if t.ctrl&ctrlRepeat == 0 {
		t.ctrl &^= ctrlRun
	}
	if t.ctrl&ctrlIE != 0 {
		t.irq.Queue(levelTimer, vectorTimer)
	}
}

func (t *Timer) ReadWord(offset uint32) uint16 {
	switch offset {
	case offCSR:
		return t.ctrl
	case offCount:
		return t.count
	}
	return 0
}

func (t *Timer) ReadByte(offset uint32) uint8 {
	word := t.ReadWord(offset &^ 1)
	if offset&1 != 0 {
		return uint8(word >> 8)
	}
	return uint8(word)
}

func (t *Timer) WriteWord(offset uint32, value uint16) {
	switch offset {
	case offCSR:
		t.ctrl = value &^ ctrlDone
	case offCount:
		t.count = value
	}
}

func (t *Timer) WriteByte(offset uint32, value uint8) {
	word := t.ReadWord(offset &^ 1)
	if offset&1 != 0 {
		word = (word & 0x00ff) | uint16(value)<<8
	} else {
		word = (word & 0xff00) | uint16(value)
	}
	t.WriteWord(offset&^1, word)
}
