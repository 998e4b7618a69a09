/*
 * kek - KW11-L line-frequency clock
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

// Package clk implements the KW11-L line-frequency clock: a single
// register at 0o177546 whose bit 6 enables a fixed-rate tick that
// queues a level-6 interrupt. Present in the original's bus handling
// but left unspecified by the distilled spec (see SPEC_FULL.md); added
// here as the fourth minimal device.
package clk

import "github.com/kek11/kek/device"

const (
	Base = 0o177546
	Size = 2

	enableBit uint16 = 1 << 6
	doneBit   uint16 = 1 << 7

	vectorClock = 0o100
	levelClock  = 6
)

// Clock is the KW11-L. Tick is called by the scheduler driving the
// main loop (cmd/kek) at the configured line-frequency rate; it is not
// self-ticking, matching the core's single-threaded, cooperative
// concurrency model (spec §5).
type Clock struct {
	csr uint16
	irq device.Interrupter
}

func New(irq device.Interrupter) *Clock {
	c := &Clock{irq: irq}
	c.Reset()
	return c
}

func (c *Clock) Base() (uint32, uint32) { return Base, Size }

func (c *Clock) Reset() { c.csr = 0 }

// Tick fires once per line-frequency period. If the clock is enabled
// it sets DONE and, unconditionally (KW11-L has no IE bit to gate the
// interrupt -- only a done/monitor bit), queues the level-6 vector.
func (c *Clock) Tick() {
	if c.csr&enableBit == 0 {
		return
	}
	c.csr |= doneBit
	c.irq.Queue(levelClock, vectorClock)
}

func (c *Clock) ReadWord(offset uint32) uint16 {
	if offset == 0 {
		return c.csr
	}
	return 0
}

func (c *Clock) ReadByte(offset uint32) uint8 {
	word := c.ReadWord(offset &^ 1)
	if offset&1 != 0 {
		return uint8(word >> 8)
	}
	return uint8(word)
}

func (c *Clock) WriteWord(offset uint32, value uint16) {
	if offset == 0 {
		c.csr = value & enableBit
	}
}

func (c *Clock) WriteByte(offset uint32, value uint8) {
	word := c.ReadWord(offset &^ 1)
	if offset&1 != 0 {
		word = (word & 0x00ff) | uint16(value)<<8
	} else {
		word = (word & 0xff00) | uint16(value)
	}
	c.WriteWord(offset&^1, word)
}
