/*
 * kek - UNIBUS device interface
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

// Package device defines the interface every UNIBUS peripheral
// implements, and the interrupt-queue handle devices use to raise a
// prioritized interrupt when they complete work.
package device

// Device is implemented by every peripheral addressable through a
// fixed register window in the I/O page. The bus dispatches byte/word
// read and write to whichever device's window covers the address.
type Device interface {
	// ReadByte/ReadWord/WriteByte/WriteWord access a register at the
	// given offset from the device's base address.
	ReadByte(offset uint32) uint8
	ReadWord(offset uint32) uint16
	WriteByte(offset uint32, value uint8)
	WriteWord(offset uint32, value uint16)

	// Reset restores power-up register state. Called for every device
	// on the bus when the CPU executes RESET.
	Reset()

	// Base returns the device's I/O page base address and the size of
	// its register window in bytes, for bus dispatch.
	Base() (addr uint32, size uint32)
}

// Interrupter is the handle a device holds on the interrupt queue; it
// lets a device raise an interrupt without importing the cpu package
// (which would create an import cycle, since cpu depends on bus which
// depends on device).
type Interrupter interface {
	// Queue enqueues a (level, vector) interrupt request. level is
	// 1-7; vector is the octal trap vector low address.
	Queue(level int, vector uint16)
}
