/*
 * kek - Low level physical memory
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

// Package memory is the flat, byte-addressable physical RAM array. It
// knows nothing about virtual addresses, devices or the I/O page -- the
// bus is the only caller and is responsible for bounds checking and
// routing.
package memory

// Memory is a contiguous physical RAM array. Word operations are
// little-endian: the low byte lives at the even address.
type Memory struct {
	data []byte
}

// New allocates a Memory of size bytes, zero-initialized.
func New(size uint32) *Memory {
	return &Memory{data: make([]byte, size)}
}

// Size returns the number of physical bytes backing this array.
func (m *Memory) Size() uint32 {
	return uint32(len(m.data))
}

// ReadByte returns the byte at addr. The caller must have already
// bounds-checked addr against Size().
func (m *Memory) ReadByte(addr uint32) byte {
	return m.data[addr]
}

// WriteByte stores value at addr.
func (m *Memory) WriteByte(addr uint32, value byte) {
	m.data[addr] = value
}

// ReadWord returns the 16-bit word at addr, low byte first. addr is not
// realigned if odd -- odd-address word access is a bus-level trap
// condition, never silently corrected here.
func (m *Memory) ReadWord(addr uint32) uint16 {
	lo := uint16(m.data[addr])
	hi := uint16(m.data[addr+1])
	return lo | (hi << 8)
}

// WriteWord stores a 16-bit word at addr, low byte first.
func (m *Memory) WriteWord(addr uint32, value uint16) {
	m.data[addr] = byte(value)
	m.data[addr+1] = byte(value >> 8)
}

// Reset zeroes the entire array.
func (m *Memory) Reset() {
	clear(m.data)
}
