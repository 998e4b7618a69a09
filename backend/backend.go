/*
 * kek - Disk backend contract and in-memory reference implementation
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

// Package backend defines the disk-backend contract RK05 and RL02
// drive against (local file, NBD client, SD-card are all out-of-scope
// collaborators that would implement it) and ships an in-memory
// reference implementation used by tests and by Memory-only configs.
package backend

import "fmt"

// Backend is the contract a disk image implements. Offsets and
// lengths are always multiples of sectorSize.
type Backend interface {
	// Begin prepares the backend for use; snapshots selects
	// overlay-on-write mode instead of writing through.
	Begin(snapshots bool) bool
	Read(offset, n int64, out []byte, sectorSize int) error
	Write(offset, n int64, in []byte, sectorSize int) error
}

// Memory is an in-memory reference Backend, sized in bytes at
// construction. With snapshots enabled, writes land in an overlay
// keyed by sector index and reads consult the overlay before the base
// image, matching spec §6's disk backend contract.
type Memory struct {
	base      []byte
	overlay   map[int64][]byte
	snapshots bool
}

// NewMemory returns a Memory backend of the given size, zero-filled.
func NewMemory(size int) *Memory {
	return &Memory{base: make([]byte, size)}
}

func (m *Memory) Begin(snapshots bool) bool {
	m.snapshots = snapshots
	if snapshots {
		m.overlay = make(map[int64][]byte)
	}
	return true
}

func (m *Memory) Read(offset, n int64, out []byte, sectorSize int) error {
	if err := checkAligned(offset, n, sectorSize); err != nil {
		return err
	}
	if int64(len(out)) < n {
		return fmt.Errorf("backend: output buffer too small: have %d, need %d", len(out), n)
	}
	for pos := int64(0); pos < n; pos += int64(sectorSize) {
		sector := (offset + pos) / int64(sectorSize)
		copy(out[pos:pos+int64(sectorSize)], m.sector(sector, sectorSize))
	}
	return nil
}

func (m *Memory) Write(offset, n int64, in []byte, sectorSize int) error {
	if err := checkAligned(offset, n, sectorSize); err != nil {
		return err
	}
	if int64(len(in)) < n {
		return fmt.Errorf("backend: input buffer too small: have %d, need %d", len(in), n)
	}
	for pos := int64(0); pos < n; pos += int64(sectorSize) {
		sector := (offset + pos) / int64(sectorSize)
		dst := m.sectorForWrite(sector, sectorSize)
		copy(dst, in[pos:pos+int64(sectorSize)])
	}
	return nil
}

func checkAligned(offset, n int64, sectorSize int) error {
	if sectorSize <= 0 {
		return fmt.Errorf("backend: invalid sector size %d", sectorSize)
	}
	if offset%int64(sectorSize) != 0 || n%int64(sectorSize) != 0 {
		return fmt.Errorf("backend: offset %d / length %d not a multiple of sector size %d", offset, n, sectorSize)
	}
	return nil
}

// sector returns a read-only view of a sector: the overlay copy if
// snapshotting and present, else a slice (zero-extended) of base.
func (m *Memory) sector(index int64, sectorSize int) []byte {
	if m.snapshots {
		if b, ok := m.overlay[index]; ok {
			return b
		}
	}
	start := index * int64(sectorSize)
	if start >= int64(len(m.base)) {
		return make([]byte, sectorSize)
	}
	end := start + int64(sectorSize)
	if end > int64(len(m.base)) {
		buf := make([]byte, sectorSize)
		copy(buf, m.base[start:])
		return buf
	}
	return m.base[start:end]
}

// sectorForWrite returns a writable buffer for sector index: the
// overlay slot (seeded from base) in snapshot mode, else base itself,
// grown as needed.
func (m *Memory) sectorForWrite(index int64, sectorSize int) []byte {
	if m.snapshots {
		if m.overlay[index] == nil {
			buf := make([]byte, sectorSize)
			start := index * int64(sectorSize)
			if start < int64(len(m.base)) {
				end := start + int64(sectorSize)
				if end > int64(len(m.base)) {
					end = int64(len(m.base))
				}
				copy(buf, m.base[start:end])
			}
			m.overlay[index] = buf
		}
		return m.overlay[index]
	}
	start := index * int64(sectorSize)
	end := start + int64(sectorSize)
	for end > int64(len(m.base)) {
		m.base = append(m.base, make([]byte, sectorSize)...)
		end = start + int64(sectorSize)
	}
	return m.base[start:end]
}
