/*
 * kek - RK05 disk controller
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

// Package rk05 implements the RK11/RK05 cartridge-disk controller:
// DS, ERROR, CS, WC, BA, DA, DATABUF over a seven-word register window,
// driving a backend.Backend for the actual sector I/O.
package rk05

import (
	"log/slog"

	"github.com/kek11/kek/backend"
	"github.com/kek11/kek/device"
)

const (
	Base = 0o177400
	Size = 14

	offDS  = 0
	offERR = 2
	offCS  = 4
	offWC  = 6
	offBA  = 010
	offDA  = 012
	offBUF = 014

	SectorSize      = 512
	sectorsPerTrack = 12

	csGo       uint16 = 1 << 0
	csFuncMask uint16 = 0x7 << 1
	csFuncShift        = 1
	csBAHiMask uint16 = 0x3 << 4
	csBAHiShift        = 4
	csIE       uint16 = 1 << 6
	csReady    uint16 = 1 << 7
	csSearch   uint16 = 1 << 13
	csInhibit  uint16 = 1 << 11

	dsReady uint16 = 1 << 6
	dsUnit  uint16 = 0x7 << 13
	dsUnitShift    = 13

	funcReset     = 0
	funcWrite     = 1
	funcRead      = 2
	funcSeek      = 4
	funcWriteLock = 7

	vectorRK = 0o220
	levelRK  = 5
)

// BusAccess is the subset of bus access RK05 needs to move data to
// and from main memory; implemented by *bus.Bus in production and by
// a fake in tests, avoiding an import of bus (which would cycle back
// through device).
type BusAccess interface {
	ReadWordPhysical(addr uint32) uint16
	WriteWordPhysical(addr uint32, value uint16)
}

// RK05 is one RK11 controller driving one or more backend units. Unit
// is selected by DA bits 15-13.
type RK05 struct {
	ds uint16
	er uint16
	cs uint16
	wc uint16
	ba uint16
	da uint16
	buf uint16

	units []backend.Backend
	bus   BusAccess
	irq   device.Interrupter
	log   *slog.Logger
}

func New(units []backend.Backend, bus BusAccess, irq device.Interrupter, log *slog.Logger) *RK05 {
	if log == nil {
		log = slog.Default()
	}
	r := &RK05{units: units, bus: bus, irq: irq, log: log}
	r.Reset()
	return r
}

func (r *RK05) Base() (uint32, uint32) { return Base, Size }

func (r *RK05) Reset() {
	r.ds = dsReady
	r.er = 0
	r.cs = csReady
	r.wc = 0
	r.ba = 0
	r.da = 0
	r.buf = 0
}

func (r *RK05) ReadWord(offset uint32) uint16 {
	switch offset {
	case offDS:
		return r.ds
	case offERR:
		return r.er
	case offCS:
		return r.cs
	case offWC:
		return r.wc
	case offBA:
		return r.ba
	case offDA:
		return r.da
	case offBUF:
		return r.buf
	}
	return 0
}

func (r *RK05) ReadByte(offset uint32) uint8 {
	word := r.ReadWord(offset &^ 1)
	if offset&1 != 0 {
		return uint8(word >> 8)
	}
	return uint8(word)
}

func (r *RK05) WriteWord(offset uint32, value uint16) {
	switch offset {
	case offCS:
		r.cs = (r.cs &^ (csFuncMask | csBAHiMask | csIE | csInhibit)) | (value & (csFuncMask | csBAHiMask | csIE | csInhibit))
		if value&csGo != 0 {
			r.execute()
		}
	case offWC:
		r.wc = value
	case offBA:
		r.ba = value
	case offDA:
		r.da = value
	case offBUF:
		r.buf = value
	}
}

func (r *RK05) WriteByte(offset uint32, value uint8) {
	word := r.ReadWord(offset &^ 1)
	if offset&1 != 0 {
		word = (word & 0x00ff) | uint16(value)<<8
	} else {
		word = (word & 0xff00) | uint16(value)
	}
	r.WriteWord(offset&^1, word)
}

// execute dispatches the function field, per spec §4.4.2.
func (r *RK05) execute() {
	fn := (r.cs & csFuncMask) >> csFuncShift

	switch fn {
	case funcReset:
		r.Reset()
	case funcWrite:
		r.transfer(true)
	case funcRead:
		r.transfer(false)
	case funcSeek:
		r.cs |= csSearch
		r.complete()
	case funcWriteLock:
		r.complete()
	default:
		r.complete()
	}
}

// transfer moves |WC| words (WC is a two's-complement negative count)
// between main memory and the backend at the disk address currently
// latched in DA, advancing sector->surface->cylinder afterward.
func (r *RK05) transfer(write bool) {
	unit := int((r.da & dsUnit) >> dsUnitShift)
	if unit >= len(r.units) || r.units[unit] == nil {
		r.er |= 1
		r.complete()
		return
	}

	words := int(-int16(r.wc))
	nBytes := int64(words * 2)
	if nBytes <= 0 {
		r.complete()
		return
	}

	sector := r.da & 0xf
	surface := (r.da >> 4) & 1
	cylinder := (r.da >> 5) & 0xff
	logicalSector := int64(cylinder)*sectorsPerTrack*2 + int64(surface)*sectorsPerTrack + int64(sector)
	diskOffset := logicalSector * SectorSize

	// Round the transfer up to whole sectors; RK05 transfers are
	// normally sector-aligned in practice.
	alignedLen := ((nBytes + SectorSize - 1) / SectorSize) * SectorSize

	busAddr := uint32(r.ba) | uint32(r.cs&csBAHiMask)<<(16-csBAHiShift)

	buf := make([]byte, alignedLen)
	if write {
		r.readFromMemory(busAddr, buf, nBytes)
		if err := r.units[unit].Write(diskOffset, alignedLen, buf, SectorSize); err != nil {
			r.er |= 1
			r.log.Error("rk05 write failed", "error", err)
		}
	} else {
		if err := r.units[unit].Read(diskOffset, alignedLen, buf, SectorSize); err != nil {
			r.er |= 1
			r.log.Error("rk05 read failed", "error", err)
		}
		r.writeToMemory(busAddr, buf, nBytes)
	}

	next := logicalSector + alignedLen/SectorSize
	r.da = (r.da & dsUnit) | uint16(next/(sectorsPerTrack*2)&0xff)<<5 |
		uint16(next/sectorsPerTrack%2)<<4 | uint16(next%sectorsPerTrack)

	r.wc = 0
	r.complete()
}

func (r *RK05) readFromMemory(addr uint32, buf []byte, n int64) {
	inhibit := r.cs&csInhibit != 0
	for i := int64(0); i+1 < n; i += 2 {
		v := r.bus.ReadWordPhysical(addr)
		buf[i] = byte(v)
		buf[i+1] = byte(v >> 8)
		if !inhibit {
			addr += 2
		}
	}
}

func (r *RK05) writeToMemory(addr uint32, buf []byte, n int64) {
	inhibit := r.cs&csInhibit != 0
	for i := int64(0); i+1 < n; i += 2 {
		v := uint16(buf[i]) | uint16(buf[i+1])<<8
		r.bus.WriteWordPhysical(addr, v)
		if !inhibit {
			addr += 2
		}
	}
}

// complete sets the drive-ready and controller-ready bits and, if IE,
// queues the completion interrupt with the unit latched into DS.
func (r *RK05) complete() {
	r.ds |= dsReady
	r.cs |= csReady
	if r.cs&csIE != 0 {
		unit := (r.da & dsUnit)
		r.ds = (r.ds &^ dsUnit) | unit
		r.irq.Queue(levelRK, vectorRK)
	}
}
