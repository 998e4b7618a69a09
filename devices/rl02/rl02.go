/*
 * kek - RL02 disk controller
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

// Package rl02 implements the RL11/RL02 cartridge-disk controller.
// Its register set and function-field decode are analogous to rk05's
// (spec §4.4.2), differing in base address, vector, sector geometry,
// and that byte writes perform a word read-modify-write on the target
// register rather than addressing a byte lane directly.
package rl02

import (
	"log/slog"

	"github.com/kek11/kek/backend"
	"github.com/kek11/kek/device"
)

const (
	Base = 0o174400
	Size = 8

	offCS  = 0
	offBA  = 2
	offDA  = 4
	offWC  = 6

	SectorSize      = 512
	sectorsPerTrack = 40

	csGo       uint16 = 1 << 0
	csFuncMask uint16 = 0x7 << 1
	csFuncShift        = 1
	csBAHiMask uint16 = 0x3 << 4
	csBAHiShift        = 4
	csIE       uint16 = 1 << 6
	csReady    uint16 = 1 << 7
	csSearch   uint16 = 1 << 13

	funcReset     = 0
	funcWrite     = 1
	funcRead      = 2
	funcSeek      = 4
	funcWriteLock = 7

	vectorRL = 0o160
	levelRL  = 5
)

// BusAccess mirrors rk05.BusAccess: DMA access to physical memory by
// UNIBUS address, without importing bus.
type BusAccess interface {
	ReadWordPhysical(addr uint32) uint16
	WriteWordPhysical(addr uint32, value uint16)
}

// RL02 is one RL11 controller holding one or more backend units;
// drive select is not decoded, so every transfer goes to units[0].
type RL02 struct {
	cs uint16
	ba uint16
	da uint16
	wc uint16

	units []backend.Backend
	bus   BusAccess
	irq   device.Interrupter
	log   *slog.Logger
}

func New(units []backend.Backend, bus BusAccess, irq device.Interrupter, log *slog.Logger) *RL02 {
	if log == nil {
		log = slog.Default()
	}
	r := &RL02{units: units, bus: bus, irq: irq, log: log}
	r.Reset()
	return r
}

func (r *RL02) Base() (uint32, uint32) { return Base, Size }

func (r *RL02) Reset() {
	r.cs = csReady
	r.ba = 0
	r.da = 0
	r.wc = 0
}

func (r *RL02) ReadWord(offset uint32) uint16 {
	switch offset {
	case offCS:
		return r.cs
	case offBA:
		return r.ba
	case offDA:
		return r.da
	case offWC:
		return r.wc
	}
	return 0
}

func (r *RL02) ReadByte(offset uint32) uint8 {
	word := r.ReadWord(offset &^ 1)
	if offset&1 != 0 {
		return uint8(word >> 8)
	}
	return uint8(word)
}

func (r *RL02) WriteWord(offset uint32, value uint16) {
	switch offset {
	case offCS:
		r.cs = (r.cs &^ (csFuncMask | csBAHiMask | csIE)) | (value & (csFuncMask | csBAHiMask | csIE))
		if value&csGo != 0 {
			r.execute()
		}
	case offBA:
		r.ba = value
	case offDA:
		r.da = value
	case offWC:
		r.wc = value
	}
}

// WriteByte always round-trips through a word read-modify-write, per
// spec §4.4.2's RL02 note, rather than addressing a byte lane the way
// rk05's WriteByte does.
func (r *RL02) WriteByte(offset uint32, value uint8) {
	base := offset &^ 1
	word := r.ReadWord(base)
	if offset&1 != 0 {
		word = (word & 0x00ff) | uint16(value)<<8
	} else {
		word = (word & 0xff00) | uint16(value)
	}
	r.WriteWord(base, word)
}

func (r *RL02) execute() {
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

func (r *RL02) transfer(write bool) {
	unit := 0 // RL11 selects the unit via a separate drive-select field not modeled here
	if unit >= len(r.units) || r.units[unit] == nil {
		r.complete()
		return
	}

	words := int(-int16(r.wc))
	nBytes := int64(words * 2)
	if nBytes <= 0 {
		r.complete()
		return
	}

	sector := r.da & 0x3f
	cylinder := (r.da >> 6) & 0x3ff
	logicalSector := int64(cylinder)*sectorsPerTrack + int64(sector)
	diskOffset := logicalSector * SectorSize

	alignedLen := ((nBytes + SectorSize - 1) / SectorSize) * SectorSize
	busAddr := uint32(r.ba) | uint32(r.cs&csBAHiMask)<<(16-csBAHiShift)

	buf := make([]byte, alignedLen)
	if write {
		for i := int64(0); i+1 < nBytes; i += 2 {
			v := r.bus.ReadWordPhysical(busAddr)
			buf[i] = byte(v)
			buf[i+1] = byte(v >> 8)
			busAddr += 2
		}
		if err := r.units[unit].Write(diskOffset, alignedLen, buf, SectorSize); err != nil {
			r.log.Error("rl02 write failed", "error", err)
		}
	} else {
		if err := r.units[unit].Read(diskOffset, alignedLen, buf, SectorSize); err != nil {
			r.log.Error("rl02 read failed", "error", err)
		}
		for i := int64(0); i+1 < nBytes; i += 2 {
			v := uint16(buf[i]) | uint16(buf[i+1])<<8
			r.bus.WriteWordPhysical(busAddr, v)
			busAddr += 2
		}
	}

	r.wc = 0
	r.complete()
}

func (r *RL02) complete() {
	r.cs |= csReady
	if r.cs&csIE != 0 {
		r.irq.Queue(levelRL, vectorRL)
	}
}
