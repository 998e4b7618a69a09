/*
 * kek - TTY: single local console (TKS/TKB/TPS/TPB)
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

// Package tty implements the KL11-style console: a reader half (TKS,
// TKB) fed by the console collaborator's input queue, and a punch half
// (TPS, TPB) that prints through the same collaborator. Register
// layout and interrupt vectors follow the PDP-11/70 console UART.
package tty

import (
	"log/slog"
	"sync"

	"github.com/kek11/kek/device"
)

const (
	Base = 0o177560
	Size = 8

	offTKS = 0
	offTKB = 2
	offTPS = 4
	offTPB = 6

	statusDone uint16 = 1 << 7
	statusIE   uint16 = 1 << 6

	vectorReader = 0o060
	vectorPunch  = 0o064
	levelReader  = 4
	levelPunch   = 4
)

// Printer is the console collaborator's output sink; Print is called
// synchronously from WriteWord/WriteByte on TPB.
type Printer interface {
	Print(b byte)
}

// TTY is the console device. Input arrives via Input, called by the
// collaborator's reader goroutine; everything else runs on the CPU's
// goroutine through the Device interface, so regMu only guards the
// handful of fields Input and the register reads share.
type TTY struct {
	regMu sync.Mutex
	tks   uint16
	tkb   uint16
	tps   uint16
	tpb   uint16

	printer Printer
	irq     device.Interrupter
	log     *slog.Logger
}

func New(printer Printer, irq device.Interrupter, log *slog.Logger) *TTY {
	if log == nil {
		log = slog.Default()
	}
	t := &TTY{printer: printer, irq: irq, log: log}
	t.Reset()
	return t
}

func (t *TTY) Base() (uint32, uint32) { return Base, Size }

// Input is called by the console collaborator's reader when a byte
// arrives. It sets DONE and, if IE is set, queues the reader
// interrupt -- matching spec §4.4.1/§5's "short critical section"
// requirement.
func (t *TTY) Input(b byte) {
	t.regMu.Lock()
	t.tkb = uint16(b)
	wasIE := t.tks&statusIE != 0
	t.tks |= statusDone
	t.regMu.Unlock()

	if wasIE {
		t.irq.Queue(levelReader, vectorReader)
	}
}

func (t *TTY) Reset() {
	t.regMu.Lock()
	defer t.regMu.Unlock()
	t.tks = 0
	t.tkb = 0
	t.tps = statusDone // puncher is always ready for the next character
	t.tpb = 0
}

func (t *TTY) ReadWord(offset uint32) uint16 {
	t.regMu.Lock()
	defer t.regMu.Unlock()
	switch offset {
	case offTKS:
		return t.tks
	case offTKB:
		v := t.tkb
		t.tks &^= statusDone
		return v
	case offTPS:
		return t.tps
	case offTPB:
		return t.tpb
	}
	return 0
}

func (t *TTY) ReadByte(offset uint32) uint8 {
	word := t.ReadWord(offset &^ 1)
	if offset&1 != 0 {
		return uint8(word >> 8)
	}
	return uint8(word)
}

// peekWord returns a register's raw value without the read-side
// effects ReadWord applies (TKB's DONE-clear-on-read); used for the
// read half of WriteByte's read-modify-write so a byte write never
// triggers a read-side effect on the other byte of the same word.
func (t *TTY) peekWord(offset uint32) uint16 {
	t.regMu.Lock()
	defer t.regMu.Unlock()
	switch offset {
	case offTKS:
		return t.tks
	case offTKB:
		return t.tkb
	case offTPS:
		return t.tps
	case offTPB:
		return t.tpb
	}
	return 0
}

func (t *TTY) WriteWord(offset uint32, value uint16) {
	switch offset {
	case offTKS:
		t.regMu.Lock()
		t.tks = (t.tks &^ statusIE) | (value & statusIE)
		t.regMu.Unlock()
	case offTPS:
		t.regMu.Lock()
		t.tps = (t.tps &^ statusIE) | (value & statusIE)
		t.regMu.Unlock()
	case offTPB:
		t.writeTPB(value)
	}
}

func (t *TTY) WriteByte(offset uint32, value uint8) {
	word := t.peekWord(offset &^ 1)
	if offset&1 != 0 {
		word = (word & 0x00ff) | uint16(value)<<8
	} else {
		word = (word & 0xff00) | uint16(value)
	}
	t.WriteWord(offset&^1, word)
}

// writeTPB prints the low byte, then briefly clears DONE before
// restoring it and queuing the punch interrupt, matching the "clear
// TPS bit 7 briefly, then restore" wording in spec §4.4.1.
func (t *TTY) writeTPB(value uint16) {
	t.regMu.Lock()
	t.tpb = value & 0xff
	t.tps &^= statusDone
	ie := t.tps&statusIE != 0
	t.regMu.Unlock()

	if t.printer != nil {
		t.printer.Print(byte(value))
	}

	t.regMu.Lock()
	t.tps |= statusDone
	t.regMu.Unlock()

	if ie {
		t.irq.Queue(levelPunch, vectorPunch)
	}
}
