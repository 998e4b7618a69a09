/*
 * kek - Operator terminal: raw-mode passthrough console
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

// Package console is cmd/kek's concrete implementation of the
// console.Console and devices/tty.Printer contracts. One terminal
// serves two purposes: raw byte passthrough to the simulated KL11
// while the machine runs, and liner's own line editing for the
// operator's HALT/CONT/EXAMINE/DEPOSIT/BOOT prompt (cmd/kek/console's
// Reader) while it doesn't. Term toggles raw mode around whichever one
// currently owns the terminal, mirroring the termios save/restore
// approach in smoynes-elsie's cmd/internal/tty.
package console

import (
	"os"
	"time"

	"golang.org/x/term"
)

// breakByte is typed by the operator to drop passthrough back to the
// command prompt; since RunPassthrough puts the terminal in raw mode,
// the kernel never turns this into SIGINT for us, so the pump loop
// watches for it itself.
const breakByte = 0x03 // CTRL-C

// Term is a console.Console and devices/tty.Printer backed by the
// process's own stdin/stdout.
type Term struct {
	in  *os.File
	out *os.File
}

// New wraps the process's stdin/stdout. The terminal starts in
// whatever mode the shell left it in (cooked), suitable for liner.
func New() *Term {
	return &Term{in: os.Stdin, out: os.Stdout}
}

// TTYInput is the subset of devices/tty.TTY that passthrough feeds.
type TTYInput interface {
	Input(b byte)
}

// RunPassthrough puts the terminal in raw mode and forwards every byte
// typed to dev.Input, until the operator types CTRL-C or stop is
// closed, at which point it restores cooked mode and returns.
func (t *Term) RunPassthrough(dev TTYInput, stop <-chan struct{}) error {
	fd := int(t.in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, state)

	ch := make(chan byte, 16)
	done := make(chan struct{})
	defer close(done)
	go pump(t.in, ch, done)

	for {
		select {
		case <-stop:
			return nil
		case b := <-ch:
			if b == breakByte {
				return nil
			}
			dev.Input(b)
		}
	}
}

// pump reads one byte at a time from in and forwards it to ch until
// in returns an error or done is closed.
func pump(in *os.File, ch chan<- byte, done <-chan struct{}) {
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			select {
			case ch <- buf[0]:
			case <-done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// WaitForChar implements console.Console for callers that want a
// single polled read outside of RunPassthrough (tests, alternate
// front ends); it does not toggle raw mode itself.
func (t *Term) WaitForChar(timeout time.Duration) (byte, bool) {
	ch := make(chan byte, 1)
	go func() {
		buf := make([]byte, 1)
		if n, _ := t.in.Read(buf); n > 0 {
			ch <- buf[0]
		}
	}()
	select {
	case b := <-ch:
		return b, true
	case <-time.After(timeout):
		return 0, false
	}
}

// PutChar implements console.Console.
func (t *Term) PutChar(b byte) { t.out.Write([]byte{b}) }

// Print implements devices/tty.Printer by way of PutChar, so the TTY
// device and the Console contract share one terminal sink.
func (t *Term) Print(b byte) { t.PutChar(b) }
