/*
 * kek - Console collaborator contract
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

// Package console defines the contract the line-discipline/terminal
// collaborator implements (spec §6). The core depends only on this
// interface; the concrete POSIX/ncurses backend is out of scope per
// the Non-goals and lives with whatever front-end wires it in (see
// cmd/kek for the one concrete implementation this repo ships, backed
// by peterh/liner and golang.org/x/term).
package console

import (
	"sync/atomic"
	"time"
)

// Console is what the CPU/TTY side of the emulator needs from the
// operator's terminal.
type Console interface {
	// WaitForChar blocks for up to timeout for one input byte. ok is
	// false on timeout.
	WaitForChar(timeout time.Duration) (b byte, ok bool)

	// PutChar writes one byte without blocking.
	PutChar(b byte)
}

// Activity tracks the two activity flags spec §6 requires the core to
// set so a front-panel collaborator can drive disk-activity LEDs.
// Both fields are accessed from the device goroutine and read from
// whatever goroutine drives the UI, hence the exported setters/getters
// rather than bare fields.
type Activity struct {
	diskRead, diskWrite uint32
}

// SetDiskRead/SetDiskWrite flip the corresponding flag; DiskRead/
// DiskWrite report and clear it. Each flag is a uint32 accessed only
// through sync/atomic, matching spec §9's "export atomics only for the
// two activity booleans".
func (a *Activity) SetDiskRead()    { atomic.StoreUint32(&a.diskRead, 1) }
func (a *Activity) SetDiskWrite()   { atomic.StoreUint32(&a.diskWrite, 1) }
func (a *Activity) DiskRead() bool  { return atomic.SwapUint32(&a.diskRead, 0) != 0 }
func (a *Activity) DiskWrite() bool { return atomic.SwapUint32(&a.diskWrite, 0) != 0 }
