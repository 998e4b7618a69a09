/*
 * kek - Machine: wires CPU, bus, MMU, interrupt queue and devices together
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

// Package machine assembles one runnable PDP-11/70: memory, MMU,
// interrupt queue, CPU and bus, plus the run/halt state the operator
// console (cmd/kek/command) drives. It is the thing main.go builds and
// the thing config.RegisterModel callbacks attach devices to.
package machine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kek11/kek/bus"
	"github.com/kek11/kek/cpu"
	"github.com/kek11/kek/device"
	"github.com/kek11/kek/interrupt"
	"github.com/kek11/kek/memory"
	"github.com/kek11/kek/mmu"
)

// Machine owns the running PDP-11/70 and its run/halt flag. CPU is
// exported so callers can read registers directly (EXAMINE itself
// reads memory through Examine); everything that mutates run state goes through Machine's
// own methods, which are safe to call from the operator goroutine
// while Run spins on a different one.
type Machine struct {
	Memory *memory.Memory
	MMU    *mmu.MMU
	IRQ    *interrupt.Queue
	Bus    *bus.Bus
	CPU    *cpu.CPU
	Log    *slog.Logger

	running uint32
	stop    chan struct{}
	mu      sync.Mutex
}

// New builds a complete, unattached machine: memory of size bytes,
// fresh MMU and interrupt queue, a CPU attached to a bus over that
// memory. Devices are added afterward with Attach.
func New(size uint32, log *slog.Logger) *Machine {
	mem := memory.New(size)
	m := mmu.New(log)
	irq := interrupt.New()
	c := cpu.New(m, irq, log)
	b := bus.New(mem, m, irq, c, log)
	c.AttachBus(b)

	return &Machine{Memory: mem, MMU: m, IRQ: irq, Bus: b, CPU: c, Log: log}
}

// Attach registers a device's I/O page window on the bus.
func (mc *Machine) Attach(dev device.Device) { mc.Bus.Attach(dev) }

// Running reports whether Run's instruction loop is currently spinning.
func (mc *Machine) Running() bool { return atomic.LoadUint32(&mc.running) != 0 }

// Run starts the fetch/execute loop on the calling goroutine, stepping
// the CPU until Halt is called or the CPU halts itself (HALT in
// kernel mode). It returns once stopped.
func (mc *Machine) Run() {
	mc.mu.Lock()
	if mc.Running() {
		mc.mu.Unlock()
		return
	}
	atomic.StoreUint32(&mc.running, 1)
	mc.stop = make(chan struct{})
	stop := mc.stop
	mc.mu.Unlock()

	defer atomic.StoreUint32(&mc.running, 0)

	for {
		select {
		case <-stop:
			return
		default:
		}
		if mc.CPU.Halted || mc.CPU.Terminate {
			return
		}
		mc.CPU.Step()
	}
}

// Halt stops a running Run loop; it does not touch CPU.Halted, which
// is PDP-11 HALT-instruction state, not "operator stopped the clock".
func (mc *Machine) Halt() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if mc.stop != nil {
		select {
		case <-mc.stop:
		default:
			close(mc.stop)
		}
	}
}

// Continue clears both HALT states and restarts Run on a new
// goroutine; it returns immediately.
func (mc *Machine) Continue() {
	mc.CPU.Halted = false
	mc.CPU.Terminate = false
	go mc.Run()
}

// Boot sets PC to addr and clears halt state, ready for Continue.
func (mc *Machine) Boot(addr uint16) {
	mc.CPU.SetGPR(7, addr)
	mc.CPU.Halted = false
	mc.CPU.Terminate = false
}

// Examine reads one word of physical memory directly, bypassing MMU
// translation -- the operator console's EXAMINE works on physical
// addresses, the same way the real front panel's switches do.
func (mc *Machine) Examine(addr uint32) uint16 {
	return mc.Bus.ReadWordPhysical(addr)
}

// Deposit writes one word of physical memory directly, for DEPOSIT.
func (mc *Machine) Deposit(addr uint32, value uint16) {
	mc.Bus.WriteWordPhysical(addr, value)
}

// WaitIdle blocks until Run is no longer looping, for tests and for a
// clean shutdown sequence in main.
func (mc *Machine) WaitIdle(poll time.Duration) {
	for mc.Running() {
		time.Sleep(poll)
	}
}
