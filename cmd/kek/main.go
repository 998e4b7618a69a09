/*
 * kek - PDP-11/70 emulator entrypoint
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

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	getopt "github.com/pborman/getopt/v2"

	kekconsole "github.com/kek11/kek/cmd/kek/console"
	"github.com/kek11/kek/cmd/kek/diskconfig"
	"github.com/kek11/kek/cmd/kek/machine"
	"github.com/kek11/kek/config"
	"github.com/kek11/kek/devices/clk"
	"github.com/kek11/kek/devices/timer"
	"github.com/kek11/kek/devices/tty"
	"github.com/kek11/kek/logger"
)

// defaultMemoryBytes is 4MB, the 22-bit UNIBUS's full physical reach;
// a smaller config.Option ("memsize=...") is not wired -- the spec's
// memory is sized once at construction and config lines only attach
// devices.
const defaultMemoryBytes = 4 * 1024 * 1024

// lineFrequency is the KW11-L's fixed tick rate. 60Hz is the North
// American line frequency the original hardware counted.
const lineFrequency = 60

// timerTickInterval drives the KW11-P; the real device counts a
// crystal-derived rate selectable in microseconds, which this
// emulator does not model cycle-accurately, so it ticks at a fixed
// 1kHz regardless of the configured divisor.
const timerTickInterval = time.Millisecond

func main() {
	optConfig := getopt.StringLong("config", 'c', "kek.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'd', "Enable debug logging")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		var err error
		file, err = os.Create(*optLogFile)
		if err != nil {
			slog.Error("creating log file", "path", *optLogFile, "error", err)
			os.Exit(1)
		}
	}
	log := logger.New(file, *optDebug)
	slog.SetDefault(log)
	log.Info("kek started")

	mc := machine.New(defaultMemoryBytes, log)

	term := kekconsole.New()
	ttyDev := tty.New(term, mc.IRQ, log)
	mc.Attach(ttyDev)

	clockDev := clk.New(mc.IRQ)
	mc.Attach(clockDev)
	timerDev := timer.New(mc.IRQ)
	mc.Attach(timerDev)

	diskconfig.Register(mc)

	if _, err := os.Stat(*optConfig); err == nil {
		if err := config.LoadFile(*optConfig); err != nil {
			log.Error("loading configuration", "file", *optConfig, "error", err)
			os.Exit(1)
		}
	} else {
		log.Info("no configuration file, running with console/clock/timer only", "file", *optConfig)
	}

	stopTicking := make(chan struct{})
	go tickDevices(clockDev, timerDev, stopTicking)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		mc.Halt()
	}()

	kekconsole.Reader(mc, term, ttyDev)

	close(stopTicking)
	mc.Halt()
	mc.WaitIdle(10 * time.Millisecond)
	log.Info("kek shutting down")
}

// tickDevices drives the KW11-L and KW11-P at their fixed rates until
// stop is closed. Both Tick methods are safe to call from a goroutine
// other than the CPU's: they only touch the device's own registers
// and the interrupt queue, both already synchronized for concurrent
// device access (spec §5).
func tickDevices(clockDev *clk.Clock, timerDev *timer.Timer, stop <-chan struct{}) {
	lineTicker := time.NewTicker(time.Second / lineFrequency)
	defer lineTicker.Stop()
	timerTicker := time.NewTicker(timerTickInterval)
	defer timerTicker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-lineTicker.C:
			clockDev.Tick()
		case <-timerTicker.C:
			timerDev.Tick()
		}
	}
}

