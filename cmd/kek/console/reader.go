/*
 * kek - Operator console reader (liner-backed REPL)
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

package console

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/peterh/liner"

	"github.com/kek11/kek/cmd/kek/command"
	"github.com/kek11/kek/cmd/kek/machine"
)

// Reader runs the HALT/CONT/EXAMINE/DEPOSIT/BOOT operator prompt on
// the calling goroutine. After a command that starts the machine
// (continue, boot) it hands the terminal to term in raw passthrough
// mode, feeding keystrokes to tty, until the machine halts again or
// the operator breaks out with CTRL-C -- then it comes back for
// another command line. It returns when the operator types quit.
func Reader(mc *machine.Machine, term *Term, tty TTYInput) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(l string) []string {
		return command.Complete(l)
	})

	for {
		text, err := line.Prompt("kek> ")
		if err == nil {
			line.AppendHistory(text)
			quit, perr := command.Process(text, mc)
			if perr != nil {
				fmt.Println("error: " + perr.Error())
			}
			if quit {
				return
			}
			if mc.Running() {
				runPassthroughUntilHalted(mc, term, tty)
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		slog.Error("error reading line: " + err.Error())
		return
	}
}

// runPassthroughUntilHalted hands the terminal to term for as long as
// mc is running, polling for halt since the CPU loop has no event to
// push on its own.
func runPassthroughUntilHalted(mc *machine.Machine, term *Term, tty TTYInput) {
	stop := make(chan struct{})
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		for mc.Running() {
			time.Sleep(20 * time.Millisecond)
		}
		close(stop)
	}()

	term.RunPassthrough(tty, stop)
	mc.Halt()
	<-watchDone
}
