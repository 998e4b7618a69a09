/*
 * kek - Operator command parser (HALT/CONT/EXAMINE/DEPOSIT/BOOT)
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

// Package command implements the operator console's command
// language: a short dispatch table matched on unique-prefix, the same
// shape as the teacher's command/parser package, driving a
// machine.Machine instead of an S/370 core.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kek11/kek/cmd/kek/machine"
	"github.com/kek11/kek/octal"
)

type cmd struct {
	name    string
	min     int
	process func(args []string, mc *machine.Machine) (bool, error)
}

var cmdList = []cmd{
	{name: "halt", min: 1, process: halt},
	{name: "continue", min: 1, process: cont},
	{name: "boot", min: 1, process: boot},
	{name: "examine", min: 1, process: examine},
	{name: "deposit", min: 1, process: deposit},
	{name: "quit", min: 1, process: quit},
}

// Process executes one operator command line against mc. The bool
// result is true when the REPL should exit (quit).
func Process(line string, mc *machine.Machine) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name := strings.ToLower(fields[0])

	var match *cmd
	for i := range cmdList {
		c := &cmdList[i]
		if matchName(c.name, name, c.min) {
			if match != nil {
				return false, fmt.Errorf("ambiguous command: %s", name)
			}
			match = c
		}
	}
	if match == nil {
		return false, errors.New("command not found: " + name)
	}
	return match.process(fields[1:], mc)
}

func matchName(full, typed string, min int) bool {
	if len(typed) < min || len(typed) > len(full) {
		return false
	}
	return full[:len(typed)] == typed
}

func halt(_ []string, mc *machine.Machine) (bool, error) {
	mc.Halt()
	return false, nil
}

func cont(_ []string, mc *machine.Machine) (bool, error) {
	mc.Continue()
	return false, nil
}

func boot(args []string, mc *machine.Machine) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("usage: boot <octal-address>")
	}
	addr, err := strconv.ParseUint(args[0], 8, 16)
	if err != nil {
		return false, fmt.Errorf("boot: %w", err)
	}
	mc.Boot(uint16(addr))
	mc.Continue()
	return false, nil
}

func examine(args []string, mc *machine.Machine) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("usage: examine <octal-address>")
	}
	addr, err := strconv.ParseUint(args[0], 8, 32)
	if err != nil {
		return false, fmt.Errorf("examine: %w", err)
	}
	fmt.Printf("%s: %s\n", octal.Phys(uint32(addr)), octal.Word(mc.Examine(uint32(addr))))
	return false, nil
}

func deposit(args []string, mc *machine.Machine) (bool, error) {
	if len(args) != 2 {
		return false, errors.New("usage: deposit <octal-address> <octal-value>")
	}
	addr, err := strconv.ParseUint(args[0], 8, 32)
	if err != nil {
		return false, fmt.Errorf("deposit: %w", err)
	}
	value, err := strconv.ParseUint(args[1], 8, 16)
	if err != nil {
		return false, fmt.Errorf("deposit: %w", err)
	}
	mc.Deposit(uint32(addr), uint16(value))
	return false, nil
}

func quit(_ []string, mc *machine.Machine) (bool, error) {
	mc.Halt()
	return true, nil
}

// Complete returns every command name that starts with the first word
// of line (all names once line ends in a space), for liner's tab
// completion.
func Complete(line string) []string {
	fields := strings.Fields(line)
	prefix := ""
	if len(fields) > 0 && !strings.HasSuffix(line, " ") {
		prefix = strings.ToLower(fields[0])
	}
	var out []string
	for _, c := range cmdList {
		if strings.HasPrefix(c.name, prefix) {
			out = append(out, c.name)
		}
	}
	return out
}
