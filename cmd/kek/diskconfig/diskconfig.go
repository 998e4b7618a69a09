/*
 * kek - RK05/RL02 config-file wiring
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

// Package diskconfig registers the "RK05" and "RL02" config-file
// keywords, the way each emu/model* package registers itself with
// config.RegisterModel in the teacher. Device packages under
// devices/ stay config-agnostic (they know nothing about file images
// or the config grammar); this package is the one place that bridges
// a config.Option line to a constructed controller attached to a
// live machine.Machine, since that machine doesn't exist until main
// has parsed flags and built it.
package diskconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kek11/kek/backend"
	"github.com/kek11/kek/cmd/kek/machine"
	"github.com/kek11/kek/config"
	"github.com/kek11/kek/devices/rk05"
	"github.com/kek11/kek/devices/rl02"
)

// rk05UnitBytes and rl02UnitBytes size a blank unit (openUnits'
// defaultSize) when a config line names a unit file that
// does not yet exist: RK05 packs are 2.5MB, RL02 packs 10MB, rounded
// here to whole sectors.
const (
	rk05UnitBytes = 2_496_512
	rl02UnitBytes = 10_321_920
)

// Register wires RK05 and RL02 config keywords to mc. Call this
// before config.LoadFile.
func Register(mc *machine.Machine) {
	config.RegisterModel("RK05", func(first string, options []config.Option) error {
		units, err := openUnits(first, options, rk05UnitBytes)
		if err != nil {
			return err
		}
		dev := rk05.New(units, mc.Bus, mc.IRQ, mc.Log)
		mc.Attach(dev)
		return nil
	})

	config.RegisterModel("RL02", func(first string, options []config.Option) error {
		units, err := openUnits(first, options, rl02UnitBytes)
		if err != nil {
			return err
		}
		dev := rl02.New(units, mc.Bus, mc.IRQ, mc.Log)
		mc.Attach(dev)
		return nil
	})
}

// openUnits builds one backend per unit: first is a path to the unit0
// image (loaded if it exists, blank of defaultSize otherwise); a
// "units=N" option allocates N-1 additional blank units alongside it,
// and "snapshot" (bare keyword) turns on overlay-on-write mode for
// every unit so the host image is never mutated.
func openUnits(first string, options []config.Option, defaultSize int) ([]backend.Backend, error) {
	count := 1
	snapshot := false
	for _, o := range options {
		switch {
		case strings.EqualFold(o.Name, "units"):
			n, err := strconv.Atoi(o.Equal)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("diskconfig: bad units= value %q", o.Equal)
			}
			count = n
		case strings.EqualFold(o.Name, "snapshot"):
			snapshot = true
		}
	}

	units := make([]backend.Backend, count)
	for i := range units {
		be, err := unitBackend(first, i, defaultSize)
		if err != nil {
			return nil, err
		}
		be.Begin(snapshot)
		units[i] = be
	}
	return units, nil
}

// unitBackend returns the backend.Memory for unit index: unit 0 loads
// first's file contents if first names an existing file, everything
// else (including unit 0 with no file, or index > 0) is a blank image.
func unitBackend(first string, index int, defaultSize int) (*backend.Memory, error) {
	if index != 0 || first == "" {
		return backend.NewMemory(defaultSize), nil
	}
	data, err := os.ReadFile(first)
	if os.IsNotExist(err) {
		return backend.NewMemory(defaultSize), nil
	}
	if err != nil {
		return nil, fmt.Errorf("diskconfig: reading %s: %w", first, err)
	}
	size := len(data)
	if size < defaultSize {
		size = defaultSize
	}
	be := backend.NewMemory(size)
	be.Begin(false)
	if err := be.Write(0, int64(len(data)), data, len(data)); err != nil {
		return nil, fmt.Errorf("diskconfig: loading %s: %w", first, err)
	}
	return be, nil
}
