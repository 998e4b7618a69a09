/*
 * kek - Configuration file parser
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

// Package config is a small recursive-descent parser for the system
// configuration file: one device/model per line, a required first
// argument, and a trailing whitespace-separated list of options, each
// name[=value[,value...]].
//
// Grammar:
//
//	<line>    := <model> <ws> <first> <ws> <options> | '#' <comment>
//	<model>   := <letter> *(<letter>|<digit>)
//	<first>   := <string>                 // unit file path, or bare token
//	<options> := *(<option> <ws>)
//	<option>  := <name> ['=' <value> *(',' <value>)]
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// Option is one `name[=value[,value...]]` token following the first argument.
type Option struct {
	Name  string   // Option name.
	Equal string   // Value after '=', if any.
	Extra []string // Additional comma-separated values.
}

// CreateFunc is registered per device keyword and invoked once per
// matching configuration line.
type CreateFunc func(first string, options []Option) error

var models = map[string]CreateFunc{}

// RegisterModel registers a device keyword (case-insensitive) with the
// function to call when a line names it. cmd/kek/diskconfig calls it
// for RK05 and RL02 once the machine exists, before LoadFile runs.
func RegisterModel(keyword string, fn CreateFunc) {
	models[strings.ToUpper(keyword)] = fn
}

// LoadFile reads and applies every configuration line in name.
func LoadFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	lineNumber := 0
	for {
		text, err := reader.ReadString('\n')
		lineNumber++
		if len(text) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if parseErr := parseLine(text); parseErr != nil {
			return fmt.Errorf("line %d: %w", lineNumber, parseErr)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

type cursor struct {
	line string
	pos  int
}

func parseLine(text string) error {
	c := &cursor{line: text}
	keyword := c.token()
	if keyword == "" {
		return nil
	}

	fn, ok := models[strings.ToUpper(keyword)]
	if !ok {
		return fmt.Errorf("unknown device keyword %q", keyword)
	}

	first := c.token()
	if first == "" {
		return fmt.Errorf("device %q requires a unit argument", keyword)
	}

	options, err := c.parseOptions()
	if err != nil {
		return err
	}
	return fn(first, options)
}

func (c *cursor) skipSpace() {
	for c.pos < len(c.line) && unicode.IsSpace(rune(c.line[c.pos])) {
		c.pos++
	}
}

func (c *cursor) atEOL() bool {
	return c.pos >= len(c.line) || c.line[c.pos] == '#'
}

// token reads a run of non-space, non-comment characters.
func (c *cursor) token() string {
	c.skipSpace()
	if c.atEOL() {
		return ""
	}
	start := c.pos
	for c.pos < len(c.line) && !unicode.IsSpace(rune(c.line[c.pos])) && c.line[c.pos] != '#' && c.line[c.pos] != ',' {
		c.pos++
	}
	return c.line[start:c.pos]
}

func (c *cursor) parseOptions() ([]Option, error) {
	var opts []Option
	for {
		c.skipSpace()
		if c.atEOL() {
			return opts, nil
		}
		start := c.pos
		for c.pos < len(c.line) && c.line[c.pos] != '=' && c.line[c.pos] != ',' && !unicode.IsSpace(rune(c.line[c.pos])) && c.line[c.pos] != '#' {
			c.pos++
		}
		name := c.line[start:c.pos]
		if name == "" {
			return nil, fmt.Errorf("malformed option at column %d", c.pos)
		}
		opt := Option{Name: name}
		if c.pos < len(c.line) && c.line[c.pos] == '=' {
			c.pos++
			opt.Equal = c.token()
			for c.pos < len(c.line) && c.line[c.pos] == ',' {
				c.pos++
				opt.Extra = append(opt.Extra, c.token())
			}
		}
		opts = append(opts, opt)
	}
}
