/*
 * kek - Format values as octal strings.
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

// Package octal formats PDP-11 addresses and words the way the console,
// debugger and log lines expect to see them: base-8, zero padded to the
// field's natural width.
package octal

import "strings"

// Word formats a 16-bit value as a 6-digit octal string.
func Word(w uint16) string {
	return pad(strconv6(uint32(w)), 6)
}

// Byte formats an 8-bit value as a 3-digit octal string.
func Byte(b uint8) string {
	return pad(strconv6(uint32(b)), 3)
}

// Phys formats a 22-bit physical address as an 8-digit octal string.
func Phys(addr uint32) string {
	return pad(strconv6(addr&0x3fffff), 8)
}

// FormatWords writes space-separated 6-digit octal words to str.
func FormatWords(str *strings.Builder, words []uint16) {
	for i, w := range words {
		if i > 0 {
			str.WriteByte(' ')
		}
		str.WriteString(Word(w))
	}
}

func strconv6(v uint32) string {
	if v == 0 {
		return "0"
	}
	const digits = "01234567"
	var buf [16]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&7]
		v >>= 3
	}
	return string(buf[i:])
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
