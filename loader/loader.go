/*
 * kek - BIC absolute loader format
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

// Package loader implements the BIC absolute loader tape format used
// to bootstrap programs into memory (spec §6): a 6-byte header
// {0x01, 0x00, count_lo, count_hi, addr_lo, addr_hi}, a payload, and a
// trailing checksum byte.
package loader

import "fmt"

// Record is one decoded block: either a data block (Addr/Data set), a
// start-PC record (Start true, Addr is the entry PC), or the
// terminating record (Terminate true).
type Record struct {
	Addr      uint16
	Data      []byte
	Start     bool
	Terminate bool
}

// Memory is the target the loader deposits bytes into.
type Memory interface {
	WriteByte(addr uint32, value byte)
}

// Encode produces a single absolute-loader record carrying data at
// addr, in the format Decode expects.
func Encode(addr uint16, data []byte) []byte {
	count := len(data) + 6
	out := make([]byte, 0, count+1)
	out = append(out, 0x01, 0x00, byte(count), byte(count>>8), byte(addr), byte(addr>>8))
	out = append(out, data...)
	out = append(out, checksum(out[2:]))
	return out
}

// EncodeStart produces the record that sets the start PC: count = 6,
// address = the entry point (must not be 1, which is reserved for the
// terminating record).
func EncodeStart(pc uint16) []byte {
	if pc == 1 {
		panic("loader: start PC of 1 collides with the terminator record")
	}
	hdr := []byte{0x01, 0x00, 6, 0, byte(pc), byte(pc >> 8)}
	return append(hdr, checksum(hdr[2:]))
}

// EncodeTerminate produces the record that ends a load: count = 6,
// address = 1.
func EncodeTerminate() []byte {
	hdr := []byte{0x01, 0x00, 6, 0, 1, 0}
	return append(hdr, checksum(hdr[2:]))
}

func checksum(bodyAndHeaderTail []byte) byte {
	var sum byte
	for _, b := range bodyAndHeaderTail {
		sum += b
	}
	return byte(256 - int(sum)&0xff)
}

// Decode reads one record from tape and returns it along with the
// number of bytes consumed. It does not deposit into memory; callers
// drive a Memory sink with the returned Record (or use Load to decode
// and deposit an entire tape image in one pass).
func Decode(tape []byte) (Record, int, error) {
	if len(tape) < 6 {
		return Record{}, 0, fmt.Errorf("loader: short header: have %d bytes, need 6", len(tape))
	}
	if tape[0] != 0x01 || tape[1] != 0x00 {
		return Record{}, 0, fmt.Errorf("loader: bad magic %02x %02x", tape[0], tape[1])
	}
	count := int(tape[2]) | int(tape[3])<<8
	addr := uint16(tape[4]) | uint16(tape[5])<<8
	if count < 6 {
		return Record{}, 0, fmt.Errorf("loader: count %d shorter than header", count)
	}
	total := count + 1 // +1 for the trailing checksum byte
	if len(tape) < total {
		return Record{}, 0, fmt.Errorf("loader: truncated record: have %d bytes, need %d", len(tape), total)
	}

	body := tape[2:count]
	gotChecksum := tape[count]
	if want := checksum(body); want != gotChecksum {
		return Record{}, 0, fmt.Errorf("loader: checksum mismatch: got %#x, want %#x", gotChecksum, want)
	}

	if count == 6 {
		if addr == 1 {
			return Record{Terminate: true}, total, nil
		}
		return Record{Start: true, Addr: addr}, total, nil
	}

	data := make([]byte, count-6)
	copy(data, tape[6:count])
	return Record{Addr: addr, Data: data}, total, nil
}

// Load decodes every record in tape and deposits data records into
// mem, returning the start PC from the last start record seen, or
// false if the tape never sets one.
func Load(tape []byte, mem Memory) (startPC uint16, hasStart bool, err error) {
	for len(tape) > 0 {
		rec, n, err := Decode(tape)
		if err != nil {
			return 0, false, err
		}
		switch {
		case rec.Terminate:
			return startPC, hasStart, nil
		case rec.Start:
			startPC, hasStart = rec.Addr, true
		default:
			for i, b := range rec.Data {
				mem.WriteByte(uint32(rec.Addr)+uint32(i), b)
			}
		}
		tape = tape[n:]
	}
	return startPC, hasStart, nil
}
