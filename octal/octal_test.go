package octal

import (
	"strings"
	"testing"
)

func TestWordPadsToSixDigits(t *testing.T) {
	cases := map[uint16]string{
		0:      "000000",
		0o7:    "000007",
		0o1000: "001000",
		0xffff: "177777",
	}
	for in, want := range cases {
		if got := Word(in); got != want {
			t.Fatalf("Word(%#o) = %q, want %q", in, got, want)
		}
	}
}

func TestBytePadsToThreeDigits(t *testing.T) {
	if got := Byte(0o17); got != "017" {
		t.Fatalf("Byte(0o17) = %q, want 017", got)
	}
	if got := Byte(0xff); got != "377" {
		t.Fatalf("Byte(0xff) = %q, want 377", got)
	}
}

func TestPhysMasksTo22BitsAndPadsToEightDigits(t *testing.T) {
	if got := Phys(0o17777777); got != "17777777" {
		t.Fatalf("Phys(0o17777777) = %q, want 17777777", got)
	}
	// Bit 22 and above are masked off.
	if got := Phys(0xffffffff); got != "17777777" {
		t.Fatalf("Phys masked = %q, want 17777777", got)
	}
}

func TestFormatWordsSpaceSeparates(t *testing.T) {
	var b strings.Builder
	FormatWords(&b, []uint16{0o1, 0o2, 0o3})
	want := "000001 000002 000003"
	if got := b.String(); got != want {
		t.Fatalf("FormatWords = %q, want %q", got, want)
	}
}
