package command

import (
	"testing"

	"github.com/kek11/kek/cmd/kek/machine"
)

func newTestMachine(t *testing.T) *machine.Machine {
	t.Helper()
	return machine.New(1<<16, nil)
}

func TestDepositThenExamineRoundTrips(t *testing.T) {
	mc := newTestMachine(t)

	if quit, err := Process("deposit 1000 123456", mc); err != nil || quit {
		t.Fatalf("deposit: quit=%v err=%v", quit, err)
	}
	if got := mc.Examine(0o1000); got != 0o123456&0xffff {
		t.Fatalf("examine = %#o, want %#o", got, uint16(0o123456))
	}
}

func TestUniquePrefixMatch(t *testing.T) {
	mc := newTestMachine(t)
	if quit, err := Process("h", mc); err != nil || quit {
		t.Fatalf("halt prefix: quit=%v err=%v", quit, err)
	}
}

func TestTwoLetterPrefixMatchesUniqueCommand(t *testing.T) {
	mc := newTestMachine(t)
	if quit, err := Process("ha", mc); err != nil || quit {
		t.Fatalf("halt via two-letter prefix: quit=%v err=%v", quit, err)
	}
}

func TestUnknownCommandErrors(t *testing.T) {
	mc := newTestMachine(t)
	if _, err := Process("frobnicate", mc); err == nil {
		t.Fatalf("expected error for unknown command")
	}
}

func TestQuitReportsTrue(t *testing.T) {
	mc := newTestMachine(t)
	quit, err := Process("quit", mc)
	if err != nil || !quit {
		t.Fatalf("quit: quit=%v err=%v", quit, err)
	}
}

func TestBootSetsPCAndContinues(t *testing.T) {
	mc := newTestMachine(t)
	mc.CPU.Halted = true

	if _, err := Process("boot 1000", mc); err != nil {
		t.Fatalf("boot: %v", err)
	}
	if mc.CPU.GPR(7) != 0o1000 {
		t.Fatalf("PC = %#o, want 0o1000", mc.CPU.GPR(7))
	}
	mc.Halt()
}
