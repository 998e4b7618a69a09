package machine

import (
	"testing"
	"time"
)

func TestDepositExamineRoundTrip(t *testing.T) {
	mc := New(1<<16, nil)
	mc.Deposit(0o1000, 0o012345)
	if got := mc.Examine(0o1000); got != 0o012345 {
		t.Fatalf("examine = %#o, want 0o012345", got)
	}
}

func TestBootSetsPCAndHaltClearsRunning(t *testing.T) {
	mc := New(1<<16, nil)
	// HALT instruction, kernel mode, at the boot address.
	mc.Deposit(0o1000, 0o000000)
	mc.Boot(0o1000)

	mc.Run() // returns once the CPU halts

	if !mc.CPU.Halted {
		t.Fatalf("expected CPU halted after executing HALT")
	}
}

func TestHaltStopsRunLoop(t *testing.T) {
	mc := New(1<<16, nil)
	// BR -1: branches back to its own address forever.
	mc.Deposit(0o1000, 0o000777)
	mc.Boot(0o1000)

	go mc.Run()
	time.Sleep(5 * time.Millisecond)
	if !mc.Running() {
		t.Fatalf("expected machine to be running")
	}

	mc.Halt()
	mc.WaitIdle(time.Millisecond)
	if mc.Running() {
		t.Fatalf("expected machine to stop after Halt")
	}
}
