package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestHandleWritesSingleLineWithLevelAndMessage(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)

	log.Info("device reset", "addr", "0177560")

	out := buf.String()
	if !strings.Contains(out, "INFO:") {
		t.Fatalf("expected level in output, got %q", out)
	}
	if !strings.Contains(out, "device reset") {
		t.Fatalf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "0177560") {
		t.Fatalf("expected attr in output, got %q", out)
	}
}

func TestDebugWrittenToFileWithoutSetDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)

	log.Debug("trap dispatched")
	if buf.Len() == 0 {
		t.Fatalf("expected debug line written to file regardless of stderr mirroring")
	}
}

func TestNewWithNilFileDiscards(t *testing.T) {
	log := New(nil, false)
	log.Info("should not panic")
}
