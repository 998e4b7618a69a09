package console

import "testing"

func TestActivityFlagsSetAndClearOnRead(t *testing.T) {
	var a Activity

	if a.DiskRead() {
		t.Fatalf("expected DiskRead false initially")
	}

	a.SetDiskRead()
	if !a.DiskRead() {
		t.Fatalf("expected DiskRead true after SetDiskRead")
	}
	if a.DiskRead() {
		t.Fatalf("expected DiskRead to clear after being read")
	}

	a.SetDiskWrite()
	if !a.DiskWrite() {
		t.Fatalf("expected DiskWrite true after SetDiskWrite")
	}
}
