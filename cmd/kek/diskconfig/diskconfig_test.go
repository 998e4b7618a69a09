package diskconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kek11/kek/cmd/kek/machine"
	"github.com/kek11/kek/config"
)

func TestRegisterRK05AttachesUnits(t *testing.T) {
	mc := machine.New(1<<16, nil)
	Register(mc)

	dir := t.TempDir()
	path := filepath.Join(dir, "rk0.img")
	if err := os.WriteFile(path, []byte("hello disk"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	if err := config.LoadFile(writeConfig(t, dir, "RK05 "+path+" units=2\n")); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
}

func TestRegisterRL02WithoutImageFileUsesBlankUnit(t *testing.T) {
	mc := machine.New(1<<16, nil)
	Register(mc)

	dir := t.TempDir()
	if err := config.LoadFile(writeConfig(t, dir, "RL02 unit0.img\n")); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
}

func writeConfig(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "kek.cfg")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
