package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRegisterModelAndLoadFile(t *testing.T) {
	var gotFirst string
	var gotOpts []Option
	RegisterModel("testdev", func(first string, options []Option) error {
		gotFirst = first
		gotOpts = options
		return nil
	})

	dir := t.TempDir()
	path := filepath.Join(dir, "kek.conf")
	contents := "# a comment\ntestdev unit0.img units=2 base=0o177400\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if gotFirst != "unit0.img" {
		t.Fatalf("first = %q, want unit0.img", gotFirst)
	}
	if len(gotOpts) != 2 || gotOpts[0].Name != "units" || gotOpts[0].Equal != "2" {
		t.Fatalf("opts = %+v", gotOpts)
	}
}

func TestUnknownKeywordErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kek.conf")
	if err := os.WriteFile(path, []byte("nosuchdevice foo\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := LoadFile(path); err == nil {
		t.Fatalf("expected error for unknown keyword")
	}
}

func TestBlankAndCommentLinesIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kek.conf")
	if err := os.WriteFile(path, []byte("\n# only a comment\n   \n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
}
