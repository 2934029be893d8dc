package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/pinnote/internal/apperr"
)

func tempNotes(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempNotes(t)
	content := "# Hello\nWorld\n"
	if err := s.Write("note", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != content {
		t.Errorf("content mismatch: got %q", got)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "note.md")); err != nil {
		t.Errorf("expected note.md on disk: %v", err)
	}
}

func TestNewFS_CreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	s, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if info, err := os.Stat(s.Root()); err != nil || !info.IsDir() {
		t.Errorf("root not created: %v", err)
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "pinnote-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestDelete(t *testing.T) {
	s := tempNotes(t)
	_ = s.Write("del", "bye")
	if err := s.Delete("del"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del"); err == nil {
		t.Error("expected error reading deleted note")
	}
}

func TestDeleteMissingIsError(t *testing.T) {
	s := tempNotes(t)
	err := s.Delete("ghost")
	if err == nil {
		t.Fatal("expected error deleting a missing note")
	}
	var ioErr *apperr.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("expected *apperr.IOError, got %T", err)
	}
	if !IsMissing(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestEnumerate(t *testing.T) {
	s := tempNotes(t)
	_ = s.Write("a", "a")
	_ = s.Write("b", "#pinned\nb")
	_ = os.WriteFile(filepath.Join(s.Root(), "readme.txt"), []byte("not md"), 0o644)
	_ = os.MkdirAll(filepath.Join(s.Root(), "sub"), 0o755)
	_ = os.WriteFile(filepath.Join(s.Root(), "sub", "nested.md"), []byte("nested"), 0o644)

	records, skipped, err := s.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, want none", skipped)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	if records[0].Title != "a" || records[1].Title != "b" || records[1].Content != "#pinned\nb" {
		t.Errorf("records = %+v", records)
	}
}

func TestEnumerateSkipsCorruptNote(t *testing.T) {
	s := tempNotes(t)
	_ = s.Write("one", "1")
	_ = s.Write("two", "2")
	if err := os.WriteFile(filepath.Join(s.Root(), "bad.md"), []byte{0xff, 0xfe, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}

	records, skipped, err := s.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate should not fail on one corrupt note: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want 2", len(records))
	}
	if len(skipped) != 1 || skipped[0].Title != "bad" {
		t.Fatalf("skipped = %+v, want [bad]", skipped)
	}
	var decErr *apperr.DecodeError
	if !errors.As(skipped[0].Err, &decErr) {
		t.Errorf("expected DecodeError, got %T", skipped[0].Err)
	}
}

func TestEnumerateCreatesRoot(t *testing.T) {
	s := tempNotes(t)
	if err := os.RemoveAll(s.Root()); err != nil {
		t.Fatal(err)
	}
	records, _, err := s.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
	if _, err := os.Stat(s.Root()); err != nil {
		t.Errorf("root not recreated: %v", err)
	}
}

func TestReservedTitlesRejected(t *testing.T) {
	s := tempNotes(t)

	cases := []string{
		"../../etc/passwd",
		"../outside",
		"/etc/shadow",
		"",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for read of %q", p)
		}
		if err := s.Write(p, "x"); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempNotes(t)
	_ = s.Write("atomic", "original content")

	if err := s.Write("atomic", "updated content"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic")
	if got != "updated content" {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.Root(), TempPrefix+"*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestEnumerateIgnoresTempFiles(t *testing.T) {
	s := tempNotes(t)
	_ = s.Write("real", "x")
	_ = os.WriteFile(filepath.Join(s.Root(), TempPrefix+"123"), []byte("half"), 0o644)

	records, _, err := s.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(records) != 1 || records[0].Title != "real" {
		t.Errorf("records = %+v", records)
	}
}

func TestRelocate(t *testing.T) {
	s := tempNotes(t)
	_ = s.Write("old", "x")

	next := filepath.Join(t.TempDir(), "elsewhere")
	if err := s.Relocate(next); err != nil {
		t.Fatalf("Relocate: %v", err)
	}
	if s.Root() != next {
		t.Errorf("root = %q, want %q", s.Root(), next)
	}
	records, _, err := s.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("relocate must not migrate notes, got %+v", records)
	}
}

func TestWriteRejectsReservedTitle(t *testing.T) {
	s := tempNotes(t)
	err := s.Write("a:b", "x")
	if !errors.Is(err, apperr.ErrInvalidTitle) {
		t.Fatalf("Write(a:b) = %v, want ErrInvalidTitle", err)
	}
	if !strings.Contains(err.Error(), "must not contain") {
		t.Errorf("error %q does not name the reason", err)
	}
	if err := s.Delete(""); !errors.Is(err, apperr.ErrInvalidTitle) {
		t.Errorf("Delete(\"\") = %v, want ErrInvalidTitle", err)
	}
}
