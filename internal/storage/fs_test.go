package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/taglog/internal/apperr"
)

func tempJournal(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempJournal(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteKeepsMode(t *testing.T) {
	s := tempJournal(t)
	abs := filepath.Join(s.Root(), "mode.md")
	if err := os.WriteFile(abs, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("mode.md", []byte("y")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestReadMissing(t *testing.T) {
	s := tempJournal(t)
	_, err := s.Read("nope.md")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestCreate_Exclusive(t *testing.T) {
	s := tempJournal(t)
	if err := s.Create("day.md", []byte("first")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := s.Create("day.md", []byte("second"))
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
	got, _ := s.Read("day.md")
	if string(got) != "first" {
		t.Errorf("existing file overwritten: %q", got)
	}
}

func TestCandidates_FiltersByExtensionAndMtime(t *testing.T) {
	s := tempJournal(t)
	_ = s.Write("fresh.md", []byte("a"))
	_ = s.Write("sub/nested.md", []byte("b"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = s.Write("old.md", []byte("c"))

	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(s.Root(), "old.md"), old, old); err != nil {
		t.Fatal(err)
	}

	names := map[string]bool{}
	for c := range s.Candidates(time.Now().Add(-24 * time.Hour)) {
		if c.Err != nil {
			t.Errorf("unexpected candidate error: %v", c.Err)
		}
		names[c.Name] = true
	}
	if len(names) != 2 || !names["fresh.md"] || !names["nested.md"] {
		t.Errorf("candidates = %v, want fresh.md and nested.md", names)
	}
}

func TestCandidates_StopEarly(t *testing.T) {
	s := tempJournal(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("b.md", []byte("b"))

	n := 0
	for range s.Candidates(time.Time{}) {
		n++
		break
	}
	if n != 1 {
		t.Errorf("n = %d, want 1", n)
	}
}

func TestRel(t *testing.T) {
	s := tempJournal(t)
	rel, err := s.Rel(filepath.Join(s.Root(), "sub", "x.md"))
	if err != nil || rel != filepath.Join("sub", "x.md") {
		t.Errorf("rel = %q, err = %v", rel, err)
	}
	if _, err := s.Rel(filepath.Dir(s.Root())); err == nil {
		t.Error("path outside root should fail")
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempJournal(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempJournal(t)
	_ = s.Write("atomic.md", []byte("original content"))
	if err := s.Write("atomic.md", []byte("updated content")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != "updated content" {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.root, ".taglog-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/taglog-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "taglog-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
