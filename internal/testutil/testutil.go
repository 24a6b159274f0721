// Package testutil provides shared test helpers for setting up journals, event logs
// and projection databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/taglog/internal/eventlog"
	"github.com/starford/taglog/internal/index"
	"github.com/starford/taglog/internal/storage"
)

// Clock is the fixed time used by TestLog.
var Clock = time.Date(2026, 10, 16, 9, 30, 0, 0, time.Local)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "taglog-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestJournal creates a temporary journal directory with a storage provider.
func TestJournal(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestLog returns an event log in a temporary directory stamped with Clock.
func TestLog(t *testing.T) *eventlog.Log {
	t.Helper()
	return eventlog.New(filepath.Join(t.TempDir(), "taglog.log"),
		eventlog.WithApp("taglog"),
		eventlog.WithClock(func() time.Time { return Clock }),
	)
}

// WriteFile writes content to name under dir.
func WriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ReadFile returns the content of name under dir.
func ReadFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// Records returns every record in l.
func Records(t *testing.T, l *eventlog.Log) []eventlog.Record {
	t.Helper()
	var out []eventlog.Record
	if err := l.Scan(func(r eventlog.Record) bool {
		out = append(out, r)
		return true
	}); err != nil {
		t.Fatal(err)
	}
	return out
}
