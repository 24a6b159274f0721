package eventlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testLog(t *testing.T) *Log {
	t.Helper()
	clock := time.Date(2026, 10, 16, 9, 30, 0, 0, time.Local)
	return New(filepath.Join(t.TempDir(), "logs", "taglog.log"),
		WithApp("taglog"),
		WithClock(func() time.Time { return clock }),
	)
}

func readLines(t *testing.T, l *Log) []string {
	t.Helper()
	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestAppend_FieldOrder(t *testing.T) {
	l := testLog(t)
	if err := l.Info(EventTagUpdated, "x.md", []string{"a", "b"}); err != nil {
		t.Fatalf("Info: %v", err)
	}
	if err := l.Warn(EventTagSkipped, "y.md", ReasonNoTagsFound); err != nil {
		t.Fatalf("Warn: %v", err)
	}

	lines := readLines(t, l)
	want := []string{
		"2026-10-16T09:30:00.000000 level=info event=tag_updated file=x.md app=taglog tags=a,b",
		"2026-10-16T09:30:00.000000 level=warn event=tag_skipped file=y.md app=taglog reason=no_tags_found",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestAppend_NilTagsOmitsField(t *testing.T) {
	l := testLog(t)
	if err := l.Info(EventDailyLogFinalized, "16-10-2026.md", nil); err != nil {
		t.Fatalf("Info: %v", err)
	}
	lines := readLines(t, l)
	if strings.Contains(lines[0], "tags=") {
		t.Errorf("unexpected tags field in %q", lines[0])
	}
}

func TestParseLine_Tolerant(t *testing.T) {
	rec, ok := ParseLine("2026-01-02T03:04:05 tags=b,a extra=1 file=x.md noise level=info event=tag_updated")
	if !ok {
		t.Fatal("expected record")
	}
	if rec.Timestamp != "2026-01-02T03:04:05" {
		t.Errorf("timestamp = %q", rec.Timestamp)
	}
	if rec.Level != LevelInfo || rec.Event != EventTagUpdated || rec.File != "x.md" {
		t.Errorf("unexpected record %+v", rec)
	}
	if len(rec.Tags) != 2 || rec.Tags[0] != "b" || rec.Tags[1] != "a" {
		t.Errorf("tags = %v", rec.Tags)
	}
	if rec.Fields["extra"] != "1" {
		t.Errorf("unknown token not kept: %v", rec.Fields)
	}
}

func TestParseLine_Blank(t *testing.T) {
	if _, ok := ParseLine("   "); ok {
		t.Error("blank line should not parse")
	}
}

func TestContains_MissingLog(t *testing.T) {
	l := testLog(t)
	found, err := l.Contains("anything")
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if found {
		t.Error("missing log should contain nothing")
	}
}

func TestContains_Marker(t *testing.T) {
	l := testLog(t)
	_ = l.Info(EventDailyLogFinalized, "16-10-2026.md", nil)

	found, err := l.Contains(Marker(EventDailyLogFinalized, "16-10-2026.md"))
	if err != nil || !found {
		t.Errorf("found = %v, err = %v", found, err)
	}
	found, _ = l.Contains(Marker(EventDailyLogFinalized, "17-10-2026.md"))
	if found {
		t.Error("marker for another day should be absent")
	}
}
