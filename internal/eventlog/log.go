package eventlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Log is an append-only event log stored as a text file. The file is opened per
// operation and never held open between calls.
type Log struct {
	path string
	app  string
	now  func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithApp sets the app= value written on every record.
func WithApp(name string) Option {
	return func(l *Log) {
		if name != "" {
			l.app = name
		}
	}
}

// WithClock overrides the clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// New returns a Log backed by the file at path. The file is created on first append.
func New(path string, opts ...Option) *Log {
	l := &Log{
		path: path,
		app:  filepath.Base(os.Args[0]),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the log file path.
func (l *Log) Path() string { return l.path }

// App returns the process name stamped on records.
func (l *Log) App() string { return l.app }

// Now returns the current time according to the log's clock.
func (l *Log) Now() time.Time { return l.now() }

// Append writes rec as a single line. Empty Timestamp and App are filled in.
func (l *Log) Append(rec Record) error {
	if rec.Timestamp == "" {
		rec.Timestamp = l.now().Format(TimestampLayout)
	}
	if rec.App == "" {
		rec.App = l.app
	}

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("eventlog: mkdir: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("eventlog: open: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(FormatLine(rec) + "\n"); err != nil {
		return fmt.Errorf("eventlog: append: %w", err)
	}
	return nil
}

// Info appends an info-level record carrying tags.
func (l *Log) Info(event Event, file string, tags []string) error {
	return l.Append(Record{
		Level:   LevelInfo,
		Event:   event,
		File:    file,
		Tags:    tags,
		HasTags: tags != nil,
	})
}

// Warn appends a warn-level record carrying a reason code.
func (l *Log) Warn(event Event, file string, reason Reason) error {
	return l.Append(Record{
		Level:  LevelWarn,
		Event:  event,
		File:   file,
		Reason: reason,
	})
}

// Scan calls fn for every record in write order until fn returns false.
// A missing log file has no records.
func (l *Log) Scan(fn func(Record) bool) error {
	return l.scanLines(func(line string) bool {
		rec, ok := ParseLine(line)
		if !ok {
			return true
		}
		return fn(rec)
	})
}

// ReadAll returns the raw log content. A missing log is empty.
func (l *Log) ReadAll() ([]byte, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("eventlog: read: %w", err)
	}
	return data, nil
}

// Open returns a reader over the raw log content. A missing log reads as empty.
func (l *Log) Open() (io.ReadCloser, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return io.NopCloser(strings.NewReader("")), nil
		}
		return nil, fmt.Errorf("eventlog: open: %w", err)
	}
	return f, nil
}

// Contains reports whether any raw line contains marker.
func (l *Log) Contains(marker string) (bool, error) {
	found := false
	err := l.scanLines(func(line string) bool {
		if strings.Contains(line, marker) {
			found = true
			return false
		}
		return true
	})
	return found, err
}

func (l *Log) scanLines(fn func(string) bool) error {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("eventlog: open: %w", err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if !fn(sc.Text()) {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("eventlog: scan: %w", err)
	}
	return nil
}
