// Package eventlog implements the append-only text event log that doubles as the
// only persistent record of each journal file's last known tags.
package eventlog

import (
	"regexp"
	"strings"
)

// Level is the severity of a record.
type Level string

const (
	LevelInfo Level = "info"
	LevelWarn Level = "warn"
)

// Event names a recorded action.
type Event string

const (
	EventTagInjected         Event = "tag_injected"
	EventTagUpdated          Event = "tag_updated"
	EventTagSkipped          Event = "tag_skipped"
	EventDailyLogFinalized   Event = "daily_log_finalized"
	EventDailyLogInitialized Event = "daily_log_initialized"
)

// Reason explains a tag_skipped event.
type Reason string

const (
	ReasonReadError            Reason = "read_error"
	ReasonMalformedFrontMatter Reason = "malformed_front_matter"
	ReasonNoTagsFound          Reason = "no_tags_found"
	ReasonWriteError           Reason = "write_error"
	ReasonMtimeError           Reason = "mtime_error"
)

// TimestampLayout is ISO-8601 local time with microseconds. Records written with it
// sort lexicographically in time order.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Record is one line of the event log.
type Record struct {
	Timestamp string
	Level     Level
	Event     Event
	File      string
	App       string
	Reason    Reason
	Tags      []string
	// HasTags reports whether the tags field is written (or was present when parsed).
	// An empty tag list is still written as "tags=".
	HasTags bool
	// Fields holds every key=value token found when parsing, including unknown keys.
	Fields map[string]string
}

var tokenRe = regexp.MustCompile(`(\w+)=(\S+)`)

// FormatLine renders rec with the fixed field order, without a trailing newline.
func FormatLine(rec Record) string {
	var b strings.Builder
	b.WriteString(rec.Timestamp)
	b.WriteString(" level=")
	b.WriteString(string(rec.Level))
	b.WriteString(" event=")
	b.WriteString(string(rec.Event))
	b.WriteString(" file=")
	b.WriteString(rec.File)
	b.WriteString(" app=")
	b.WriteString(rec.App)
	if rec.Reason != "" {
		b.WriteString(" reason=")
		b.WriteString(string(rec.Reason))
	}
	if rec.HasTags || len(rec.Tags) > 0 {
		b.WriteString(" tags=")
		b.WriteString(strings.Join(rec.Tags, ","))
	}
	return b.String()
}

// ParseLine parses one log line. Field order does not matter and unknown tokens are
// kept in Fields only. The first whitespace-separated field is the timestamp.
// It returns false for blank lines.
func ParseLine(line string) (Record, bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Record{}, false
	}

	fields := make(map[string]string)
	for _, m := range tokenRe.FindAllStringSubmatch(line, -1) {
		fields[m[1]] = m[2]
	}

	rec := Record{
		Timestamp: parts[0],
		Level:     Level(fields["level"]),
		Event:     Event(fields["event"]),
		File:      fields["file"],
		App:       fields["app"],
		Reason:    Reason(fields["reason"]),
		Fields:    fields,
	}
	if raw, ok := fields["tags"]; ok {
		rec.HasTags = true
		rec.Tags = SplitTags(raw)
	}
	return rec, true
}

// SplitTags splits a comma-joined tag list. The empty string yields an empty list.
func SplitTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, ",")
}

// Marker returns the exact text that identifies an event for a file in a raw line.
func Marker(event Event, file string) string {
	return "event=" + string(event) + " file=" + file
}
