package eventlog

import (
	"bufio"
	"fmt"
	"io"
)

// LatestTags returns the tags of the newest info-level record for file, comparing
// timestamps as strings. Records with equal timestamps resolve to the later line.
// It returns an empty list when no such record exists or the log is missing.
func (l *Log) LatestTags(file string) ([]string, error) {
	var (
		found  bool
		bestTS string
		tags   []string
	)
	err := l.Scan(func(rec Record) bool {
		if rec.Level != LevelInfo || rec.File != file {
			return true
		}
		if !found || rec.Timestamp >= bestTS {
			found = true
			bestTS = rec.Timestamp
			tags = rec.Tags
		}
		return true
	})
	if err != nil {
		return []string{}, err
	}
	if tags == nil {
		return []string{}, nil
	}
	return tags, nil
}

// History returns every record for file in write order.
func (l *Log) History(file string) ([]Record, error) {
	var out []Record
	err := l.Scan(func(rec Record) bool {
		if rec.File == file {
			out = append(out, rec)
		}
		return true
	})
	return out, err
}

// Project folds a log stream into the newest info-level record per file, using the
// same ordering rule as LatestTags.
func Project(r io.Reader) (map[string]Record, error) {
	latest := make(map[string]Record)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		rec, ok := ParseLine(sc.Text())
		if !ok || rec.Level != LevelInfo || rec.File == "" {
			continue
		}
		if prev, seen := latest[rec.File]; seen && rec.Timestamp < prev.Timestamp {
			continue
		}
		if rec.Tags == nil {
			rec.Tags = []string{}
		}
		latest[rec.File] = rec
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("eventlog: project: %w", err)
	}
	return latest, nil
}
