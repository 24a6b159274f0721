// Package models defines the domain types shared across taglog packages.
package models

import "time"

// Candidate is a journal file offered to a reconciliation run. Err is set when the
// file could not be inspected after it was listed (for example it vanished).
type Candidate struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
	Err       error     `json:"-"`
}

// FileTags is the last known tag set of a journal file as recorded in the event log.
type FileTags struct {
	File      string   `json:"file"`
	Tags      []string `json:"tags"`
	Event     string   `json:"event,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// TagCount is the number of files whose last known tags include Tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
