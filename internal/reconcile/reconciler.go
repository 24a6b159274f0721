// Package reconcile decides, per journal file, whether its tags need to be injected
// into the file or recorded in the event log, and drives whole runs over a set of
// candidate files.
package reconcile

import (
	"log/slog"
	"path/filepath"

	"github.com/starford/taglog/internal/eventlog"
	"github.com/starford/taglog/internal/frontmatter"
	"github.com/starford/taglog/internal/storage"
)

// Decision is the action taken for one file.
type Decision string

const (
	DecisionInjected Decision = "tag_injected"
	DecisionUpdated  Decision = "tag_updated"
	DecisionSkipped  Decision = "tag_skipped"
	DecisionNoChange Decision = "no_change"
)

// Outcome reports what happened to one file. Err is set only when appending the
// event record failed; every other failure is expressed as a skip Reason.
type Outcome struct {
	File     string
	Decision Decision
	Reason   eventlog.Reason
	Tags     []string
	Err      error
}

// Reconciler compares a journal file's tags with the last state recorded in the
// event log and writes the minimal correcting action.
type Reconciler struct {
	store  storage.Provider
	log    *eventlog.Log
	logger *slog.Logger
}

// New creates a Reconciler.
func New(store storage.Provider, log *eventlog.Log, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: store, log: log, logger: logger}
}

// Reconcile processes the file at path (relative to the store root). It performs at
// most one file rewrite and one log append, and reports failures through the
// returned Outcome only.
func (r *Reconciler) Reconcile(path string) Outcome {
	name := filepath.Base(path)

	data, err := r.store.Read(path)
	if err != nil {
		r.logger.Warn("reconcile: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return r.skip(name, eventlog.ReasonReadError)
	}
	lines := frontmatter.SplitLines(data)

	fm := frontmatter.Decode(lines)
	switch fm.Kind {
	case frontmatter.Malformed:
		return r.skip(name, eventlog.ReasonMalformedFrontMatter)

	case frontmatter.Valid:
		previous, err := r.log.LatestTags(name)
		if err != nil {
			r.logger.Warn("reconcile: resolve previous tags failed",
				slog.String("file", name), slog.String("error", err.Error()))
		}
		if sameSet(fm.Tags, previous) {
			r.logger.Debug("reconcile: tags unchanged", slog.String("file", name))
			return Outcome{File: name, Decision: DecisionNoChange, Tags: fm.Tags}
		}
		return r.record(name, DecisionUpdated, eventlog.EventTagUpdated, fm.Tags)
	}

	inline := frontmatter.Inline(lines)
	if len(inline) == 0 {
		return r.skip(name, eventlog.ReasonNoTagsFound)
	}

	content, err := frontmatter.Inject(data, inline)
	if err == nil {
		err = r.store.Write(path, content)
	}
	if err != nil {
		r.logger.Warn("reconcile: write failed", slog.String("path", path), slog.String("error", err.Error()))
		return r.skip(name, eventlog.ReasonWriteError)
	}
	return r.record(name, DecisionInjected, eventlog.EventTagInjected, inline)
}

// Skip records a tag_skipped event for file with the given reason.
func (r *Reconciler) Skip(file string, reason eventlog.Reason) Outcome {
	return r.skip(file, reason)
}

func (r *Reconciler) skip(file string, reason eventlog.Reason) Outcome {
	out := Outcome{File: file, Decision: DecisionSkipped, Reason: reason}
	r.logger.Warn("reconcile: tag skipped", slog.String("file", file), slog.String("reason", string(reason)))
	if err := r.log.Warn(eventlog.EventTagSkipped, file, reason); err != nil {
		out.Err = err
		r.logger.Error("reconcile: event log append failed", slog.String("file", file), slog.String("error", err.Error()))
	}
	return out
}

func (r *Reconciler) record(file string, d Decision, ev eventlog.Event, tags []string) Outcome {
	out := Outcome{File: file, Decision: d, Tags: tags}
	r.logger.Info("reconcile: "+string(ev), slog.String("file", file), slog.Any("tags", tags))
	if err := r.log.Info(ev, file, nonNil(tags)); err != nil {
		out.Err = err
		r.logger.Error("reconcile: event log append failed", slog.String("file", file), slog.String("error", err.Error()))
	}
	return out
}

// sameSet compares two tag lists ignoring order and duplicates.
func sameSet(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, t := range a {
		as[t] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, ok := as[t]; !ok {
			return false
		}
		bs[t] = struct{}{}
	}
	return len(as) == len(bs)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
