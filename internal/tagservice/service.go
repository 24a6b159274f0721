// Package tagservice serves read queries over the event log and its projection.
package tagservice

import (
	"context"
	"log/slog"
	"sync"

	"github.com/starford/taglog/internal/eventlog"
	"github.com/starford/taglog/internal/index"
	"github.com/starford/taglog/internal/models"
)

// DefaultHistoryLimit caps History when no limit is given.
const DefaultHistoryLimit = 50

// HistoryItem is one event-log record for a file.
type HistoryItem struct {
	Timestamp string   `json:"timestamp"`
	Level     string   `json:"level"`
	Event     string   `json:"event"`
	App       string   `json:"app,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Service coordinates the event log and the projection. Every query first brings
// the projection up to date, so answers always reflect the log as of the call.
type Service struct {
	log    *eventlog.Log
	db     index.TagIndex
	logger *slog.Logger

	mu sync.Mutex // serializes projection rebuilds
}

// NewService creates a new tag service.
func NewService(log *eventlog.Log, db index.TagIndex, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{log: log, db: db, logger: logger}
}

// Refresh rebuilds the projection if the log changed since the last rebuild.
func (s *Service) Refresh(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := index.Sync(s.db, s.log, s.logger)
	return err
}

// FileTags returns the last known tags of file, or apperr.ErrNotFound when the log
// holds no info-level record for it.
func (s *Service) FileTags(ctx context.Context, file string) (*models.FileTags, error) {
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	ft, err := s.db.LatestTags(file)
	if err != nil {
		return nil, err
	}
	ft.Tags = nonNilSlice(ft.Tags)
	return ft, nil
}

// Files returns all projected files, or only those carrying tag when it is set.
func (s *Service) Files(ctx context.Context, tag string) ([]models.FileTags, error) {
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	if tag == "" {
		files, err := s.db.Files()
		return nonNilSlice(files), err
	}
	names, err := s.db.FilesWithTag(tag)
	if err != nil {
		return nil, err
	}
	out := make([]models.FileTags, 0, len(names))
	for _, n := range names {
		ft, err := s.db.LatestTags(n)
		if err != nil {
			return nil, err
		}
		out = append(out, *ft)
	}
	return out, nil
}

// Tags returns every tag with its file count.
func (s *Service) Tags(ctx context.Context) ([]models.TagCount, error) {
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	counts, err := s.db.TagCounts()
	return nonNilSlice(counts), err
}

// History returns the newest records for file, newest first. limit <= 0 uses
// DefaultHistoryLimit.
func (s *Service) History(_ context.Context, file string, limit int) ([]HistoryItem, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	recs, err := s.log.History(file)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryItem, 0, min(limit, len(recs)))
	for i := len(recs) - 1; i >= 0 && len(out) < limit; i-- {
		r := recs[i]
		out = append(out, HistoryItem{
			Timestamp: r.Timestamp,
			Level:     string(r.Level),
			Event:     string(r.Event),
			App:       r.App,
			Reason:    string(r.Reason),
			Tags:      r.Tags,
		})
	}
	return out, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
