package index

import "github.com/starford/taglog/internal/models"

// TagIndex defines the read and rebuild operations of the projection.
// Consumers should depend on this interface rather than the concrete *DB type.
type TagIndex interface {
	Replace(rows []models.FileTags, logChecksum string) error
	LogChecksum() (string, error)
	LatestTags(file string) (*models.FileTags, error)
	Files() ([]models.FileTags, error)
	FilesWithTag(tag string) ([]string, error)
	TagCounts() ([]models.TagCount, error)
	Close() error
}

// Verify *DB satisfies TagIndex at compile time.
var _ TagIndex = (*DB)(nil)
