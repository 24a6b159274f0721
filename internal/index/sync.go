package index

import (
	"bytes"
	"log/slog"
	"sort"

	"github.com/starford/taglog/internal/checksum"
	"github.com/starford/taglog/internal/eventlog"
	"github.com/starford/taglog/internal/models"
)

// Sync brings the projection up to date with the event log. The log is streamed
// through the checksum first; if it matches the one the projection was built from,
// nothing changes. It reports whether the projection was rebuilt.
func Sync(db TagIndex, log *eventlog.Log, logger *slog.Logger) (bool, error) {
	rc, err := log.Open()
	if err != nil {
		return false, err
	}
	cs, err := checksum.SumReader(rc)
	_ = rc.Close()
	if err != nil {
		return false, err
	}

	prev, err := db.LogChecksum()
	if err != nil {
		return false, err
	}
	if prev == cs {
		logger.Debug("sync: projection current", slog.String("checksum", cs))
		return false, nil
	}

	data, err := log.ReadAll()
	if err != nil {
		return false, err
	}
	// The log may have grown since it was hashed; record what was projected.
	cs = checksum.Sum(data)

	latest, err := eventlog.Project(bytes.NewReader(data))
	if err != nil {
		return false, err
	}

	rows := make([]models.FileTags, 0, len(latest))
	for file, rec := range latest {
		rows = append(rows, models.FileTags{
			File:      file,
			Tags:      rec.Tags,
			Event:     string(rec.Event),
			Timestamp: rec.Timestamp,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].File < rows[j].File })

	if err := db.Replace(rows, cs); err != nil {
		return false, err
	}
	logger.Debug("sync: projection rebuilt", slog.Int("files", len(rows)))
	return true, nil
}
