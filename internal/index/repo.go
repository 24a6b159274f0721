package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/taglog/internal/apperr"
	"github.com/starford/taglog/internal/models"
)

const metaLogChecksum = "log_checksum"

// Replace swaps the whole projection for rows within a transaction and stores the
// checksum of the log content it was derived from.
func (db *DB) Replace(rows []models.FileTags, logChecksum string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM tag_members`); err != nil {
		return fmt.Errorf("index: clear members: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM file_tags`); err != nil {
		return fmt.Errorf("index: clear files: %w", err)
	}

	fileStmt, err := tx.Prepare(`INSERT INTO file_tags (file, tags, event, timestamp) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare file insert: %w", err)
	}
	defer fileStmt.Close()
	memberStmt, err := tx.Prepare(`INSERT OR IGNORE INTO tag_members (tag, file) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare member insert: %w", err)
	}
	defer memberStmt.Close()

	for _, r := range rows {
		tagsJSON, _ := json.Marshal(nonNil(r.Tags))
		if _, err := fileStmt.Exec(r.File, string(tagsJSON), r.Event, r.Timestamp); err != nil {
			return fmt.Errorf("index: insert file %s: %w", r.File, err)
		}
		for _, tag := range r.Tags {
			if _, err := memberStmt.Exec(tag, r.File); err != nil {
				return fmt.Errorf("index: insert member %s: %w", tag, err)
			}
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaLogChecksum, logChecksum); err != nil {
		return fmt.Errorf("index: store checksum: %w", err)
	}

	return tx.Commit()
}

// LogChecksum returns the checksum of the log content the projection was built
// from, or empty string if it was never built.
func (db *DB) LogChecksum() (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaLogChecksum).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: log checksum: %w", err)
	}
	return cs, nil
}

// LatestTags returns the projected tags of file, or apperr.ErrNotFound.
func (db *DB) LatestTags(file string) (*models.FileTags, error) {
	var (
		ft       models.FileTags
		tagsJSON string
	)
	err := db.conn.QueryRow(`SELECT file, tags, event, timestamp FROM file_tags WHERE file = ?`, file).
		Scan(&ft.File, &tagsJSON, &ft.Event, &ft.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: latest tags: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &ft.Tags); err != nil {
		return nil, fmt.Errorf("index: decode tags: %w", err)
	}
	return &ft, nil
}

// Files returns every projected file ordered by name.
func (db *DB) Files() ([]models.FileTags, error) {
	rows, err := db.conn.Query(`SELECT file, tags, event, timestamp FROM file_tags ORDER BY file`)
	if err != nil {
		return nil, fmt.Errorf("index: files: %w", err)
	}
	defer rows.Close()

	var out []models.FileTags
	for rows.Next() {
		var (
			ft       models.FileTags
			tagsJSON string
		)
		if err := rows.Scan(&ft.File, &tagsJSON, &ft.Event, &ft.Timestamp); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tagsJSON), &ft.Tags); err != nil {
			return nil, fmt.Errorf("index: decode tags: %w", err)
		}
		out = append(out, ft)
	}
	return out, rows.Err()
}

// FilesWithTag returns the files whose last known tags include tag.
func (db *DB) FilesWithTag(tag string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT file FROM tag_members WHERE tag = ? ORDER BY file`, tag)
	if err != nil {
		return nil, fmt.Errorf("index: files with tag: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// TagCounts returns every tag with the number of files carrying it, most used first.
func (db *DB) TagCounts() ([]models.TagCount, error) {
	rows, err := db.conn.Query(`
		SELECT tag, count(*) AS n
		FROM tag_members
		GROUP BY tag
		ORDER BY n DESC, tag
	`)
	if err != nil {
		return nil, fmt.Errorf("index: tag counts: %w", err)
	}
	defer rows.Close()

	var out []models.TagCount
	for rows.Next() {
		var tc models.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
