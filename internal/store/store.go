// Package store persists the collection snapshot: the raw page cache
// keyed by fetch operation and sub-key, plus the collection timestamp.
//
// The snapshot lives in a SQLite database, one per working directory by
// convention. It is loaded fully into memory on Open and written back
// only by Commit, which is the single durability point of the program.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/avolkov/spotman/internal/models"
	"github.com/avolkov/spotman/internal/shared"
	"github.com/charmbracelet/log"
)

// CorruptError reports an unreadable snapshot. There is no auto-repair:
// the user must delete the named file.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("snapshot file %q is corrupt, please remove it manually: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

func (e *CorruptError) Is(target error) bool { return target == shared.ErrCorruptStore }

// Store holds the durable snapshot across process runs.
type Store struct {
	db          *sql.DB
	path        string
	pages       map[models.Key][]models.Page
	collectedAt *time.Time
	collecting  bool
	logger      *log.Logger
}

// Open loads the snapshot at path, creating an empty one if none exists.
// Any failure to read an existing snapshot is a *CorruptError: corrupt
// state is a fatal configuration problem, not a recoverable one.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, &CorruptError{Path: path, Err: err}
	}

	s := &Store{
		db:     db,
		path:   path,
		pages:  make(map[models.Key][]models.Page),
		logger: logger,
	}

	if err := s.load(); err != nil {
		db.Close()
		return nil, &CorruptError{Path: path, Err: err}
	}

	if s.collectedAt != nil {
		logger.Infof("collected data found in %s so no API calls will be made", path)
		logger.Infof("data was collected on %s", s.collectedAt.Format(time.RFC3339))
	}

	return s, nil
}

func (s *Store) load() error {
	var collected sql.NullString
	if err := s.db.QueryRow("SELECT collected_at FROM collection_meta WHERE id = 1").Scan(&collected); err != nil {
		return fmt.Errorf("failed to read collection metadata: %w", err)
	}
	if collected.Valid && collected.String != "" {
		ts, err := time.Parse(time.RFC3339, collected.String)
		if err != nil {
			return fmt.Errorf("failed to parse collection timestamp %q: %w", collected.String, err)
		}
		s.collectedAt = &ts
	}

	rows, err := s.db.Query("SELECT op, sub_key, payload FROM pages ORDER BY op, sub_key, page_index")
	if err != nil {
		return fmt.Errorf("failed to read cached pages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var op, subKey, payload string
		if err := rows.Scan(&op, &subKey, &payload); err != nil {
			return fmt.Errorf("failed to scan cached page: %w", err)
		}

		var page models.Page
		if err := json.Unmarshal([]byte(payload), &page); err != nil {
			return fmt.Errorf("failed to decode cached page for %s/%s: %w", op, subKey, err)
		}

		key := models.Key{Op: models.Operation(op), SubKey: subKey}
		s.pages[key] = append(s.pages[key], page)
	}

	return rows.Err()
}

// Path returns the snapshot file location.
func (s *Store) Path() string { return s.path }

// Pages returns the cached page list for key, if any.
func (s *Store) Pages(key models.Key) ([]models.Page, bool) {
	pages, ok := s.pages[key]
	return pages, ok
}

// Reset drops the in-memory page list for key ahead of a fresh fetch.
func (s *Store) Reset(key models.Key) {
	delete(s.pages, key)
}

// Append adds one fetched page to key's page list. Append-only while a
// fetch is in flight; durability waits for Commit.
func (s *Store) Append(key models.Key, page models.Page) {
	s.pages[key] = append(s.pages[key], page)
}

// MarkCollecting suppresses cache replay until the next Commit so a
// collection pass always pulls fresh data.
func (s *Store) MarkCollecting() { s.collecting = true }

// Collecting reports whether a collection pass is in progress.
func (s *Store) Collecting() bool { return s.collecting }

// NeverCollected is true iff no collection pass ever committed.
func (s *Store) NeverCollected() bool { return s.collectedAt == nil }

// CollectedAt returns the timestamp of the last committed collection,
// or nil if none ran.
func (s *Store) CollectedAt() *time.Time { return s.collectedAt }

// Commit persists the full snapshot and stamps the collection timestamp,
// all in one transaction.
func (s *Store) Commit() error {
	now := time.Now().UTC().Truncate(time.Second)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM pages"); err != nil {
		return fmt.Errorf("failed to clear cached pages: %w", err)
	}

	for _, key := range s.sortedKeys() {
		for i, page := range s.pages[key] {
			payload, err := json.Marshal(page)
			if err != nil {
				return fmt.Errorf("failed to encode page for %s: %w", key, err)
			}
			_, err = tx.Exec(
				"INSERT INTO pages (op, sub_key, page_index, payload) VALUES (?, ?, ?, ?)",
				string(key.Op), key.SubKey, i, string(payload),
			)
			if err != nil {
				return fmt.Errorf("failed to insert page for %s: %w", key, err)
			}
		}
	}

	_, err = tx.Exec("UPDATE collection_meta SET collected_at = ? WHERE id = 1", now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to stamp collection timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	s.collectedAt = &now
	s.collecting = false
	return nil
}

// sortedKeys keeps Commit's insert order deterministic.
func (s *Store) sortedKeys() []models.Key {
	keys := make([]models.Key, 0, len(s.pages))
	for key := range s.pages {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Op != keys[j].Op {
			return keys[i].Op < keys[j].Op
		}
		return keys[i].SubKey < keys[j].SubKey
	})
	return keys
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
