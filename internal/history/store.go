package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/jembatan/internal/provider"
)

// timeLayout sorts lexicographically in creation order
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS translations (
	id                    TEXT PRIMARY KEY,
	user_id               TEXT NOT NULL,
	input_text            TEXT NOT NULL,
	output_text           TEXT NOT NULL,
	romaji                TEXT NOT NULL DEFAULT '',
	jlpt_level            TEXT NOT NULL DEFAULT 'N5',
	translation_direction TEXT NOT NULL,
	provider              TEXT NOT NULL DEFAULT '',
	created_at            TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_translations_user_created
	ON translations(user_id, created_at DESC);
`

var columns = []string{
	"id", "user_id", "input_text", "output_text", "romaji",
	"jlpt_level", "translation_direction", "provider", "created_at",
}

// Store persists history entries in SQLite
type Store struct {
	db     *sql.DB
	sq     sq.StatementBuilderType
	logger *logrus.Logger
}

// DefaultPath returns the database location under the user's state directory
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "jembatan", "history.db")
}

// Open opens or creates the database at path. ":memory:" is accepted.
func Open(path string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if path == "" {
		path = DefaultPath()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	logger.WithField("path", path).Debug("Opened history database")
	return &Store{db: db, sq: sq.StatementBuilder, logger: logger}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts e
func (s *Store) Save(ctx context.Context, e *Entry) error {
	if e == nil {
		return ErrNothingToSave
	}
	if e.UserID == "" {
		return ErrLoginRequired
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	q := s.sq.Insert("translations").Columns(columns...).Values(
		e.ID, e.UserID, e.InputText, e.OutputText, e.Romaji,
		e.JLPTLevel, string(e.Direction), string(e.Provider), e.CreatedAt.UTC().Format(timeLayout),
	)
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save history entry: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"id":        e.ID,
		"user_id":   e.UserID,
		"direction": e.Direction,
	}).Info("Saved translation to history")
	return nil
}

// List returns the entries of userID, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, userID string, limit int) ([]*Entry, error) {
	q := s.sq.Select(columns...).From("translations").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "rowid DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var dir, prov, created string
		if err := rows.Scan(&e.ID, &e.UserID, &e.InputText, &e.OutputText, &e.Romaji,
			&e.JLPTLevel, &dir, &prov, &created); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Direction = provider.Direction(dir)
		e.Provider = provider.ID(prov)
		e.CreatedAt, _ = time.Parse(timeLayout, created)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

// Delete removes entry id of userID
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	query, args, err := s.sq.Delete("translations").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.logger.WithFields(logrus.Fields{"id": id, "user_id": userID}).Info("Deleted history entry")
	return nil
}
