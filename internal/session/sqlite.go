package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Slot is one saved game as listed by SQLiteStore.
type Slot struct {
	ID        string
	Title     string
	UpdatedAt time.Time
}

// SQLiteStore keeps save records, as raw bytes, in a SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_saves_updated_at ON saves(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM saves WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get save %s: %w", id, err)
	}
	return payload, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, id string, v []byte) error {
	return s.PutTitled(ctx, id, "", v)
}

// PutTitled upserts a save with a display title for List.
func (s *SQLiteStore) PutTitled(ctx context.Context, id, title string, v []byte) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("save id is required")
	}
	if len(v) == 0 {
		return fmt.Errorf("save payload is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saves (id, title, payload, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, id, title, v, s.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("put save %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete save %s: %w", id, err)
	}
	return nil
}

// List returns every slot, most recently written first.
func (s *SQLiteStore) List(ctx context.Context) ([]Slot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, updated_at FROM saves ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	defer rows.Close()

	var out []Slot
	for rows.Next() {
		var slot Slot
		var updated int64
		if err := rows.Scan(&slot.ID, &slot.Title, &updated); err != nil {
			return nil, fmt.Errorf("list saves: %w", err)
		}
		slot.UpdatedAt = time.UnixMilli(updated).UTC()
		out = append(out, slot)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) NewID() string {
	return uuid.NewString()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
