// Package session persists board documents across restarts and coordinates
// concurrent editors: a SQLite-backed store, a broadcast presence protocol,
// startup session resolution, and a debounced auto-saver.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vibrantwave/wv/board"
	"github.com/vibrantwave/wv/dbopen"
)

// ErrNotFound is returned when a session id has no stored record.
var ErrNotFound = errors.New("session: not found")

// Schema creates the session tables. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id    TEXT PRIMARY KEY,
	doc_state     TEXT NOT NULL,
	element_count INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);

CREATE TABLE IF NOT EXISTS app_settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Record is one stored session: the full document plus bookkeeping.
type Record struct {
	SessionID string
	State     board.State
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Meta is the listing view of a session, without the document body.
type Meta struct {
	SessionID    string    `json:"sessionId"`
	ElementCount int       `json:"elementCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Store persists sessions in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// ApplySchema creates the tables if needed.
func (s *Store) ApplySchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("session: apply schema: %w", err)
	}
	return nil
}

// Save upserts the document under id. created_at is set on first insert and
// preserved afterwards; updated_at always moves forward.
func (s *Store) Save(ctx context.Context, id string, st board.State) error {
	doc, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("session: marshal state: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (session_id, doc_state, element_count, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(session_id) DO UPDATE SET
				doc_state     = excluded.doc_state,
				element_count = excluded.element_count,
				updated_at    = excluded.updated_at`,
			id, string(doc), len(st.Elements), now, now)
		if err != nil {
			return fmt.Errorf("session: save %s: %w", id, err)
		}
		return nil
	})
}

// Load returns the session with the given id, or ErrNotFound.
func (s *Store) Load(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, doc_state, created_at, updated_at
		FROM sessions WHERE session_id = ?`, id)
	return scanRecord(row)
}

// Last returns the most recently updated session, or ErrNotFound when the
// store is empty.
func (s *Store) Last(ctx context.Context) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, doc_state, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC LIMIT 1`)
	return scanRecord(row)
}

// All lists session metadata, most recently updated first.
func (s *Store) All(ctx context.Context) ([]Meta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, element_count, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var m Meta
		var created, updated string
		if err := rows.Scan(&m.SessionID, &m.ElementCount, &created, &updated); err != nil {
			return nil, fmt.Errorf("session: scan: %w", err)
		}
		m.CreatedAt, m.UpdatedAt = parseTime(created), parseTime(updated)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session: list: %w", err)
	}
	return out, nil
}

// Delete removes a session. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var doc, created, updated string
	err := row.Scan(&rec.SessionID, &doc, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: scan: %w", err)
	}
	if err := json.Unmarshal([]byte(doc), &rec.State); err != nil {
		return nil, fmt.Errorf("session: unmarshal %s: %w", rec.SessionID, err)
	}
	rec.CreatedAt, rec.UpdatedAt = parseTime(created), parseTime(updated)
	return &rec, nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
