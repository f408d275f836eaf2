// Package sqlite stores long-term user memories in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is used when no database path is configured.
const DefaultPath = ".cinebrain/memory.db"

// DefaultLimit caps search results when the caller passes no limit.
const DefaultLimit = 5

// Memory is one stored fact about a user.
type Memory struct {
	ID        int64
	UserID    string
	Content   string
	CreatedAt time.Time
}

// MemoryStore keeps facts keyed by user id.
// Search is a keyword match; it does not rank by meaning.
type MemoryStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path.
func Open(path string) (*MemoryStore, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	s := &MemoryStore{db: db, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MemoryStore) initialize() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS memories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE(user_id, content)
	);
	CREATE INDEX IF NOT EXISTS idx_memories_user ON memories(user_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *MemoryStore) Close() error {
	return s.db.Close()
}

// Add stores entries for userID. Blank and duplicate entries are skipped.
func (s *MemoryStore) Add(ctx context.Context, userID string, entries []string) error {
	if userID == "" {
		return errors.New("user id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO memories (user_id, content, created_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	ts := s.now().UnixNano()
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, userID, e, ts); err != nil {
			return fmt.Errorf("failed to insert memory: %w", err)
		}
	}
	return tx.Commit()
}

// Search returns the user's memories containing any keyword of query,
// newest first. Keywords shorter than three characters are ignored.
func (s *MemoryStore) Search(ctx context.Context, userID, query string, limit int) ([]Memory, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var conditions []string
	args := []any{userID}
	for _, kw := range strings.Fields(strings.ToLower(query)) {
		kw = strings.Trim(kw, ".,;:!?\"'()")
		if len(kw) < 3 {
			continue
		}
		conditions = append(conditions, "LOWER(content) LIKE ?")
		args = append(args, "%"+kw+"%")
	}
	if len(conditions) == 0 {
		return nil, nil
	}
	args = append(args, limit)

	q := fmt.Sprintf(
		"SELECT id, user_id, content, created_at FROM memories WHERE user_id = ? AND (%s) ORDER BY created_at DESC, id DESC LIMIT ?",
		strings.Join(conditions, " OR "),
	)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search memories: %w", err)
	}
	defer rows.Close()

	var out []Memory
	for rows.Next() {
		var (
			m  Memory
			ts int64
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.Content, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		m.CreatedAt = time.Unix(0, ts).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}

// Count returns how many memories are stored for userID.
func (s *MemoryStore) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// Forget deletes every memory of userID.
func (s *MemoryStore) Forget(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE user_id = ?`, userID)
	return err
}
