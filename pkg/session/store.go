package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Message represents a single conversation turn
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists conversation history in a single SQLite database.
// Each conversation occupies its own namespace via the session_key column.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the session database at path
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("session db path cannot be empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create session db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open session db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize session db schema: %w", err)
	}

	log.Info().Str("path", path).Msg("Session store opened")

	return &Store{db: db, path: path}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_key TEXT NOT NULL,
	role        TEXT NOT NULL,
	content     TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_messages_session_key ON messages(session_key);
`

// Append appends a message to a session's history
func (s *Store) Append(ctx context.Context, sessionKey string, msg Message) error {
	if sessionKey == "" {
		return fmt.Errorf("session key cannot be empty")
	}
	if msg.Role == "" {
		return fmt.Errorf("message role cannot be empty")
	}
	if msg.Content == "" {
		return fmt.Errorf("message content cannot be empty")
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_key, role, content, created_at) VALUES (?, ?, ?, ?)`,
		sessionKey, msg.Role, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	log.Debug().
		Str("session_key", sessionKey).
		Str("role", msg.Role).
		Msg("Message appended")

	return nil
}

// History returns all messages of a session in insertion order
func (s *Store) History(ctx context.Context, sessionKey string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM messages WHERE session_key = ? ORDER BY id`,
		sessionKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session history: %w", err)
	}

	return messages, nil
}

// Clear removes all messages stored for a session
func (s *Store) Clear(ctx context.Context, sessionKey string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE session_key = ?`, sessionKey,
	)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	deleted, _ := result.RowsAffected()
	log.Info().
		Str("session_key", sessionKey).
		Int64("deleted", deleted).
		Msg("Session cleared")

	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
