package session

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
)

// Session is a durable conversation handle bound to one chat id
type Session struct {
	key   string
	store *Store
}

// Key returns the session's storage key
func (s *Session) Key() string {
	return s.key
}

// Append appends a message to this session's history
func (s *Session) Append(ctx context.Context, msg Message) error {
	return s.store.Append(ctx, s.key, msg)
}

// History returns this session's stored messages
func (s *Session) History(ctx context.Context) ([]Message, error) {
	return s.store.History(ctx, s.key)
}

// Clear removes this session's stored messages
func (s *Session) Clear(ctx context.Context) error {
	return s.store.Clear(ctx, s.key)
}

// Registry owns the chat-id to session mapping. It is the single source
// of truth for that mapping: at most one Session exists per chat id.
type Registry struct {
	store    *Store
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewRegistry creates a registry backed by the given store
func NewRegistry(store *Store) *Registry {
	return &Registry{
		store:    store,
		sessions: make(map[int64]*Session),
	}
}

// GetOrCreate returns the session for a chat id, creating it on first use.
// The returned handle is identity-stable until a Reset for that id.
func (r *Registry) GetOrCreate(chatID int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, exists := r.sessions[chatID]; exists {
		return s
	}

	s := &Session{
		key:   strconv.FormatInt(chatID, 10),
		store: r.store,
	}
	r.sessions[chatID] = s

	log.Debug().Int64("chat_id", chatID).Msg("Session created")

	return s
}

// Reset clears the stored history for a chat id and drops the entry.
// No-op if no session exists for that id.
func (r *Registry) Reset(ctx context.Context, chatID int64) error {
	r.mu.Lock()
	s, exists := r.sessions[chatID]
	if exists {
		delete(r.sessions, chatID)
	}
	r.mu.Unlock()

	if !exists {
		return nil
	}

	if err := s.Clear(ctx); err != nil {
		return err
	}

	log.Info().Int64("chat_id", chatID).Msg("Session reset")

	return nil
}

// Has reports whether a session currently exists for a chat id
func (r *Registry) Has(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.sessions[chatID]
	return exists
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
