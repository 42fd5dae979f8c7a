package usecase

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"smart-study-buddy/internal/domain"
	"smart-study-buddy/internal/domain/ports/adapter"
	"smart-study-buddy/internal/infra/logging"
)

// Registry keeps one Session per chat for multi-user front-ends (the bot).
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*Session

	dispatcher adapter.Dispatcher
	encoder    adapter.FileEncoder
	opts       SessionOptions
	log        *zerolog.Logger
}

// NewRegistry uses opts as the template for every session; ID and OnSolve are per session.
func NewRegistry(d adapter.Dispatcher, enc adapter.FileEncoder, opts SessionOptions, log *zerolog.Logger) *Registry {
	if log == nil {
		log = logging.Nop()
	}
	opts.ID = ""
	opts.OnSolve = nil
	return &Registry{
		sessions:   make(map[int64]*Session),
		dispatcher: d,
		encoder:    enc,
		opts:       opts,
		log:        log,
	}
}

// Get returns the session for chatID or domain.ErrNotFound.
func (r *Registry) Get(chatID int64) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[chatID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// GetOrCreate returns the chat's session, creating it on first contact.
// The bool reports whether a new session was created.
func (r *Registry) GetOrCreate(chatID int64) (*Session, bool) {
	if s, err := r.Get(chatID); err == nil {
		return s, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[chatID]; ok {
		return s, false
	}
	s := r.newSession(chatID)
	r.sessions[chatID] = s
	return s, true
}

// Reset replaces the chat's session with a fresh one.
func (r *Registry) Reset(chatID int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.newSession(chatID)
	r.sessions[chatID] = s
	return s
}

// Sweep drops sessions with nothing in flight whose newest message is older
// than cutoff, and returns how many were dropped.
func (r *Registry) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for chatID, s := range r.sessions {
		last, busy := s.activity()
		if busy || !last.Before(cutoff) {
			continue
		}
		delete(r.sessions, chatID)
		n++
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) newSession(chatID int64) *Session {
	l := r.log.With().Int64("chat_id", chatID).Logger()
	s := NewSession(r.dispatcher, r.encoder, r.opts, &l)
	r.log.Info().Int64("chat_id", chatID).Str("session_id", s.ID()).Msg("session created")
	return s
}
