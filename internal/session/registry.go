package session

import (
	"context"
	"sync"

	"github.com/victornm/mcquiz/internal/domain"
	"github.com/victornm/mcquiz/internal/errors"
)

// Registry owns every quiz session and its submitted flag.
type Registry interface {
	// Put stores a session. Storing an existing session ID replaces it.
	Put(ctx context.Context, s domain.Session) error

	// Get returns a copy of the session, or an error wrapping domain.ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (*domain.Session, error)

	// MarkSubmitted atomically flips the submitted flag and reports whether this call did it.
	// It returns false without error when the session was already submitted.
	MarkSubmitted(ctx context.Context, sessionID string) (bool, error)
}

func notFound(sessionID string) error {
	return errors.New(errors.CodeNotFound,
		errors.WithMessagef("quiz not found: session=%s", sessionID),
		errors.WithCause(domain.ErrSessionNotFound),
	)
}

// Memory is a Registry kept in process memory. Sessions live as long as the process.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]domain.Session),
	}
}

func (m *Memory) Put(_ context.Context, s domain.Session) error {
	s.Questions = cloneQuestions(s.Questions)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.SessionID] = s
	return nil
}

func (m *Memory) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, notFound(sessionID)
	}

	s.Questions = cloneQuestions(s.Questions)
	return &s, nil
}

func (m *Memory) MarkSubmitted(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return false, notFound(sessionID)
	}

	if s.Submitted {
		return false, nil
	}

	s.Submitted = true
	m.sessions[sessionID] = s
	return true, nil
}

// Len returns the number of sessions held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

func cloneQuestions(qs []domain.Question) []domain.Question {
	if qs == nil {
		return nil
	}
	out := make([]domain.Question, len(qs))
	copy(out, qs)
	return out
}
