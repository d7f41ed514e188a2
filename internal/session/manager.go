package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seanbenoit06/dancetrainer/internal/compare"
	"github.com/seanbenoit06/dancetrainer/internal/reference"
)

// Manager tracks the running sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create starts a new session against the given sequence and registers
// it under a fresh ID.
func (m *Manager) Create(referenceID, preset string, seq *reference.Sequence, cfg compare.Config) (*Session, error) {
	sess, err := New(uuid.NewString(), referenceID, preset, seq, cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	return sess, nil
}

// Get returns the running session with the given ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// List returns every running session.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess)
	}
	return out
}

// End closes the session, removes it from the registry and returns its
// summary.
func (m *Manager) End(id string) (Summary, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return Summary{}, ErrSessionNotFound
	}
	return sess.End()
}

// Count returns the number of running sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep ends and removes sessions that have not processed a pose for
// longer than maxIdle, returning how many were dropped. Abandoned
// sessions would otherwise hold their reference sequences forever.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, sess := range m.sessions {
		if time.Since(sess.LastActive()) > maxIdle {
			delete(m.sessions, id)
			sess.End()
			n++
		}
	}
	return n
}
