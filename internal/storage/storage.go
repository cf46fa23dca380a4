package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/powerm17/automated-home-decor/internal/flow"
)

type session struct {
	flow     *flow.Flow
	lastSeen time.Time
}

// SessionStore keeps one upload flow per browser session.
type SessionStore struct {
	sessions map[string]*session
	mu       sync.RWMutex
	now      func() time.Time
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Get returns the flow for sessionID and marks it as recently used.
func (s *SessionStore) Get(sessionID string) (*flow.Flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, exists := s.sessions[sessionID]
	if !exists {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.flow, true
}

// Set stores f, tearing down any flow previously held under sessionID.
func (s *SessionStore) Set(sessionID string, f *flow.Flow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, exists := s.sessions[sessionID]; exists && old.flow != f {
		old.flow.Close()
	}
	s.sessions[sessionID] = &session{flow: f, lastSeen: s.now()}
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Delete removes the session and tears its page down.
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, exists := s.sessions[sessionID]; exists {
		sess.flow.Close()
		delete(s.sessions, sessionID)
	}
}

// Expire tears down sessions idle for longer than ttl and returns how many
// were removed.
func (s *SessionStore) Expire(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			sess.flow.Close()
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Sweep runs Expire every interval until ctx is done.
func (s *SessionStore) Sweep(ctx context.Context, ttl, interval time.Duration, onSweep func(remaining int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Expire(ttl); removed > 0 {
				slog.Debug("Expired idle sessions", "removed", removed)
			}
			if onSweep != nil {
				onSweep(s.Len())
			}
		}
	}
}
