package handler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pitabwire/frame/workerpool"

	"github.com/dinechat/dinechat/pkg/dialog"
)

const (
	// DefaultSessionTTL is how long an idle session survives before the
	// reaper drops it.
	DefaultSessionTTL = 30 * time.Minute

	reaperInterval = 1 * time.Minute
)

// Store holds chat sessions keyed by session ID. Implementations must be
// safe for concurrent use.
type Store interface {
	// Get returns the session with the given ID, if present.
	Get(id string) (*dialog.Session, bool)
	// GetOrCreate returns the session with the given ID, creating it if
	// needed. The second return reports whether it was created.
	GetOrCreate(id string) (*dialog.Session, bool)
	// Remove drops the session with the given ID.
	Remove(id string)
	// All returns a snapshot of all sessions.
	All() []*dialog.Session
}

// MemoryStore is the in-process Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*dialog.Session
	ttl      time.Duration
}

// NewMemoryStore creates an empty store. A non-positive ttl falls back to
// DefaultSessionTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemoryStore{
		sessions: make(map[string]*dialog.Session),
		ttl:      ttl,
	}
}

func (s *MemoryStore) Get(id string) (*dialog.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *MemoryStore) GetOrCreate(id string) (*dialog.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, false
	}
	sess := dialog.NewSession(id)
	s.sessions[id] = sess
	return sess, true
}

func (s *MemoryStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *MemoryStore) All() []*dialog.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*dialog.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// StartReaper begins the background session TTL sweep. It stops when the
// context is cancelled.
func (s *MemoryStore) StartReaper(ctx context.Context, pool workerpool.WorkerPool) {
	reap := func() {
		ticker := time.NewTicker(reaperInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.reapIdle()
			}
		}
	}
	if pool != nil {
		_ = pool.Submit(ctx, reap)
	} else {
		go reap()
	}
}

func (s *MemoryStore) reapIdle() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if now.Sub(sess.IdleSince()) > s.ttl {
			slog.Info("reaping idle chat session", slog.String("session_id", id))
			delete(s.sessions, id)
		}
	}
}
