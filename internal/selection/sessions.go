package selection

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/petrogas-holding/corpsite/internal/mapview"
)

// Session is one visitor's map state. It lives in memory only.
type Session struct {
	ID        string
	Selection State
	Filter    mapview.FilterController
	lastSeen  time.Time
}

// Sessions is a concurrency-safe registry of visitor sessions with idle
// expiry.
type Sessions struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	items map[string]*Session
}

// NewSessions creates a registry whose sessions expire after ttl idle time.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]*Session),
	}
}

// Do runs fn on the session with the given id, creating a fresh session when
// id is empty, unknown or expired. It returns the id of the session used.
// fn runs under the registry lock and must not block.
func (s *Sessions) Do(id string, fn func(*Session)) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, ok := s.items[id]
	if ok && now.Sub(sess.lastSeen) > s.ttl {
		delete(s.items, id)
		ok = false
	}
	if !ok {
		sess = &Session{ID: uuid.New().String()}
		s.items[sess.ID] = sess
	}
	sess.lastSeen = now
	if fn != nil {
		fn(sess)
	}
	return sess.ID
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int
	for id, sess := range s.items {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.items, id)
			n++
		}
	}
	return n
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				zap.L().Debug("selection: expired sessions", zap.Int("removed", n))
			}
		}
	}
}
