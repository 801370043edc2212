package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"chatwidget/internal/chat"
)

// Session is one embedded widget instance, usually one browser tab.
type Session struct {
	ID         string
	Controller *chat.Controller
	Created    time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionRegistry tracks live sessions.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	newCtl   func(id string) *chat.Controller
}

// NewSessionRegistry creates a registry that builds controllers with newCtl.
func NewSessionRegistry(newCtl func(id string) *chat.Controller) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		newCtl:   newCtl,
	}
}

// Create starts a new session with a fresh controller.
func (r *SessionRegistry) Create() *Session {
	id := uuid.NewString()
	now := time.Now()
	s := &Session{
		ID:         id,
		Controller: r.newCtl(id),
		Created:    now,
		lastSeen:   now,
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with id and marks it active.
func (r *SessionRegistry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Prune drops sessions idle for longer than maxIdle that are not generating
// a reply, and returns their ids.
func (r *SessionRegistry) Prune(maxIdle time.Duration) []string {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) && !s.Controller.Loading() {
			delete(r.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}
