package core

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Session is one live connection bound to a single principal. A principal may
// hold several sessions at once; the online set tracks principals, not
// connections.
type Session struct {
	ID   string
	User string
	// Events is the bounded outbound queue drained by the transport's write
	// loop. Publishers never block on it; see TrySend.
	Events chan *Event

	dropped atomic.Int64
}

// NewSession constructs a session with a fresh ID and a buffered event queue.
func NewSession(user string, buffer int) *Session {
	if buffer <= 0 {
		buffer = 32
	}
	return &Session{
		ID:     uuid.NewString(),
		User:   user,
		Events: make(chan *Event, buffer),
	}
}

// TrySend enqueues an event without blocking. When the queue is full the
// event is dropped and counted; a slow consumer must never stall fan-out to
// other sessions.
func (s *Session) TrySend(ev *Event) bool {
	select {
	case s.Events <- ev:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Dropped reports how many events were discarded due to backpressure.
func (s *Session) Dropped() int64 {
	return s.dropped.Load()
}

// Registry tracks live sessions and the derived online set.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byUser   map[string]map[string]*Session
}

// NewRegistry constructs an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byUser:   make(map[string]map[string]*Session),
	}
}

// Register records a live session. It reports whether the principal went from
// offline to online, which is the only transition worth broadcasting.
func (r *Registry) Register(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID] = s

	set, ok := r.byUser[s.User]
	if !ok {
		set = make(map[string]*Session)
		r.byUser[s.User] = set
	}
	set[s.ID] = s

	return len(set) == 1
}

// Unregister removes a session. Unknown IDs are a no-op so teardown stays
// idempotent on abrupt disconnects. It returns the owning principal and
// whether that principal went offline.
func (r *Registry) Unregister(sessionID string) (user string, wentOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return "", false
	}
	delete(r.sessions, sessionID)

	set := r.byUser[s.User]
	delete(set, sessionID)
	if len(set) == 0 {
		delete(r.byUser, s.User)
		return s.User, true
	}
	return s.User, false
}

// SessionsFor returns a snapshot of the principal's live sessions.
// An offline principal yields an empty slice; delivery is then a silent no-op.
func (r *Registry) SessionsFor(user string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byUser[user]
	if len(set) == 0 {
		return nil
	}
	sessions := make([]*Session, 0, len(set))
	for _, s := range set {
		sessions = append(sessions, s)
	}
	return sessions
}

// Online returns the sorted set of principals with at least one live session.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.byUser))
	for user := range r.byUser {
		users = append(users, user)
	}
	sort.Strings(users)
	return users
}
