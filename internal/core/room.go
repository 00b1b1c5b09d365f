package core

import (
	"sort"
	"strings"
	"sync"

	"github.com/sidechat/sidechat-server/internal/store"
)

// PrivateRoom computes the canonical room name for a user pair. It is
// commutative: both participants resolve to the same room regardless of who
// names it first.
func PrivateRoom(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "_")
}

// room is one named membership set with its own lock, so publishes to one
// room never block publishes to another. Holding mu across a full fan-out
// gives each room a single delivery order.
type room struct {
	mu      sync.Mutex
	members map[string]struct{}
}

// Router maintains room membership and fans events out to every live session
// of every member. Delivery is best-effort: offline members and saturated
// session queues are skipped, the durable record lives in the store.
type Router struct {
	registry *Registry

	mu    sync.RWMutex
	rooms map[string]*room
}

// NewRouter constructs a router delivering through the given registry.
func NewRouter(registry *Registry) *Router {
	return &Router{
		registry: registry,
		rooms:    make(map[string]*room),
	}
}

// Join adds a principal to a room, creating the room on first use.
func (r *Router) Join(user, name string) {
	rm := r.getOrCreate(name)
	rm.mu.Lock()
	rm.members[user] = struct{}{}
	rm.mu.Unlock()
}

// Drop removes a principal from every room. Called when its last session
// closes; membership is derived from live sessions, never unsubscribed
// explicitly. Emptied rooms are deleted, the public room included; it is
// recreated on the next join.
func (r *Router) Drop(user string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, rm := range r.rooms {
		rm.mu.Lock()
		delete(rm.members, user)
		empty := len(rm.members) == 0
		rm.mu.Unlock()
		if empty {
			delete(r.rooms, name)
		}
	}
}

// Members returns a sorted snapshot of a room's membership.
func (r *Router) Members(name string) []string {
	r.mu.RLock()
	rm := r.rooms[name]
	r.mu.RUnlock()
	if rm == nil {
		return nil
	}

	rm.mu.Lock()
	members := make([]string, 0, len(rm.members))
	for user := range rm.members {
		members = append(members, user)
	}
	rm.mu.Unlock()

	sort.Strings(members)
	return members
}

// Publish delivers an event to every session of every current member.
// Publishing to an unknown room is a no-op.
func (r *Router) Publish(name string, ev *Event) {
	r.mu.RLock()
	rm := r.rooms[name]
	r.mu.RUnlock()
	if rm == nil {
		return
	}

	// The room lock is held across the whole fan-out so concurrent publishes
	// to the same room reach every member in one order. TrySend never blocks,
	// so a slow consumer cannot extend the critical section.
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for user := range rm.members {
		for _, s := range r.registry.SessionsFor(user) {
			s.TrySend(ev)
		}
	}
}

func (r *Router) getOrCreate(name string) *room {
	r.mu.RLock()
	rm := r.rooms[name]
	r.mu.RUnlock()
	if rm != nil {
		return rm
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rm = r.rooms[name]; rm != nil {
		return rm
	}
	rm = &room{members: make(map[string]struct{})}
	r.rooms[name] = rm
	return rm
}

// GlobalRoom re-exports the reserved public room name for callers that only
// import core.
const GlobalRoom = store.GlobalRoom
