package core

// Hub owns the session registry and room router of one server process and
// orchestrates the connect/disconnect protocol: every principal joins the
// public room and its own identity room, and presence is broadcast on
// online-set transitions only.
type Hub struct {
	registry *Registry
	router   *Router
	buffer   int
}

// NewHub creates a hub with the given per-session event buffer size.
func NewHub(eventBuffer int) *Hub {
	registry := NewRegistry()
	return &Hub{
		registry: registry,
		router:   NewRouter(registry),
		buffer:   eventBuffer,
	}
}

// Connect registers a new session for an authenticated principal, joins it to
// the public and identity rooms, and announces presence. A duplicate
// connection of an already-online principal does not re-broadcast; the fresh
// session alone receives the current online set.
func (h *Hub) Connect(user string) *Session {
	s := NewSession(user, h.buffer)
	cameOnline := h.registry.Register(s)

	h.router.Join(user, GlobalRoom)
	h.router.Join(user, user)

	ev := &Event{Kind: EventOnlineUsers, Users: h.registry.Online()}
	if cameOnline {
		h.router.Publish(GlobalRoom, ev)
	} else {
		s.TrySend(ev)
	}
	return s
}

// Disconnect tears a session down. When the principal's last session closes
// it leaves all rooms and the shrunken online set is broadcast. Unknown
// sessions are ignored.
func (h *Hub) Disconnect(s *Session) {
	user, wentOffline := h.registry.Unregister(s.ID)
	if !wentOffline {
		return
	}
	h.router.Drop(user)
	h.router.Publish(GlobalRoom, &Event{Kind: EventOnlineUsers, Users: h.registry.Online()})
}

// Publish fans an event out to a room's current members, best effort.
func (h *Hub) Publish(room string, ev *Event) {
	h.router.Publish(room, ev)
}

// Join adds a currently-online principal to a room. Offline principals are
// skipped: their membership would never be torn down, and they cannot receive
// anything anyway. Used by the dispatcher to materialize pairwise rooms on
// first private message.
func (h *Hub) Join(user, room string) {
	if len(h.registry.SessionsFor(user)) == 0 {
		return
	}
	h.router.Join(user, room)
}

// Online returns the sorted online set.
func (h *Hub) Online() []string {
	return h.registry.Online()
}

// Router exposes the room router, mainly for tests.
func (h *Hub) Router() *Router {
	return h.router
}
