package core

import "testing"

func TestHubConnectJoinsGlobalAndIdentityRooms(t *testing.T) {
	hub := NewHub(8)

	s := hub.Connect("alice")

	if members := hub.Router().Members(GlobalRoom); len(members) != 1 || members[0] != "alice" {
		t.Fatalf("unexpected global members: %v", members)
	}
	if members := hub.Router().Members("alice"); len(members) != 1 || members[0] != "alice" {
		t.Fatalf("unexpected identity room members: %v", members)
	}

	ev := mustEvent(t, s.Events, EventOnlineUsers)
	if len(ev.Users) != 1 || ev.Users[0] != "alice" {
		t.Fatalf("unexpected online set: %v", ev.Users)
	}
}

func TestHubPresenceBroadcastOnConnectAndDisconnect(t *testing.T) {
	hub := NewHub(8)

	alice := hub.Connect("alice")
	drain(alice.Events)

	bob := hub.Connect("bob")

	// Presence reaches earlier sessions as well as the new one.
	for _, s := range []*Session{alice, bob} {
		ev := mustEvent(t, s.Events, EventOnlineUsers)
		if len(ev.Users) != 2 || ev.Users[0] != "alice" || ev.Users[1] != "bob" {
			t.Fatalf("unexpected online set for %s: %v", s.User, ev.Users)
		}
	}

	hub.Disconnect(bob)

	ev := mustEvent(t, alice.Events, EventOnlineUsers)
	if len(ev.Users) != 1 || ev.Users[0] != "alice" {
		t.Fatalf("bob should be gone from presence: %v", ev.Users)
	}
}

func TestHubDuplicateConnectionDoesNotRebroadcast(t *testing.T) {
	hub := NewHub(8)

	alice := hub.Connect("alice")
	bob := hub.Connect("bob")
	drain(alice.Events)
	drain(bob.Events)

	// Second device for bob: only the fresh session gets the online set.
	bob2 := hub.Connect("bob")
	ev := mustEvent(t, bob2.Events, EventOnlineUsers)
	if len(ev.Users) != 2 {
		t.Fatalf("unexpected online set: %v", ev.Users)
	}

	select {
	case ev := <-alice.Events:
		t.Fatalf("no broadcast expected for a duplicate connection, got %+v", ev)
	default:
	}

	// Closing one of bob's sessions keeps him online, silently.
	hub.Disconnect(bob2)
	select {
	case ev := <-alice.Events:
		t.Fatalf("no broadcast expected while bob stays online, got %+v", ev)
	default:
	}

	hub.Disconnect(bob)
	ev = mustEvent(t, alice.Events, EventOnlineUsers)
	if len(ev.Users) != 1 || ev.Users[0] != "alice" {
		t.Fatalf("bob should be offline now: %v", ev.Users)
	}
}

func TestHubDisconnectUnknownSessionIsNoop(t *testing.T) {
	hub := NewHub(8)
	hub.Disconnect(NewSession("ghost", 1))

	if online := hub.Online(); len(online) != 0 {
		t.Fatalf("unexpected online set: %v", online)
	}
}
