package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sidechat/sidechat-server/internal/core"
	"github.com/sidechat/sidechat-server/internal/store"
	"github.com/sidechat/sidechat-server/internal/store/sqlite"
)

type published struct {
	Room  string
	Event *core.Event
}

type recorder struct {
	mu     sync.Mutex
	events []published
	joins  map[string][]string
}

func (r *recorder) Publish(room string, ev *core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{Room: room, Event: ev})
}

func (r *recorder) Join(user, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.joins == nil {
		r.joins = make(map[string][]string)
	}
	r.joins[room] = append(r.joins[room], user)
}

func (r *recorder) all() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.events...)
}

func newTestDispatcher(t *testing.T) (*Service, *sqlite.SQLiteStore, *recorder) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	rec := &recorder{}
	return New(st, rec), st, rec
}

func makeFriends(t *testing.T, st *sqlite.SQLiteStore, a, b string) {
	t.Helper()

	req, err := st.CreateRequest(context.Background(), a, b)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if _, err := st.DecideRequest(context.Background(), req.ID, store.StatusAccepted); err != nil {
		t.Fatalf("accept request: %v", err)
	}
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()

	var domainErr *core.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected domain error with code %s, got %v", code, err)
	}
	if domainErr.Code != code {
		t.Fatalf("expected code %s, got %s", code, domainErr.Code)
	}
}

func TestSendValidatesShape(t *testing.T) {
	svc, _, _ := newTestDispatcher(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		kind    store.MessageKind
		text    string
		payload string
	}{
		{"empty text", store.KindText, "", ""},
		{"whitespace text", store.KindText, "   ", ""},
		{"image without payload", store.KindImage, "", ""},
		{"voice without payload", store.KindVoice, "", ""},
		{"unknown kind", store.MessageKind("video"), "hi", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Send(ctx, "alice", store.GlobalRoom, tt.kind, tt.text, tt.payload)
			wantCode(t, err, core.CodeInvalidInput)
		})
	}
}

func TestSendGlobalSkipsFriendshipCheck(t *testing.T) {
	svc, _, rec := newTestDispatcher(t)

	msg, err := svc.Send(context.Background(), "alice", "", store.KindText, " hello ", "")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if msg.To != store.GlobalRoom {
		t.Fatalf("empty target must default to the public room, got %q", msg.To)
	}
	if msg.Text != "hello" {
		t.Fatalf("text must be trimmed, got %q", msg.Text)
	}
	if msg.ID == 0 || msg.CreatedAt.IsZero() {
		t.Fatal("message must carry persisted ID and server timestamp")
	}

	events := rec.all()
	if len(events) != 1 {
		t.Fatalf("global send publishes exactly once, got %d", len(events))
	}
	if events[0].Room != store.GlobalRoom || events[0].Event.Kind != core.EventMessage {
		t.Fatalf("unexpected publish: %+v", events[0])
	}
}

func TestSendPrivateToNonFriendIsNotAuthorized(t *testing.T) {
	svc, _, rec := newTestDispatcher(t)

	_, err := svc.Send(context.Background(), "alice", "bob", store.KindText, "hi", "")
	wantCode(t, err, core.CodeNotAuthorized)

	if len(rec.all()) != 0 {
		t.Fatal("an unauthorized send must not publish anything")
	}
}

func TestSendPrivateToFriendPublishesMessageAndNotification(t *testing.T) {
	svc, st, rec := newTestDispatcher(t)
	makeFriends(t, st, "alice", "bob")

	msg, err := svc.Send(context.Background(), "alice", "bob", store.KindText, "hello", "")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	events := rec.all()
	if len(events) != 2 {
		t.Fatalf("private send publishes message and notification, got %d events", len(events))
	}

	if events[0].Room != "alice_bob" || events[0].Event.Kind != core.EventMessage {
		t.Fatalf("unexpected first publish: %+v", events[0])
	}
	if events[0].Event.Message.ID != msg.ID {
		t.Fatal("published message must be the persisted one")
	}

	if events[1].Room != "bob" || events[1].Event.Kind != core.EventNotification {
		t.Fatalf("unexpected second publish: %+v", events[1])
	}
	if events[1].Event.From != "alice" || events[1].Event.MsgKind != store.KindText {
		t.Fatalf("unexpected notification payload: %+v", events[1].Event)
	}

	// Both participants are joined to the pairwise room before fan-out.
	if joined := rec.joins["alice_bob"]; len(joined) != 2 {
		t.Fatalf("expected both participants joined to the pairwise room, got %v", joined)
	}
}

func TestSendStoreFailureSurfacesAsStorageError(t *testing.T) {
	svc, st, rec := newTestDispatcher(t)
	makeFriends(t, st, "alice", "bob")
	_ = st.Close()

	_, err := svc.Send(context.Background(), "alice", "", store.KindText, "hi", "")
	wantCode(t, err, core.CodeStorage)

	_, err = svc.Send(context.Background(), "alice", "bob", store.KindText, "hi", "")
	wantCode(t, err, core.CodeStorage)

	if len(rec.all()) != 0 {
		t.Fatal("a failed persist must not publish anything")
	}
}

func TestSendRoomNamingIsCommutative(t *testing.T) {
	svc, st, rec := newTestDispatcher(t)
	makeFriends(t, st, "alice", "bob")

	if _, err := svc.Send(context.Background(), "alice", "bob", store.KindText, "one", ""); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := svc.Send(context.Background(), "bob", "alice", store.KindText, "two", ""); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	events := rec.all()
	if events[0].Room != events[2].Room {
		t.Fatalf("both directions must resolve to the same room: %q vs %q", events[0].Room, events[2].Room)
	}
}

func TestSendImageRequiresFriendshipToo(t *testing.T) {
	svc, st, rec := newTestDispatcher(t)
	makeFriends(t, st, "alice", "bob")

	msg, err := svc.Send(context.Background(), "alice", "bob", store.KindVoice, "", "base64-audio")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if msg.Kind != store.KindVoice || msg.Payload != "base64-audio" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	events := rec.all()
	if events[1].Event.MsgKind != store.KindVoice {
		t.Fatalf("notification must carry the message kind, got %q", events[1].Event.MsgKind)
	}
}
