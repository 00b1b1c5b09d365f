// Package dispatch validates, persists, and fans out chat messages. A private
// message must never reach a non-friend; that check lives here and nowhere
// else.
package dispatch

import (
	"context"
	"strings"

	"github.com/sidechat/sidechat-server/internal/core"
	"github.com/sidechat/sidechat-server/internal/store"
)

// Publisher is the slice of the hub the dispatcher needs: room fan-out plus
// lazy membership for pairwise rooms.
type Publisher interface {
	Join(user, room string)
	Publish(room string, ev *core.Event)
}

// Store is the persistence surface the dispatcher needs: append messages and
// read friend sets for the authorization check.
type Store interface {
	SaveMessage(ctx context.Context, msg *store.Message) error
	AreFriends(ctx context.Context, username, other string) (bool, error)
}

// Service routes outgoing messages to the public room or a pairwise private
// room.
type Service struct {
	store Store
	pub   Publisher
}

// New creates a message dispatcher.
func New(st Store, pub Publisher) *Service {
	return &Service{store: st, pub: pub}
}

// Send validates and persists a message, then publishes it to its room.
// Persistence failure aborts before any fan-out; fan-out itself is
// best-effort and never reported back to the sender.
func (s *Service) Send(ctx context.Context, from, to string, kind store.MessageKind, text, payload string) (*store.Message, error) {
	if to == "" {
		to = store.GlobalRoom
	}

	msg := &store.Message{
		From:    from,
		To:      to,
		Kind:    kind,
		Text:    strings.TrimSpace(text),
		Payload: payload,
	}

	switch kind {
	case store.KindText:
		if msg.Text == "" {
			return nil, core.NewError(core.CodeInvalidInput, "message text is empty")
		}
		msg.Payload = ""
	case store.KindImage, store.KindVoice:
		if payload == "" {
			return nil, core.NewError(core.CodeInvalidInput, "message payload is missing")
		}
	default:
		return nil, core.NewError(core.CodeInvalidInput, "unknown message kind")
	}

	private := to != store.GlobalRoom
	if private {
		ok, err := s.store.AreFriends(ctx, from, to)
		if err != nil {
			return nil, core.WrapError(core.CodeStorage, "friendship check failed", err)
		}
		if !ok {
			return nil, core.NewError(core.CodeNotAuthorized, "recipient has not approved private messages")
		}
	}

	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, core.WrapError(core.CodeStorage, "save message failed", err)
	}

	roomName := store.GlobalRoom
	if private {
		roomName = core.PrivateRoom(from, to)
		// Pairwise rooms materialize on first use; both connected
		// participants become members so each receives the message event.
		s.pub.Join(from, roomName)
		s.pub.Join(to, roomName)
	}

	s.pub.Publish(roomName, &core.Event{Kind: core.EventMessage, Message: msg})

	// The identity room is always joined, so the recipient learns about the
	// message even before ever resolving the pairwise room.
	if private {
		s.pub.Publish(to, &core.Event{
			Kind:    core.EventNotification,
			From:    from,
			MsgKind: msg.Kind,
		})
	}

	return msg, nil
}
