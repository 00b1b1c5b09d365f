package core

import "github.com/sidechat/sidechat-server/internal/store"

// EventKind is a notification the core fans out to sessions.
type EventKind int

const (
	// EventOnlineUsers carries the full online set after a presence transition.
	EventOnlineUsers EventKind = iota
	// EventNewRequest notifies a recipient about an incoming friend request.
	EventNewRequest
	// EventRequestAccepted notifies a sender that their request was accepted.
	EventRequestAccepted
	// EventMessage delivers a chat message to a room.
	EventMessage
	// EventNotification is the lightweight private-message alert sent to the
	// recipient's identity room alongside the full message.
	EventNotification
)

// Event is sent to sessions to describe what happened in the system.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind

	// Users is the sorted online set for EventOnlineUsers.
	Users []string
	// Request is set for EventNewRequest.
	Request *store.FriendRequest
	// Message is set for EventMessage.
	Message *store.Message
	// From and MsgKind are set for EventRequestAccepted and EventNotification.
	From    string
	MsgKind store.MessageKind
}
