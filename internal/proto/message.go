package proto

// Outbound is the envelope for events pushed to WebSocket clients.
// The socket is outbound-only; all client actions go through the REST API.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

const (
	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventOnlineUsers     = "online_users"
	EventNewRequest      = "new_request"
	EventRequestAccepted = "request_accepted"
	EventMessage         = "message"
	EventNotification    = "notification"
)

// FriendRequestData mirrors a persisted friend request on the wire.
type FriendRequestData struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// RequestAcceptedData names the user who accepted the request.
type RequestAcceptedData struct {
	From string `json:"from"`
}

// MessageData mirrors a persisted chat message on the wire.
type MessageData struct {
	ID      int64  `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Kind    string `json:"kind"`
	Text    string `json:"text,omitempty"`
	Payload string `json:"payload,omitempty"`
	TS      int64  `json:"ts"`
}

// NotificationData is the lightweight private-message alert.
type NotificationData struct {
	From string `json:"from"`
	Kind string `json:"kind"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
