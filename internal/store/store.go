package store

import (
	"context"
	"errors"
	"time"
)

// Usernames are the identity key for every relation in the system.
// The public room is addressed by the reserved name "global".
const GlobalRoom = "global"

// Sentinel errors shared by all store implementations.
var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("duplicate record")
	// ErrDuplicatePending is returned when a pending friend request for the
	// same ordered (from, to) pair already exists.
	ErrDuplicatePending = errors.New("pending request already exists")
	// ErrAlreadyDecided is returned when a terminal friend request is decided again.
	ErrAlreadyDecided = errors.New("request already decided")
)

// User represents a registered user and their friend set.
type User struct {
	Username     string
	PasswordHash string
	Friends      []string
	CreatedAt    time.Time
}

// MessageKind distinguishes text from binary message payloads.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindVoice MessageKind = "voice"
)

// Message is a persisted chat message. To is either a username or GlobalRoom.
// Payload carries base64-encoded media for image and voice kinds.
type Message struct {
	ID        int64
	From      string
	To        string
	Kind      MessageKind
	Text      string
	Payload   string
	CreatedAt time.Time
}

// RequestStatus is the lifecycle state of a friend request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

// FriendRequest is a request from one user to open a private channel with another.
// Decided requests are kept as an audit trail, never deleted.
type FriendRequest struct {
	ID        string
	From      string
	To        string
	Status    RequestStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	// Returns ErrDuplicate if the username is taken.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUser retrieves a user, friend set included.
	GetUser(ctx context.Context, username string) (*User, error)

	// ListUsers lists all users with their friend sets.
	ListUsers(ctx context.Context) ([]*User, error)

	// UpdateUser renames a user and/or replaces their password hash.
	// Empty arguments leave the corresponding field untouched.
	UpdateUser(ctx context.Context, username, newUsername, newPasswordHash string) (*User, error)

	// AreFriends reports whether other is in username's friend set.
	AreFriends(ctx context.Context, username, other string) (bool, error)
}

// MessageStore handles message persistence. History is append-only.
type MessageStore interface {
	// SaveMessage persists a message and fills in its ID and CreatedAt.
	SaveMessage(ctx context.Context, msg *Message) error
}

// RequestStore handles friend request persistence and the friendship relation
// derived from accepted requests.
type RequestStore interface {
	// CreateRequest inserts a new pending request.
	// Returns ErrDuplicatePending when a pending request for the same
	// ordered (from, to) pair exists.
	CreateRequest(ctx context.Context, from, to string) (*FriendRequest, error)

	// GetRequest retrieves a request by ID.
	GetRequest(ctx context.Context, id string) (*FriendRequest, error)

	// DecideRequest moves a pending request to a terminal status. Accepting
	// also writes both directions of the friendship; the status update and
	// the two friend rows commit in a single transaction so a unilateral
	// friendship can never be observed.
	// Returns ErrNotFound for an unknown ID and ErrAlreadyDecided when the
	// request is already terminal.
	DecideRequest(ctx context.Context, id string, status RequestStatus) (*FriendRequest, error)

	// ListPendingRequests lists pending requests addressed to username,
	// oldest first.
	ListPendingRequests(ctx context.Context, username string) ([]*FriendRequest, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore
	RequestStore

	// Close closes the underlying database connection.
	Close() error
}
