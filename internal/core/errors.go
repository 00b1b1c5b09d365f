package core

// Error codes for domain errors. The transport layer maps these to HTTP
// statuses; the core never logs, it returns structured failures only.
const (
	CodeUnauthenticated = "unauthenticated"
	CodeInvalidInput    = "invalid_input"
	CodeNotAuthorized   = "not_authorized"
	CodeConflict        = "conflict"
	CodeNotFound        = "not_found"
	CodeAlreadyDecided  = "already_decided"
	CodeStorage         = "storage_error"
)

// Error wraps a taxonomy code and a human-readable message. Transports render
// Message only; a wrapped cause stays available for logs via Unwrap.
type Error struct {
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.Message + ": " + e.err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// NewError builds a typed domain error.
func NewError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// WrapError attaches a taxonomy code to an underlying failure.
func WrapError(code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, err: err}
}
