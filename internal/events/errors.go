package events

import "github.com/duocall/backend/internal/errors"

const (
	ErrCodeMarshal errors.Code = "marshal_error"
	ErrClosed      errors.Code = "closed"
)

// Error is a handler rejection that is safe to surface to the client.
// Message is a short machine-readable reason, e.g. "room_full".
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "event rejected: " + e.Message
}

func NewError(message string) *Error {
	return &Error{Message: message}
}

func ErrInvalidData(message string) *Error {
	return &Error{Message: message}
}
