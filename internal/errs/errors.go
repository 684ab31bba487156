package errs

import (
	"encoding/json"
	"fmt"
)

type Error string

func (e Error) Error() string { return string(e) }

func (e Error) MarshalJSON() ([]byte, error) { return json.Marshal(string(e)) }

const (
	ErrInvalidRequestBody = Error("invalid request body")
	ErrUserAlreadyExists  = Error("user already exists")
	ErrUserNotFound       = Error("user not found")
	ErrInvalidCredentials = Error("invalid credentials")
	ErrUsernameRequired   = Error("username is required")
	ErrPasswordTooShort   = Error("password must be at least 6 characters long")
	ErrInvalidUser        = Error("invalid user")
	ErrTooManyRequests    = Error("too many requests")

	// Authentication
	ErrUnauthorized  = Error("authentication error")
	ErrInvalidToken  = Error("invalid token")
	ErrTokenExpired  = Error("token expired")
	ErrMissingSecret = Error("jwt secret is not configured")

	// Validation of socket payloads
	ErrInvalidPayload   = Error("invalid payload")
	ErrInvalidRoomId    = Error("invalid room id")
	ErrNotRoomMember    = Error("not a member of this room")
	ErrUnknownEvent     = Error("unknown event")
	ErrConnectionClosed = Error("connection closed")

	// Storage
	ErrStorage                      = Error("whiteboard storage unavailable")
	ErrNoWhiteboardFoundForThisRoom = Error("no whiteboard for this room")
	ErrWhiteboardExportDisabled     = Error("whiteboard export is disabled")
	ErrBroadcastFailed              = Error("update saved but broadcast failed")
)

// StorageError is a persistence fault. It matches ErrStorage with errors.Is and keeps the
// driver error reachable for logging.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.Op, e.Err)
}

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) MarshalJSON() ([]byte, error) { return json.Marshal(string(ErrStorage)) }

func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
