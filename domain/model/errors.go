package model

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrRoomFull           = errors.New("room is full")
	ErrRoomClosed         = errors.New("room is closed")
	ErrAlreadyMember      = errors.New("user is already a member of a room")
	ErrNotMember          = errors.New("user is not a member of the room")
	ErrAlreadyQueued      = errors.New("user is already queued")
	ErrConflict           = errors.New("room was modified concurrently")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrTokenNotFound      = errors.New("device token not found")
	ErrInvalidToken       = errors.New("device token cannot be empty")
	ErrInvalidPlatform    = errors.New("unsupported device platform")
)

// IsRetryable reports whether the caller may retry the operation as is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrRoomFull) ||
		errors.Is(err, ErrStorageUnavailable)
}
