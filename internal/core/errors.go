package core

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyJoined: JoinRoom for a room already in the session's joined set.
	ErrAlreadyJoined = errors.New("already joined room")
	// ErrNotJoined: SendMessage or GetHistory for a room the session never joined.
	ErrNotJoined = errors.New("not joined to room")
	// ErrRoomNotFound: the directory disallows ad-hoc rooms and the name is unknown.
	ErrRoomNotFound = errors.New("room not found")
	// ErrInvalidHandle signals an internal invariant violation: a handle
	// references a room the directory does not know. Rooms are never
	// deleted, so seeing this is a bug, not a user error.
	ErrInvalidHandle = errors.New("invalid membership handle")
	// ErrHandleRevoked: the handle was already consumed by a leave.
	ErrHandleRevoked = errors.New("membership handle revoked")
	// ErrSubscriptionClosed: Recv on a closed subscription.
	ErrSubscriptionClosed = errors.New("subscription closed")
)

// LagError tells a subscriber it fell behind the broadcast ring and how many
// events it missed. The subscription is resynced and usable afterwards; the
// caller is expected to keep receiving.
type LagError struct {
	Missed int
}

func (e *LagError) Error() string {
	return fmt.Sprintf("subscription lagged, missed %d events", e.Missed)
}
