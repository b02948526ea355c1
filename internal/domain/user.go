// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxUserIDLen = 36

var (
	ErrUserIDEmpty   = errors.New("user id empty")
	ErrUserIDTooLong = errors.New("user id too long")
)

type (
	UserID    string
	SessionID string
)

// Identity is one connection of one user. A user running several clients
// holds several identities with the same UserID.
type Identity struct {
	SessionID SessionID
	UserID    UserID
}

// NewIdentity is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewIdentity(sessionID SessionID, userID UserID) (Identity, error) {
	if len(userID) == 0 {
		return Identity{}, ErrUserIDEmpty
	}
	if len(userID) > MaxUserIDLen {
		return Identity{}, ErrUserIDTooLong
	}
	return Identity{SessionID: sessionID, UserID: userID}, nil
}
