package domain

import "errors"

const MaxRoomNameLen = 36

var (
	ErrRoomNameEmpty   = errors.New("room name empty")
	ErrRoomNameTooLong = errors.New("room name too long")
)

type RoomName string

// ValidateRoomName rejects names no room may carry, before any directory
// lookup or creation happens.
func ValidateRoomName(name RoomName) error {
	if len(name) == 0 {
		return ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLen {
		return ErrRoomNameTooLong
	}
	return nil
}

// RoomMetadata identifies a chat room. Immutable after creation.
type RoomMetadata struct {
	Name        RoomName `json:"name"`
	Description string   `json:"description"`
}

// ChatMessage is an immutable value recorded in a room's history.
type ChatMessage struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}
