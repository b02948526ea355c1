package core

import (
	"sync"

	"github.com/avray/parley/internal/comms"
	"github.com/avray/parley/internal/domain"
)

// MembershipHandle is the capability a session holds per joined room:
// proof of presence plus the right to publish into the room's broadcast
// channel. Exactly one exists per (session, room) pair; it must never be
// shared across sessions. Room.Leave consumes it — the revoked flag is the
// Go stand-in for move semantics.
type MembershipHandle struct {
	room     domain.RoomName
	identity domain.Identity
	bcast    *broadcaster

	mu      sync.Mutex
	revoked bool
}

func (h *MembershipHandle) RoomName() domain.RoomName { return h.room }
func (h *MembershipHandle) Identity() domain.Identity { return h.identity }

// Publish broadcasts a user message to the room. Fire-and-forget for a live
// handle; only a revoked handle reports an error.
func (h *MembershipHandle) Publish(content string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.revoked {
		return ErrHandleRevoked
	}
	h.bcast.Send(comms.NewUserMessage(string(h.room), string(h.identity.UserID), content))
	return nil
}

// revoke marks the handle consumed. Reports false if it already was.
func (h *MembershipHandle) revoke() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.revoked {
		return false
	}
	h.revoked = true
	return true
}
