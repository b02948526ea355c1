package core

import (
	"sync"

	"github.com/avray/parley/internal/comms"
	"github.com/avray/parley/internal/domain"

	"github.com/rs/zerolog/log"
)

const (
	broadcastCapacity = 100
	historyCapacity   = 10
)

// Room owns one broadcast channel, the participant registry and a bounded
// message history. All mutation is linearized behind one mutex; different
// rooms never share state, so they proceed fully in parallel.
type Room struct {
	meta domain.RoomMetadata

	mu       sync.Mutex
	registry *participantRegistry
	history  []domain.ChatMessage
	bcast    *broadcaster
}

func newRoom(meta domain.RoomMetadata) *Room {
	return &Room{
		meta:     meta,
		registry: newParticipantRegistry(),
		history:  make([]domain.ChatMessage, 0, historyCapacity),
		bcast:    newBroadcaster(broadcastCapacity),
	}
}

func (r *Room) Metadata() domain.RoomMetadata { return r.meta }

// Join adds a participant and hands out a fresh subscription plus the
// membership handle that proves presence and carries publish rights. The
// returned user list is the distinct set snapshotted atomically with the
// subscription, so the joiner cannot race with its own reply. If the user
// was not present through another session, a joined broadcast goes out.
func (r *Room) Join(id domain.Identity) (*Subscription, *MembershipHandle, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub := r.bcast.Subscribe()
	handle := &MembershipHandle{
		room:     r.meta.Name,
		identity: id,
		bcast:    r.bcast,
	}

	if r.registry.insert(id) {
		r.bcast.Send(comms.NewRoomParticipation(string(r.meta.Name), string(id.UserID), comms.StatusJoined))
	}
	users := r.registry.distinctUserIDs()

	log.Debug().Str("module", "core.room").
		Str("room", string(r.meta.Name)).
		Str("sid", string(id.SessionID)).
		Str("user", string(id.UserID)).
		Int("identities", r.registry.identityCount()).
		Msg("participant joined")

	return sub, handle, users
}

// Leave consumes the handle: it is revoked and must not be used again. If
// this was the user's last live session here, a left broadcast goes out.
// Leaving twice with the same handle is a no-op.
func (r *Room) Leave(handle *MembershipHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !handle.revoke() {
		return
	}
	if r.registry.remove(handle.identity) {
		r.bcast.Send(comms.NewRoomParticipation(string(r.meta.Name), string(handle.identity.UserID), comms.StatusLeft))
	}

	log.Debug().Str("module", "core.room").
		Str("room", string(r.meta.Name)).
		Str("sid", string(handle.identity.SessionID)).
		Msg("participant left")
}

// RecordMessage appends to the history, evicting the oldest entry at
// capacity. Recording does not broadcast; publishing is the handle owner's
// explicit, separate act.
func (r *Room) RecordMessage(userID, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg := domain.ChatMessage{UserID: userID, Content: content}
	if len(r.history) >= historyCapacity {
		copy(r.history, r.history[1:])
		r.history[len(r.history)-1] = msg
		return
	}
	r.history = append(r.history, msg)
}

// History returns a copy of the recorded messages, oldest first.
func (r *Room) History() []domain.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ChatMessage, len(r.history))
	copy(out, r.history)
	return out
}

func (r *Room) DistinctUserIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.distinctUserIDs()
}

func (r *Room) participantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.identityCount()
}
