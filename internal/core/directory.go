package core

import (
	"fmt"
	"sync"

	"github.com/avray/parley/internal/domain"

	"github.com/rs/zerolog/log"
)

// Directory owns the set of rooms keyed by name. It is the only component
// that creates or looks up rooms. Rooms live for the process lifetime; there
// is no deletion.
type Directory struct {
	mu         sync.RWMutex
	rooms      map[domain.RoomName]*Room
	seed       []domain.RoomMetadata
	allowAdhoc bool
}

// NewDirectory creates the directory and eagerly creates every seeded room.
// When allowAdhoc is false, joining a name outside the seed set fails with
// ErrRoomNotFound.
func NewDirectory(seed []domain.RoomMetadata, allowAdhoc bool) *Directory {
	d := &Directory{
		rooms:      make(map[domain.RoomName]*Room, len(seed)),
		seed:       seed,
		allowAdhoc: allowAdhoc,
	}
	for _, meta := range seed {
		d.rooms[meta.Name] = newRoom(meta)
	}
	log.Info().Str("module", "core.directory").
		Int("rooms", len(seed)).
		Bool("allow_adhoc", allowAdhoc).
		Msg("directory seeded")
	return d
}

// GetOrCreate returns the room for name, creating it on first reference.
// Double-checked so two concurrent first references cannot create duplicates.
func (d *Directory) GetOrCreate(name domain.RoomName) *Room {
	d.mu.RLock()
	room, ok := d.rooms[name]
	d.mu.RUnlock()
	if ok {
		return room
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if room, ok = d.rooms[name]; ok {
		return room
	}
	room = newRoom(domain.RoomMetadata{Name: name})
	d.rooms[name] = room
	log.Info().Str("module", "core.directory").Str("room", string(name)).Msg("room created")
	return room
}

func (d *Directory) lookup(name domain.RoomName) (*Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[name]
	return room, ok
}

// JoinRoom resolves the room and joins it, returning the subscription, the
// membership handle and the distinct-user snapshot taken at the instant of
// the join.
func (d *Directory) JoinRoom(name domain.RoomName, id domain.Identity) (*Subscription, *MembershipHandle, []string, error) {
	var room *Room
	if d.allowAdhoc {
		room = d.GetOrCreate(name)
	} else {
		var ok bool
		if room, ok = d.lookup(name); !ok {
			return nil, nil, nil, fmt.Errorf("%w: %q", ErrRoomNotFound, name)
		}
	}
	sub, handle, users := room.Join(id)
	return sub, handle, users, nil
}

// RecordMessage appends to the history of the handle's room.
func (d *Directory) RecordMessage(handle *MembershipHandle, content string) error {
	room, ok := d.lookup(handle.RoomName())
	if !ok {
		return fmt.Errorf("%w: room %q", ErrInvalidHandle, handle.RoomName())
	}
	room.RecordMessage(string(handle.Identity().UserID), content)
	return nil
}

// GetHistory returns the handle's room history, oldest first.
func (d *Directory) GetHistory(handle *MembershipHandle) ([]domain.ChatMessage, error) {
	room, ok := d.lookup(handle.RoomName())
	if !ok {
		return nil, fmt.Errorf("%w: room %q", ErrInvalidHandle, handle.RoomName())
	}
	return room.History(), nil
}

// DropHandle leaves the handle's room, consuming the handle.
func (d *Directory) DropHandle(handle *MembershipHandle) error {
	room, ok := d.lookup(handle.RoomName())
	if !ok {
		return fmt.Errorf("%w: room %q", ErrInvalidHandle, handle.RoomName())
	}
	room.Leave(handle)
	return nil
}

// Rooms lists the metadata of every seeded room, in seed order. This is the
// room set advertised to a client at login.
func (d *Directory) Rooms() []domain.RoomMetadata {
	out := make([]domain.RoomMetadata, len(d.seed))
	copy(out, d.seed)
	return out
}

// RoomInfo is the read-model row for the room listing endpoint.
type RoomInfo struct {
	Name         domain.RoomName `json:"name"`
	Description  string          `json:"description"`
	Participants int             `json:"participants"`
}

func (d *Directory) List() []RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]RoomInfo, 0, len(d.rooms))
	for name, room := range d.rooms {
		out = append(out, RoomInfo{
			Name:         name,
			Description:  room.Metadata().Description,
			Participants: room.participantCount(),
		})
	}
	return out
}
