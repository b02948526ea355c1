package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/avray/parley/internal/comms"
	"github.com/avray/parley/internal/domain"

	"github.com/rs/zerolog/log"
)

const outboundCapacity = 100

// roomEntry is one joined room: the membership capability, the switch that
// kills its forwarding goroutine, and the signal that the goroutine is gone.
type roomEntry struct {
	handle *MembershipHandle
	cancel context.CancelFunc
	done   chan struct{}
}

// Session multiplexes one connection's room memberships. Every joined room
// gets a forwarding goroutine that drains that room's subscription into the
// session's single outbound queue; Recv yields events from all rooms in
// arrival order. At steady state three loops run per connection: command
// handling, forwarding, and the transport's outbound drain.
type Session struct {
	identity  domain.Identity
	directory *Directory

	mu     sync.Mutex
	joined map[domain.RoomName]*roomEntry

	outbound chan comms.Event
}

func NewSession(id domain.Identity, directory *Directory) *Session {
	return &Session{
		identity:  id,
		directory: directory,
		joined:    make(map[domain.RoomName]*roomEntry),
		outbound:  make(chan comms.Event, outboundCapacity),
	}
}

func (s *Session) Identity() domain.Identity { return s.identity }

func (s *Session) entry(room domain.RoomName) (*roomEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.joined[room]
	return e, ok
}

// HandleCommand applies one user command. Errors are reportable to the
// connection and never fatal to the session.
func (s *Session) HandleCommand(ctx context.Context, cmd comms.Command) error {
	switch c := cmd.(type) {
	case comms.JoinRoomCommand:
		return s.joinRoom(ctx, domain.RoomName(c.Room))
	case comms.SendMessageCommand:
		return s.sendMessage(domain.RoomName(c.Room), c.Content)
	case comms.LeaveRoomCommand:
		s.leaveRoom(domain.RoomName(c.Room))
		return nil
	case comms.GetHistoryCommand:
		return s.getHistory(ctx, domain.RoomName(c.Room))
	default:
		return fmt.Errorf("unsupported command type %q", cmd.CommandType())
	}
}

func (s *Session) joinRoom(ctx context.Context, room domain.RoomName) error {
	if err := domain.ValidateRoomName(room); err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := s.joined[room]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrAlreadyJoined, room)
	}

	sub, handle, users, err := s.directory.JoinRoom(room, s.identity)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	fctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.joined[room] = &roomEntry{handle: handle, cancel: cancel, done: done}
	s.mu.Unlock()

	// The reply goes on the queue before the forwarding goroutine starts, so
	// it precedes anything forwarded from the subscription. The subscription
	// itself was created atomically with the user snapshot, so no broadcast
	// event is lost in between.
	s.enqueue(ctx, comms.NewRoomJoined(string(room), users))
	go s.forward(fctx, room, sub, done)

	log.Info().Str("module", "core.session").
		Str("sid", string(s.identity.SessionID)).
		Str("user", string(s.identity.UserID)).
		Str("room", string(room)).
		Msg("joined room")
	return nil
}

func (s *Session) sendMessage(room domain.RoomName, content string) error {
	entry, ok := s.entry(room)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotJoined, room)
	}
	// Record first: if recording fails the broadcast must not happen, or
	// history and subscribers would diverge.
	if err := s.directory.RecordMessage(entry.handle, content); err != nil {
		return err
	}
	// Publish failures only mean the handle lost a race with leave.
	_ = entry.handle.Publish(content)
	return nil
}

func (s *Session) getHistory(ctx context.Context, room domain.RoomName) error {
	entry, ok := s.entry(room)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotJoined, room)
	}
	history, err := s.directory.GetHistory(entry.handle)
	if err != nil {
		return err
	}
	s.enqueue(ctx, comms.NewHistoryResponse(string(room), history))
	return nil
}

// leaveRoom is a no-op for a room the session is not in. Cancellation is
// hard: the forwarding goroutine may die mid-await, but events it already
// queued stay on the outbound queue and will still be delivered.
func (s *Session) leaveRoom(room domain.RoomName) {
	s.mu.Lock()
	entry, ok := s.joined[room]
	if ok {
		delete(s.joined, room)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	s.cleanupRoom(room, entry)
}

// LeaveAll leaves every joined room. Called on disconnect; afterwards no
// forwarding goroutine of this session remains.
func (s *Session) LeaveAll() {
	s.mu.Lock()
	entries := make(map[domain.RoomName]*roomEntry, len(s.joined))
	for room, entry := range s.joined {
		entries[room] = entry
	}
	s.joined = make(map[domain.RoomName]*roomEntry)
	s.mu.Unlock()

	for room, entry := range entries {
		s.cleanupRoom(room, entry)
	}
}

func (s *Session) cleanupRoom(room domain.RoomName, entry *roomEntry) {
	// Cancel and wait for the forwarding goroutine to die before dropping
	// the handle. The wait is what makes the contract exact: once a leave
	// returns, nothing more from that room reaches the outbound queue, and
	// the leave broadcast fired by the drop cannot be forwarded back to the
	// leaver. The goroutine holds no resources mid-await, so the wait is
	// only ever a few scheduler ticks.
	entry.cancel()
	<-entry.done
	if err := s.directory.DropHandle(entry.handle); err != nil {
		log.Error().Err(err).Str("module", "core.session").
			Str("sid", string(s.identity.SessionID)).
			Str("room", string(room)).
			Msg("drop handle")
	}

	log.Info().Str("module", "core.session").
		Str("sid", string(s.identity.SessionID)).
		Str("room", string(room)).
		Msg("left room")
}

// Recv yields the next outbound event, whichever joined room it came from.
func (s *Session) Recv(ctx context.Context) (comms.Event, error) {
	select {
	case ev := <-s.outbound:
		return ev, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// forward drains one room subscription into the outbound queue until
// canceled. A full outbound queue blocks it, which can make it lag its
// room's broadcast ring; the lag is surfaced to the client and forwarding
// continues. Losing messages beats unbounded buffering.
func (s *Session) forward(ctx context.Context, room domain.RoomName, sub *Subscription, done chan<- struct{}) {
	defer close(done)
	defer sub.Close()
	for {
		ev, err := sub.Recv(ctx)
		if err != nil {
			var lag *LagError
			if errors.As(err, &lag) {
				log.Warn().Str("module", "core.session").
					Str("sid", string(s.identity.SessionID)).
					Str("room", string(room)).
					Int("missed", lag.Missed).
					Msg("subscription lagged")
				s.enqueue(ctx, comms.NewError(fmt.Sprintf("missed %d events in room %q", lag.Missed, room)))
				continue
			}
			return
		}
		s.enqueue(ctx, ev)
	}
}

func (s *Session) enqueue(ctx context.Context, ev comms.Event) {
	if ctx.Err() != nil {
		return
	}
	select {
	case s.outbound <- ev:
	case <-ctx.Done():
	}
}
