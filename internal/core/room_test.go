package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avray/parley/internal/comms"
	"github.com/avray/parley/internal/domain"
)

const (
	eventWait = time.Second
	quietWait = 50 * time.Millisecond
)

func testRoom(name string) *Room {
	return newRoom(domain.RoomMetadata{Name: domain.RoomName(name), Description: "test room"})
}

func TestRoom_JoinBroadcastsOncePerUserPresence(t *testing.T) {
	room := testRoom("general")

	// Observer joins first so it can watch alice's transitions.
	obsSub, obsHandle, _ := room.Join(ident("obs", "observer"))
	defer room.Leave(obsHandle)
	drainOne(t, obsSub) // observer's own joined event

	_, h1, users := room.Join(ident("s1", "alice"))
	require.ElementsMatch(t, []string{"observer", "alice"}, users)

	ev := drainOne(t, obsSub)
	part, ok := ev.(comms.RoomParticipationEvent)
	require.True(t, ok)
	require.Equal(t, "alice", part.UserID)
	require.Equal(t, comms.StatusJoined, part.Status)

	// A second session of the same user makes no broadcast.
	_, h2, _ := room.Join(ident("s2", "alice"))
	requireNoEvent(t, obsSub)

	// First leave: alice still present via s2, no broadcast.
	room.Leave(h1)
	requireNoEvent(t, obsSub)

	// Last leave: present-to-absent transition broadcasts once.
	room.Leave(h2)
	ev = drainOne(t, obsSub)
	part = ev.(comms.RoomParticipationEvent)
	require.Equal(t, "alice", part.UserID)
	require.Equal(t, comms.StatusLeft, part.Status)

	require.ElementsMatch(t, []string{"observer"}, room.DistinctUserIDs())
}

func TestRoom_LeaveConsumesHandle(t *testing.T) {
	room := testRoom("general")
	_, handle, _ := room.Join(ident("s1", "alice"))

	room.Leave(handle)
	require.ErrorIs(t, handle.Publish("too late"), ErrHandleRevoked)

	// Leaving twice must not emit a second left broadcast.
	obsSub, obsHandle, _ := room.Join(ident("obs", "observer"))
	defer room.Leave(obsHandle)
	drainOne(t, obsSub)
	room.Leave(handle)
	requireNoEvent(t, obsSub)
}

func TestRoom_HistoryBoundedFIFO(t *testing.T) {
	room := testRoom("general")

	for i := 1; i <= 11; i++ {
		room.RecordMessage("alice", fmt.Sprintf("m%d", i))
	}

	history := room.History()
	require.Len(t, history, 10)
	require.Equal(t, "m2", history[0].Content)
	require.Equal(t, "m11", history[9].Content)
}

func TestRoom_HistorySnapshotIsACopy(t *testing.T) {
	room := testRoom("general")
	room.RecordMessage("alice", "m1")

	history := room.History()
	history[0].Content = "tampered"
	require.Equal(t, "m1", room.History()[0].Content)
}

func TestRoom_RecordMessageDoesNotBroadcast(t *testing.T) {
	room := testRoom("general")
	sub, handle, _ := room.Join(ident("s1", "alice"))
	defer room.Leave(handle)
	drainOne(t, sub) // own joined event

	room.RecordMessage("alice", "hi")
	requireNoEvent(t, sub)

	require.NoError(t, handle.Publish("hi"))
	ev := drainOne(t, sub)
	require.Equal(t, "hi", ev.(comms.UserMessageEvent).Content)
}

func drainOne(t *testing.T, sub *Subscription) comms.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), eventWait)
	defer cancel()
	ev, err := sub.Recv(ctx)
	require.NoError(t, err)
	return ev
}

func requireNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), quietWait)
	defer cancel()
	ev, err := sub.Recv(ctx)
	require.Error(t, err, "unexpected event %#v", ev)
}
