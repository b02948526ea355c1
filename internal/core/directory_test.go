package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avray/parley/internal/domain"
)

func seedMetadata() []domain.RoomMetadata {
	return []domain.RoomMetadata{
		{Name: "general", Description: "talk about anything"},
		{Name: "dev", Description: "development discussions"},
	}
}

func TestDirectory_GetOrCreateReturnsSameInstance(t *testing.T) {
	d := NewDirectory(nil, true)

	const workers = 16
	rooms := make([]*Room, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rooms[i] = d.GetOrCreate("general")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		require.Same(t, rooms[0], rooms[i], "concurrent first references must resolve to one room")
	}
}

func TestDirectory_SeededRoomsExist(t *testing.T) {
	d := NewDirectory(seedMetadata(), false)

	sub, handle, users, err := d.JoinRoom("general", ident("s1", "alice"))
	require.NoError(t, err)
	defer sub.Close()
	require.ElementsMatch(t, []string{"alice"}, users)
	require.NoError(t, d.DropHandle(handle))
}

func TestDirectory_UnknownRoomRejectedWithoutAdhoc(t *testing.T) {
	d := NewDirectory(seedMetadata(), false)

	_, _, _, err := d.JoinRoom("secret", ident("s1", "alice"))
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestDirectory_UnknownRoomCreatedWithAdhoc(t *testing.T) {
	d := NewDirectory(seedMetadata(), true)

	sub, handle, users, err := d.JoinRoom("secret", ident("s1", "alice"))
	require.NoError(t, err)
	defer sub.Close()
	require.ElementsMatch(t, []string{"alice"}, users)
	require.NoError(t, d.DropHandle(handle))
}

func TestDirectory_RecordAndGetHistoryThroughHandle(t *testing.T) {
	d := NewDirectory(seedMetadata(), false)

	sub, handle, _, err := d.JoinRoom("general", ident("s1", "alice"))
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, d.RecordMessage(handle, "hi"))
	history, err := d.GetHistory(handle)
	require.NoError(t, err)
	require.Equal(t, []domain.ChatMessage{{UserID: "alice", Content: "hi"}}, history)
}

func TestDirectory_ListReportsParticipants(t *testing.T) {
	d := NewDirectory(seedMetadata(), false)

	_, h1, _, err := d.JoinRoom("general", ident("s1", "alice"))
	require.NoError(t, err)
	_, h2, _, err := d.JoinRoom("general", ident("s2", "bob"))
	require.NoError(t, err)
	defer d.DropHandle(h1)
	defer d.DropHandle(h2)

	infos := d.List()
	require.Len(t, infos, 2)
	byName := map[domain.RoomName]RoomInfo{}
	for _, info := range infos {
		byName[info.Name] = info
	}
	require.Equal(t, 2, byName["general"].Participants)
	require.Equal(t, 0, byName["dev"].Participants)
}
