package comms

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avray/parley/internal/domain"
)

func TestParseCommand_DispatchesOnTypeTag(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"type":"join_room","room":"general"}`))
	require.NoError(t, err)
	require.Equal(t, JoinRoomCommand{Type: CommandJoinRoom, Room: "general"}, cmd)

	cmd, err = ParseCommand([]byte(`{"type":"send_message","room":"general","content":"hi"}`))
	require.NoError(t, err)
	send, ok := cmd.(SendMessageCommand)
	require.True(t, ok)
	require.Equal(t, "hi", send.Content)

	cmd, err = ParseCommand([]byte(`{"type":"quit"}`))
	require.NoError(t, err)
	require.Equal(t, CommandQuit, cmd.CommandType())
}

func TestParseCommand_RejectsGarbage(t *testing.T) {
	_, err := ParseCommand([]byte(`not json`))
	require.Error(t, err)

	_, err = ParseCommand([]byte(`{"type":"teleport"}`))
	require.ErrorContains(t, err, "unknown command type")
}

func TestMarshal_EventsCarryTypeTag(t *testing.T) {
	frame, err := Marshal(NewRoomJoined("general", []string{"alice"}))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(frame, &decoded))
	require.Equal(t, EventRoomJoined, decoded["type"])
	require.Equal(t, "general", decoded["room"])
}

func TestMarshal_HistoryKeepsOrder(t *testing.T) {
	frame, err := Marshal(NewHistoryResponse("general", []domain.ChatMessage{
		{UserID: "alice", Content: "first"},
		{UserID: "bob", Content: "second"},
	}))
	require.NoError(t, err)

	var decoded HistoryResponseEvent
	require.NoError(t, json.Unmarshal(frame, &decoded))
	require.Equal(t, "first", decoded.History[0].Content)
	require.Equal(t, "second", decoded.History[1].Content)
}
