package comms

import (
	"encoding/json"
	"fmt"
)

// ParseCommand decodes one inbound frame by sniffing its type tag.
func ParseCommand(data []byte) (Command, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("bad command frame: %w", err)
	}

	switch env.Type {
	case CommandJoinRoom:
		var c JoinRoomCommand
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("bad %s payload: %w", env.Type, err)
		}
		return c, nil
	case CommandSendMessage:
		var c SendMessageCommand
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("bad %s payload: %w", env.Type, err)
		}
		return c, nil
	case CommandLeaveRoom:
		var c LeaveRoomCommand
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("bad %s payload: %w", env.Type, err)
		}
		return c, nil
	case CommandGetHistory:
		var c GetHistoryCommand
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("bad %s payload: %w", env.Type, err)
		}
		return c, nil
	case CommandQuit:
		return QuitCommand{Type: CommandQuit}, nil
	default:
		return nil, fmt.Errorf("unknown command type %q", env.Type)
	}
}

// Marshal encodes one outbound event. Events carry their own type tag, so
// this is plain JSON encoding kept behind one name for the adapters.
func Marshal(ev Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", ev.EventType(), err)
	}
	return b, nil
}
