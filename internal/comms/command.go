// Package comms is the wire contract between the server and its clients:
// user commands in, server events out, both as type-tagged JSON frames.
package comms

const (
	CommandJoinRoom    = "join_room"
	CommandSendMessage = "send_message"
	CommandLeaveRoom   = "leave_room"
	CommandGetHistory  = "get_history"
	CommandQuit        = "quit"
)

type Command interface {
	CommandType() string
}

type JoinRoomCommand struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

func (c JoinRoomCommand) CommandType() string { return CommandJoinRoom }

type SendMessageCommand struct {
	Type    string `json:"type"`
	Room    string `json:"room"`
	Content string `json:"content"`
}

func (c SendMessageCommand) CommandType() string { return CommandSendMessage }

type LeaveRoomCommand struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

func (c LeaveRoomCommand) CommandType() string { return CommandLeaveRoom }

type GetHistoryCommand struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

func (c GetHistoryCommand) CommandType() string { return CommandGetHistory }

// QuitCommand is a client-initiated disconnect.
type QuitCommand struct {
	Type string `json:"type"`
}

func (c QuitCommand) CommandType() string { return CommandQuit }
