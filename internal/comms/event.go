package comms

import "github.com/avray/parley/internal/domain"

const (
	EventLoginSuccess      = "login_success"
	EventRoomJoined        = "room_joined"
	EventRoomParticipation = "room_participation"
	EventUserMessage       = "user_message"
	EventHistoryResponse   = "history_response"
	EventError             = "error"
)

type ParticipationStatus string

const (
	StatusJoined ParticipationStatus = "joined"
	StatusLeft   ParticipationStatus = "left"
)

type Event interface {
	EventType() string
}

// LoginSuccessEvent is sent once when a connection is established. It seeds
// the client with its user id and the set of rooms it may join.
type LoginSuccessEvent struct {
	Type   string                `json:"type"`
	UserID string                `json:"user_id"`
	Rooms  []domain.RoomMetadata `json:"rooms"`
}

func NewLoginSuccess(userID string, rooms []domain.RoomMetadata) LoginSuccessEvent {
	return LoginSuccessEvent{Type: EventLoginSuccess, UserID: userID, Rooms: rooms}
}

func (e LoginSuccessEvent) EventType() string { return EventLoginSuccess }

// RoomJoinedEvent is the reply to a successful join, carrying the distinct
// users present at the instant the join happened.
type RoomJoinedEvent struct {
	Type  string   `json:"type"`
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

func NewRoomJoined(room string, users []string) RoomJoinedEvent {
	return RoomJoinedEvent{Type: EventRoomJoined, Room: room, Users: users}
}

func (e RoomJoinedEvent) EventType() string { return EventRoomJoined }

// RoomParticipationEvent is broadcast to every room subscriber when a user
// becomes present in or absent from a room.
type RoomParticipationEvent struct {
	Type   string              `json:"type"`
	Room   string              `json:"room"`
	UserID string              `json:"user_id"`
	Status ParticipationStatus `json:"status"`
}

func NewRoomParticipation(room, userID string, status ParticipationStatus) RoomParticipationEvent {
	return RoomParticipationEvent{Type: EventRoomParticipation, Room: room, UserID: userID, Status: status}
}

func (e RoomParticipationEvent) EventType() string { return EventRoomParticipation }

type UserMessageEvent struct {
	Type    string `json:"type"`
	Room    string `json:"room"`
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

func NewUserMessage(room, userID, content string) UserMessageEvent {
	return UserMessageEvent{Type: EventUserMessage, Room: room, UserID: userID, Content: content}
}

func (e UserMessageEvent) EventType() string { return EventUserMessage }

// HistoryResponseEvent carries a room's recorded history, oldest first.
type HistoryResponseEvent struct {
	Type    string               `json:"type"`
	Room    string               `json:"room"`
	History []domain.ChatMessage `json:"history"`
}

func NewHistoryResponse(room string, history []domain.ChatMessage) HistoryResponseEvent {
	return HistoryResponseEvent{Type: EventHistoryResponse, Room: room, History: history}
}

func (e HistoryResponseEvent) EventType() string { return EventHistoryResponse }

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewError(message string) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: message}
}

func (e ErrorEvent) EventType() string { return EventError }
