package chat

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// The closed set of event kinds a client can receive. Client-side handling
// is a dispatch table keyed by this tag.
const (
	EventChatHistory       EventType = "chat_history"
	EventChatMessage       EventType = "chat_message"
	EventPlayerJoined      EventType = "player_joined"
	EventPlayerLeft        EventType = "player_left"
	EventServerError       EventType = "server_error"
	EventError             EventType = "error"
	EventSessionTerminated EventType = "session_terminated"
)

// Message is one durable chat entry. Total order is the append sequence;
// the wall-clock timestamp is display-only and tolerates skew.
type Message struct {
	ID       uuid.UUID `json:"id"`
	Room     RoomID    `json:"room"`
	UserID   string    `json:"permanent_user_id"`
	Sender   string    `json:"sender"`
	Text     string    `json:"text"`
	Lang     string    `json:"lang,omitempty"`
	At       time.Time `json:"timestamp"`
	Sequence uint64    `json:"sequence"`
}

// Event is the single outbound wire frame. Fields are kind-specific and
// omitted when empty, matching the tagged-variant shape clients dispatch on.
type Event struct {
	Type     EventType `json:"type"`
	Sequence uint64    `json:"sequence,omitempty"`

	// chat_message / player_joined / player_left
	UserID string `json:"permanent_user_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Sender string `json:"sender,omitempty"`
	Text   string `json:"text,omitempty"`
	Lang   string `json:"lang,omitempty"`

	// chat_history
	Messages []Message `json:"messages,omitempty"`

	// presence counters
	TotalPlayers     int `json:"total_players,omitempty"`
	RemainingPlayers int `json:"remaining_players,omitempty"`

	// error / server_error / session_terminated
	Message string `json:"message,omitempty"`

	Timestamp time.Time `json:"timestamp,omitempty"`
}

func NewChatMessageEvent(m Message) Event {
	return Event{
		Type:      EventChatMessage,
		UserID:    m.UserID,
		Sender:    m.Sender,
		Text:      m.Text,
		Lang:      m.Lang,
		Timestamp: m.At,
	}
}

func NewHistoryEvent(messages []Message) Event {
	if messages == nil {
		messages = []Message{}
	}
	return Event{Type: EventChatHistory, Messages: messages, Timestamp: time.Now().UTC()}
}

func NewPlayerJoinedEvent(id Identity, total int) Event {
	return Event{
		Type:         EventPlayerJoined,
		UserID:       id.UserID,
		Name:         id.Name,
		TotalPlayers: total,
		Timestamp:    time.Now().UTC(),
	}
}

func NewPlayerLeftEvent(id Identity, remaining int) Event {
	return Event{
		Type:             EventPlayerLeft,
		UserID:           id.UserID,
		Name:             id.Name,
		RemainingPlayers: remaining,
		Timestamp:        time.Now().UTC(),
	}
}

func NewErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message, Timestamp: time.Now().UTC()}
}

func NewServerErrorEvent(message string) Event {
	return Event{Type: EventServerError, Message: message, Timestamp: time.Now().UTC()}
}

func NewSessionTerminatedEvent() Event {
	return Event{
		Type:      EventSessionTerminated,
		Message:   "Your session has been terminated due to a new login.",
		Timestamp: time.Now().UTC(),
	}
}
