package chat

// RoomID identifies a chat room. The server currently runs a single
// shared lobby, but storage keys and events stay room-scoped.
type RoomID string

const Lobby RoomID = "lobby"

// Identity is the permanent identity behind a connection. It is owned by
// the account store; the lobby core only references it.
type Identity struct {
	UserID string `json:"permanent_user_id"`
	Name   string `json:"name"`
}
