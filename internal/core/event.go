package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventReply answers the client's own command successfully.
	EventReply EventKind = iota
	// EventRoomMessage pushes a chat message posted to a room the client is in.
	EventRoomMessage
	// EventDirectMessage pushes a message addressed to the client.
	EventDirectMessage
	// EventError answers the client's own command with a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind EventKind
	// Command is the command answered by EventReply and EventError.
	Command CommandKind
	Room    string
	Users   []string   // CommandListUsers
	Rooms   []RoomInfo // CommandListRooms
	Message Message    // push events
	Error   *CoreError
}

// RoomInfo is the public metadata of a room.
type RoomInfo struct {
	Name        string
	Owner       string
	Description string
}
