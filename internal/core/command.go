package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandListUsers lists display names of logged-in sessions.
	CommandListUsers CommandKind = iota
	// CommandLogin claims a display name for the session.
	CommandLogin
	// CommandListRooms lists every room in the directory.
	CommandListRooms
	// CommandPost delivers a chat message to room members.
	CommandPost
	// CommandCreateRoom adds a room to the directory and joins the creator.
	CommandCreateRoom
	// CommandJoinRoom subscribes the client to a room.
	CommandJoinRoom
	// CommandLeaveRoom unsubscribes the client from a room.
	CommandLeaveRoom
	// CommandDirect delivers a message to a single user.
	CommandDirect
	// CommandReject answers a request the transport could not decode.
	CommandReject
)

var commandNames = [...]string{
	CommandListUsers:  "list_users",
	CommandLogin:      "login",
	CommandListRooms:  "list_rooms",
	CommandPost:       "post",
	CommandCreateRoom: "create_room",
	CommandJoinRoom:   "join_room",
	CommandLeaveRoom:  "leave_room",
	CommandDirect:     "direct",
	CommandReject:     "reject",
}

func (k CommandKind) String() string {
	if k < 0 || int(k) >= len(commandNames) {
		return "unknown"
	}
	return commandNames[k]
}

// Command represents an action requested by a client.
type Command struct {
	Kind        CommandKind
	Name        string
	Room        string
	Owner       string
	Description string
	From        string
	To          string
	Text        string
	// Err is set for CommandReject.
	Err *CoreError
}
