package proto

import (
	"fmt"
	"strings"
)

// Request keywords.
const (
	CmdListUsers = "lru"
	CmdLogin     = "login"
	CmdListRooms = "lrooms"
	CmdPost      = "post"
	CmdMake      = "make"
	CmdJoin      = "join"
	CmdLeave     = "leave"
	CmdDirect    = "direct"
)

const (
	// FieldSeparator splits request arguments.
	FieldSeparator = "&"
	// PushPrefix tags frames the server sends unsolicited.
	PushPrefix = "/MSG "
	// ErrorPrefix tags generic error replies.
	ErrorPrefix = "/error "
	// DirectScope is the scope shown in direct message pushes.
	DirectScope = "direct"

	// MaxNameLength bounds display names and room names.
	MaxNameLength = 64
)

// Reply texts shared by the server and the client.
const (
	ReplyUsersPrefix   = "/lru "
	ReplyRoomsPrefix   = "/lrooms "
	ReplyLoginSuccess  = "/login success"
	ReplyLoginExists   = "/login already exists"
	ReplyPosted        = "Message posted"
	ReplyRoomCreated   = "Room created"
	ReplyRoomExists    = "Room already exists!"
	ReplyJoined        = "Congratulations! You have joined the room successfully"
	ReplyJoinUnknown   = "The room you are trying to join does not exist"
	ReplyLeft          = "Bye! You left the room successfully"
	ReplyNotMember     = "You are not a member of that room"
	ReplyDirectSent    = "Your message has been sent"
	ReplyDirectUnknown = "I am sorry, I do not recognize that user"
)

// Error codes carried in generic error replies.
const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeLoginRequired   = "login_required"
	ErrCodeAlreadyLoggedIn = "already_logged_in"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeInternal        = "internal"
)

var fieldCounts = map[string]int{
	CmdListUsers: 0,
	CmdLogin:     1,
	CmdListRooms: 0,
	CmdPost:      2,
	CmdMake:      3,
	CmdJoin:      1,
	CmdLeave:     1,
	CmdDirect:    3,
}

// freeText marks commands whose last field is user text kept verbatim.
var freeText = map[string]bool{
	CmdPost:   true,
	CmdMake:   true,
	CmdDirect: true,
}

// Request is a decoded client frame.
type Request struct {
	Command string
	Fields  []string
}

// Error describes a protocol-level error response.
type Error struct {
	Code string
	Msg  string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Msg
}

func badRequest(format string, args ...any) *Error {
	return &Error{Code: ErrCodeBadRequest, Msg: fmt.Sprintf(format, args...)}
}

// ParseRequest decodes a frame into a Request, rejecting anything that does not match
// the keyword's field count or field rules.
func ParseRequest(frame string) (Request, error) {
	body := strings.TrimPrefix(frame, "/")
	keyword, rest, _ := strings.Cut(body, " ")
	keyword = strings.TrimSpace(keyword)

	count, ok := fieldCounts[keyword]
	if !ok {
		return Request{}, badRequest("unknown command %q", keyword)
	}

	req := Request{Command: keyword}
	if count == 0 {
		if strings.TrimSpace(rest) != "" {
			return Request{}, badRequest("%s takes no arguments", keyword)
		}
		return req, nil
	}

	fields := strings.SplitN(rest, FieldSeparator, count)
	if len(fields) != count {
		return Request{}, badRequest("%s expects %d fields, got %d", keyword, count, len(fields))
	}
	for i := range fields {
		if i == count-1 && freeText[keyword] {
			continue
		}
		fields[i] = strings.TrimSpace(fields[i])
	}
	req.Fields = fields

	if err := validate(req); err != nil {
		return Request{}, err
	}
	return req, nil
}

func validate(req Request) error {
	f := req.Fields
	switch req.Command {
	case CmdLogin:
		return validName("name", f[0])
	case CmdJoin, CmdLeave:
		return validName("room", f[0])
	case CmdPost:
		if err := validName("room", f[0]); err != nil {
			return err
		}
		return nonEmpty("message", f[1])
	case CmdMake:
		if err := validName("room", f[0]); err != nil {
			return err
		}
		if f[1] != "" {
			if err := validName("owner", f[1]); err != nil {
				return err
			}
		}
		if strings.ContainsAny(f[2], "\r\n") {
			return badRequest("description must be a single line")
		}
	case CmdDirect:
		if err := validName("sender", f[0]); err != nil {
			return err
		}
		if err := validName("recipient", f[1]); err != nil {
			return err
		}
		return nonEmpty("message", f[2])
	}
	return nil
}

func validName(field, value string) error {
	if value == "" {
		return badRequest("%s is required", field)
	}
	if len(value) > MaxNameLength {
		return badRequest("%s is longer than %d bytes", field, MaxNameLength)
	}
	if strings.ContainsAny(value, "&,\r\n") {
		return badRequest("%s contains a reserved character", field)
	}
	return nil
}

func nonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return badRequest("%s is required", field)
	}
	return nil
}

// FormatRequest builds the client-side payload for a command.
func FormatRequest(command string, fields ...string) string {
	return "/" + command + " " + strings.Join(fields, FieldSeparator)
}

// RoomLine is one row of a room listing.
type RoomLine struct {
	Name        string
	Owner       string
	Description string
}

// FormatUsers renders the list-users reply.
func FormatUsers(names []string) string {
	return ReplyUsersPrefix + strings.Join(names, ", ")
}

// ParseUsers extracts display names from a list-users reply.
func ParseUsers(reply string) ([]string, bool) {
	body, ok := strings.CutPrefix(reply, strings.TrimSpace(ReplyUsersPrefix))
	if !ok {
		return nil, false
	}
	names := make([]string, 0)
	for _, name := range strings.Split(body, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names, true
}

// FormatRooms renders the list-rooms reply.
func FormatRooms(rooms []RoomLine) string {
	lines := make([]string, 0, len(rooms))
	for _, r := range rooms {
		lines = append(lines, r.Name+FieldSeparator+r.Owner+FieldSeparator+r.Description)
	}
	return ReplyRoomsPrefix + strings.Join(lines, "\n")
}

// ParseRooms extracts room rows from a list-rooms reply.
func ParseRooms(reply string) ([]RoomLine, bool) {
	body, ok := strings.CutPrefix(reply, ReplyRoomsPrefix)
	if !ok {
		return nil, false
	}
	rooms := make([]RoomLine, 0)
	for _, line := range strings.Split(body, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, FieldSeparator, 3)
		if len(parts) != 3 {
			return nil, false
		}
		rooms = append(rooms, RoomLine{Name: parts[0], Owner: parts[1], Description: parts[2]})
	}
	return rooms, true
}

// FormatPush renders an unsolicited message for delivery.
func FormatPush(scope, from, text string) string {
	return PushPrefix + "[" + scope + "] " + from + ": " + text
}

// IsPush reports whether frame is an unsolicited message.
func IsPush(frame string) bool {
	return strings.HasPrefix(frame, PushPrefix)
}

// PushText strips the push tag. ok is false for non-push frames.
func PushText(frame string) (string, bool) {
	return strings.CutPrefix(frame, PushPrefix)
}

// ParsePush splits a push frame into its scope, sender and text.
func ParsePush(frame string) (scope, from, text string, ok bool) {
	body, ok := PushText(frame)
	if !ok || !strings.HasPrefix(body, "[") {
		return "", "", "", false
	}
	scope, rest, ok := strings.Cut(body[1:], "] ")
	if !ok {
		return "", "", "", false
	}
	from, text, ok = strings.Cut(rest, ": ")
	if !ok {
		return "", "", "", false
	}
	return scope, from, text, true
}

// FormatError renders a generic error reply.
func FormatError(code, msg string) string {
	return ErrorPrefix + code + ": " + msg
}

// ParseError decodes a generic error reply.
func ParseError(frame string) (*Error, bool) {
	body, ok := strings.CutPrefix(frame, ErrorPrefix)
	if !ok {
		return nil, false
	}
	code, msg, _ := strings.Cut(body, ": ")
	return &Error{Code: code, Msg: msg}, true
}
