package stream

import (
	"errors"

	"github.com/samber/lo"

	"github.com/vovakirdan/roomchat/internal/core"
	"github.com/vovakirdan/roomchat/internal/proto"
)

func requestToCommand(req proto.Request) *core.Command {
	f := req.Fields
	switch req.Command {
	case proto.CmdListUsers:
		return &core.Command{Kind: core.CommandListUsers}
	case proto.CmdLogin:
		return &core.Command{Kind: core.CommandLogin, Name: f[0]}
	case proto.CmdListRooms:
		return &core.Command{Kind: core.CommandListRooms}
	case proto.CmdPost:
		return &core.Command{Kind: core.CommandPost, Room: f[0], Text: f[1]}
	case proto.CmdMake:
		return &core.Command{Kind: core.CommandCreateRoom, Room: f[0], Owner: f[1], Description: f[2]}
	case proto.CmdJoin:
		return &core.Command{Kind: core.CommandJoinRoom, Room: f[0]}
	case proto.CmdLeave:
		return &core.Command{Kind: core.CommandLeaveRoom, Room: f[0]}
	case proto.CmdDirect:
		return &core.Command{Kind: core.CommandDirect, From: f[0], To: f[1], Text: f[2]}
	default:
		return reject(proto.ErrCodeBadRequest, "unknown command")
	}
}

// frameToCommand decodes a frame. Undecodable frames become a reject command
// so their error reply goes through the same ordered outbox.
func frameToCommand(frame string) *core.Command {
	req, err := proto.ParseRequest(frame)
	if err != nil {
		var perr *proto.Error
		if errors.As(err, &perr) {
			return reject(perr.Code, perr.Msg)
		}
		return reject(proto.ErrCodeBadRequest, err.Error())
	}
	return requestToCommand(req)
}

func reject(code, msg string) *core.Command {
	return &core.Command{Kind: core.CommandReject, Err: core.NewError(code, msg)}
}

func eventToFrame(event *core.Event) string {
	switch event.Kind {
	case core.EventReply:
		return replyFrame(event)
	case core.EventRoomMessage:
		return proto.FormatPush(event.Message.Room, event.Message.From, event.Message.Text)
	case core.EventDirectMessage:
		return proto.FormatPush(proto.DirectScope, event.Message.From, event.Message.Text)
	case core.EventError:
		if event.Error == nil {
			return proto.FormatError(proto.ErrCodeInternal, "unknown error")
		}
		return errorFrame(event.Error)
	default:
		return proto.FormatError(proto.ErrCodeInternal, "unknown event")
	}
}

func replyFrame(event *core.Event) string {
	switch event.Command {
	case core.CommandListUsers:
		return proto.FormatUsers(event.Users)
	case core.CommandLogin:
		return proto.ReplyLoginSuccess
	case core.CommandListRooms:
		return proto.FormatRooms(lo.Map(event.Rooms, func(r core.RoomInfo, _ int) proto.RoomLine {
			return proto.RoomLine{Name: r.Name, Owner: r.Owner, Description: r.Description}
		}))
	case core.CommandPost:
		return proto.ReplyPosted
	case core.CommandCreateRoom:
		return proto.ReplyRoomCreated
	case core.CommandJoinRoom:
		return proto.ReplyJoined
	case core.CommandLeaveRoom:
		return proto.ReplyLeft
	case core.CommandDirect:
		return proto.ReplyDirectSent
	default:
		return proto.FormatError(proto.ErrCodeInternal, "unknown reply")
	}
}

func errorFrame(err *core.CoreError) string {
	switch err.Code {
	case core.ErrCodeNameTaken:
		return proto.ReplyLoginExists
	case core.ErrCodeRoomExists:
		return proto.ReplyRoomExists
	case core.ErrCodeRoomNotFound:
		return proto.ReplyJoinUnknown
	case core.ErrCodeNotInRoom:
		return proto.ReplyNotMember
	case core.ErrCodeUnknownRecipient:
		return proto.ReplyDirectUnknown
	default:
		return proto.FormatError(err.Code, err.Message)
	}
}
