package client

import (
	"context"
	"fmt"

	"github.com/vovakirdan/roomchat/internal/proto"
)

// ListUsers returns the display names of logged-in users, sorted.
func (c *Client) ListUsers(ctx context.Context) ([]string, error) {
	reply, err := c.request(ctx, proto.FormatRequest(proto.CmdListUsers))
	if err != nil {
		return nil, err
	}
	users, ok := proto.ParseUsers(reply)
	if !ok {
		return nil, replyError(reply)
	}
	return users, nil
}

// Login claims a display name for this connection.
func (c *Client) Login(ctx context.Context, name string) error {
	reply, err := c.request(ctx, proto.FormatRequest(proto.CmdLogin, name))
	if err != nil {
		return err
	}
	if err := expect(reply, proto.ReplyLoginSuccess, map[string]error{
		proto.ReplyLoginExists: ErrLoginConflict,
	}); err != nil {
		return err
	}

	c.stateMu.Lock()
	c.name = name
	c.stateMu.Unlock()
	return nil
}

// ListRooms returns every room in creation order.
func (c *Client) ListRooms(ctx context.Context) ([]proto.RoomLine, error) {
	reply, err := c.request(ctx, proto.FormatRequest(proto.CmdListRooms))
	if err != nil {
		return nil, err
	}
	rooms, ok := proto.ParseRooms(reply)
	if !ok {
		return nil, replyError(reply)
	}
	return rooms, nil
}

// Post sends text to a room this user has joined.
func (c *Client) Post(ctx context.Context, room, text string) error {
	reply, err := c.request(ctx, proto.FormatRequest(proto.CmdPost, room, text))
	if err != nil {
		return err
	}
	return expect(reply, proto.ReplyPosted, map[string]error{
		proto.ReplyNotMember: ErrNotMember,
	})
}

// CreateRoom adds a room owned by the logged-in user and joins it.
func (c *Client) CreateRoom(ctx context.Context, room, description string) error {
	reply, err := c.request(ctx, proto.FormatRequest(proto.CmdMake, room, c.Name(), description))
	if err != nil {
		return err
	}
	return expect(reply, proto.ReplyRoomCreated, map[string]error{
		proto.ReplyRoomExists: ErrRoomExists,
	})
}

// Join subscribes to a room.
func (c *Client) Join(ctx context.Context, room string) error {
	reply, err := c.request(ctx, proto.FormatRequest(proto.CmdJoin, room))
	if err != nil {
		return err
	}
	return expect(reply, proto.ReplyJoined, map[string]error{
		proto.ReplyJoinUnknown: ErrRoomNotFound,
	})
}

// Leave unsubscribes from a room.
func (c *Client) Leave(ctx context.Context, room string) error {
	reply, err := c.request(ctx, proto.FormatRequest(proto.CmdLeave, room))
	if err != nil {
		return err
	}
	return expect(reply, proto.ReplyLeft, map[string]error{
		proto.ReplyNotMember: ErrNotMember,
	})
}

// Direct sends text to a single logged-in user.
func (c *Client) Direct(ctx context.Context, to, text string) error {
	name := c.Name()
	if name == "" {
		return fmt.Errorf("client: direct: %w", &ServerError{Code: proto.ErrCodeLoginRequired, Message: "login first"})
	}
	reply, err := c.request(ctx, proto.FormatRequest(proto.CmdDirect, name, to, text))
	if err != nil {
		return err
	}
	return expect(reply, proto.ReplyDirectSent, map[string]error{
		proto.ReplyDirectUnknown: ErrUnknownRecipient,
	})
}
