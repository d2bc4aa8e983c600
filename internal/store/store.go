package store

import (
	"context"
	"errors"
	"time"
)

// ErrRoomExists is returned when a room name is already stored.
var ErrRoomExists = errors.New("room already exists")

// Room represents a persisted chat room.
type Room struct {
	Name        string
	Owner       string
	Description string
	CreatedAt   time.Time
}

// RoomStore persists the room directory across restarts.
type RoomStore interface {
	// ListRooms returns rooms in creation order.
	ListRooms(ctx context.Context) ([]Room, error)
	// CreateRoom inserts a room, returning ErrRoomExists on a name collision.
	CreateRoom(ctx context.Context, room Room) error
	Close() error
}
