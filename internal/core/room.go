package core

import "time"

// Default room every session joins on connect.
const (
	DefaultRoom            = "public"
	DefaultRoomOwner       = "system"
	DefaultRoomDescription = "The public room which acts as broadcast, all logged-in users are in public room by default"
)

// Room groups clients subscribed to the same channel.
type Room struct {
	Name        string
	Owner       string
	Description string
	CreatedAt   time.Time
	clients     map[*Client]struct{}
}

// NewRoom constructs a room with no clients.
func NewRoom(name, owner, description string) *Room {
	return &Room{
		Name:        name,
		Owner:       owner,
		Description: description,
		CreatedAt:   time.Now(),
		clients:     make(map[*Client]struct{}),
	}
}

// AddClient inserts a client into the room. Returns true if newly added.
func (r *Room) AddClient(c *Client) bool {
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// RemoveClient deletes a client from the room. Returns true if removed.
func (r *Room) RemoveClient(c *Client) bool {
	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	return true
}

// Broadcast hands the event to deliver once per member.
// deliver may remove members while the broadcast is running.
func (r *Room) Broadcast(event *Event, deliver func(*Client, *Event)) int {
	sent := 0
	for client := range r.clients {
		deliver(client, event)
		sent++
	}
	return sent
}

// Len returns the number of members.
func (r *Room) Len() int {
	return len(r.clients)
}

// Info returns the room's public metadata.
func (r *Room) Info() RoomInfo {
	return RoomInfo{Name: r.Name, Owner: r.Owner, Description: r.Description}
}
