package core

import "time"

// Message is the domain model for a routed chat message.
// Room is empty for direct messages.
type Message struct {
	Room      string
	From      string
	To        string
	Text      string
	CreatedAt time.Time
}
