package core

// Client is one connected session as seen by the core layer.
// Everything except ID, Remote and Events is owned by the hub goroutine.
type Client struct {
	ID     string
	Remote string
	// Events is closed by the hub once the session is removed.
	Events chan *Event

	name   string
	rooms  map[string]struct{}
	closed bool
}

// NewClient constructs a client with an outbox of the given capacity.
func NewClient(id, remote string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 8
	}
	return &Client{
		ID:     id,
		Remote: remote,
		Events: make(chan *Event, buffer),
		rooms:  make(map[string]struct{}),
	}
}

func (c *Client) loggedIn() bool {
	return c.name != ""
}

func (c *Client) inRoom(room string) bool {
	_, ok := c.rooms[room]
	return ok
}
