package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/roomchat/internal/metrics"
	"github.com/vovakirdan/roomchat/internal/store"
)

const storeTimeout = 5 * time.Second

// Stats is a point-in-time view of the hub state.
type Stats struct {
	Sessions int `json:"sessions"`
	LoggedIn int `json:"logged_in"`
	Rooms    int `json:"rooms"`
}

type envelope struct {
	client *Client
	cmd    *Command
}

// Hub owns every session and room. All state is touched only by the Run goroutine,
// so commands execute one at a time across the whole server.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	commands   chan envelope
	stats      chan chan Stats
	done       chan struct{}

	clients map[*Client]struct{}
	names   map[string]*Client
	rooms   map[string]*Room
	order   []string

	store store.RoomStore
	log   *zerolog.Logger
	ctx   context.Context
}

// Option configures a Hub.
type Option func(*Hub)

// WithStore persists created rooms and reloads them on Run.
func WithStore(s store.RoomStore) Option {
	return func(h *Hub) {
		h.store = s
	}
}

// WithLogger sets the hub logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHub constructs a hub seeded with the default room.
func NewHub(opts ...Option) *Hub {
	nop := zerolog.Nop()
	h := &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan envelope, 64),
		stats:      make(chan chan Stats),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		names:      make(map[string]*Client),
		rooms:      make(map[string]*Room),
		log:        &nop,
		ctx:        context.Background(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.addRoom(NewRoom(DefaultRoom, DefaultRoomOwner, DefaultRoomDescription))
	return h
}

// Run processes hub events until ctx is cancelled. Every outbox is closed on return.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	h.ctx = ctx

	if err := h.loadRooms(ctx); err != nil {
		h.shutdown()
		return err
	}

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return nil
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c, "")
		case env := <-h.commands:
			h.handle(env.client, env.cmd)
		case reply := <-h.stats:
			reply <- h.snapshot()
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// RegisterClient adds a client to the hub. It returns false if the hub has stopped.
func (h *Hub) RegisterClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient removes a client. Removing an unknown client is a no-op.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Submit queues a command from c. It returns false if the hub has stopped.
func (h *Hub) Submit(c *Client, cmd *Command) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.commands <- envelope{client: c, cmd: cmd}:
		return true
	case <-h.done:
		return false
	}
}

// Stats asks the hub loop for a snapshot.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	select {
	case h.stats <- reply:
	case <-h.done:
		return Stats{}, ErrHubStopped
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-h.done:
		return Stats{}, ErrHubStopped
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

func (h *Hub) loadRooms(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	stored, err := h.store.ListRooms(ctx)
	if err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}
	for _, r := range stored {
		if _, exists := h.rooms[r.Name]; exists {
			continue
		}
		room := NewRoom(r.Name, r.Owner, r.Description)
		room.CreatedAt = r.CreatedAt
		h.addRoom(room)
	}
	h.log.Info().Int("rooms", len(stored)).Msg("rooms loaded")
	return nil
}

func (h *Hub) addRoom(room *Room) {
	h.rooms[room.Name] = room
	h.order = append(h.order, room.Name)
	metrics.RoomsTotal.Set(float64(len(h.rooms)))
}

func (h *Hub) addClient(c *Client) {
	if _, exists := h.clients[c]; exists {
		return
	}
	h.clients[c] = struct{}{}
	h.joinRoom(c, h.rooms[DefaultRoom])
	metrics.SessionsActive.Inc()
	h.log.Debug().Str("client_id", c.ID).Str("remote", c.Remote).Msg("client registered")
}

// removeClient drops c from every registry and closes its outbox exactly once.
func (h *Hub) removeClient(c *Client, reason string) {
	if _, exists := h.clients[c]; !exists {
		return
	}
	delete(h.clients, c)
	if c.name != "" && h.names[c.name] == c {
		delete(h.names, c.name)
	}
	for name := range c.rooms {
		if room, ok := h.rooms[name]; ok {
			room.RemoveClient(c)
		}
	}
	c.rooms = make(map[string]struct{})
	if !c.closed {
		c.closed = true
		close(c.Events)
	}
	metrics.SessionsActive.Dec()

	ev := h.log.Debug()
	if reason != "" {
		metrics.SessionsDropped.WithLabelValues(reason).Inc()
		ev = h.log.Warn().Str("reason", reason)
	}
	ev.Str("client_id", c.ID).Str("user", c.name).Msg("client removed")
}

func (h *Hub) shutdown() {
	for c := range h.clients {
		h.removeClient(c, "")
	}
}

func (h *Hub) snapshot() Stats {
	return Stats{
		Sessions: len(h.clients),
		LoggedIn: len(h.names),
		Rooms:    len(h.rooms),
	}
}

func (h *Hub) handle(c *Client, cmd *Command) {
	if _, exists := h.clients[c]; !exists || cmd == nil {
		return
	}

	err := h.dispatch(c, cmd)
	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
		h.deliver(c, &Event{Kind: EventError, Command: cmd.Kind, Room: cmd.Room, Error: err})
	}
	metrics.CommandsTotal.WithLabelValues(cmd.Kind.String(), result).Inc()
}

func (h *Hub) dispatch(c *Client, cmd *Command) *CoreError {
	switch cmd.Kind {
	case CommandReject:
		if cmd.Err != nil {
			return cmd.Err
		}
		return coreError(ErrCodeBadRequest, "invalid request")
	case CommandListUsers:
		return h.listUsers(c)
	case CommandListRooms:
		return h.listRooms(c)
	case CommandLogin:
		return h.login(c, cmd.Name)
	}

	if !c.loggedIn() {
		return coreError(ErrCodeLoginRequired, "login required")
	}

	switch cmd.Kind {
	case CommandPost:
		return h.post(c, cmd.Room, cmd.Text)
	case CommandCreateRoom:
		return h.createRoom(c, cmd)
	case CommandJoinRoom:
		return h.join(c, cmd.Room)
	case CommandLeaveRoom:
		return h.leave(c, cmd.Room)
	case CommandDirect:
		return h.direct(c, cmd)
	default:
		return coreError(ErrCodeBadRequest, "unknown command")
	}
}

func (h *Hub) listUsers(c *Client) *CoreError {
	users := lo.Keys(h.names)
	sort.Strings(users)
	h.deliver(c, &Event{Kind: EventReply, Command: CommandListUsers, Users: users})
	return nil
}

func (h *Hub) listRooms(c *Client) *CoreError {
	rooms := lo.Map(h.order, func(name string, _ int) RoomInfo {
		return h.rooms[name].Info()
	})
	h.deliver(c, &Event{Kind: EventReply, Command: CommandListRooms, Rooms: rooms})
	return nil
}

func (h *Hub) login(c *Client, name string) *CoreError {
	if name == "" {
		return coreError(ErrCodeBadRequest, "name is required")
	}
	if c.loggedIn() {
		return coreError(ErrCodeAlreadyLoggedIn, "already logged in as "+c.name)
	}
	if _, taken := h.names[name]; taken {
		return coreError(ErrCodeNameTaken, "name already exists")
	}
	c.name = name
	h.names[name] = c
	h.log.Info().Str("client_id", c.ID).Str("user", name).Msg("login")
	h.deliver(c, &Event{Kind: EventReply, Command: CommandLogin})
	return nil
}

func (h *Hub) post(c *Client, roomName, text string) *CoreError {
	if roomName == "" || text == "" {
		return coreError(ErrCodeBadRequest, "room and message are required")
	}
	room, ok := h.rooms[roomName]
	if !ok || !c.inRoom(roomName) {
		return coreError(ErrCodeNotInRoom, "not a member of "+roomName)
	}

	msg := Message{Room: roomName, From: c.name, Text: text, CreatedAt: time.Now()}
	ev := &Event{Kind: EventRoomMessage, Room: roomName, Message: msg}
	// Answer first so the sender sees its reply before its own push.
	h.deliver(c, &Event{Kind: EventReply, Command: CommandPost, Room: roomName})
	sent := room.Broadcast(ev, h.deliver)
	metrics.PushesTotal.WithLabelValues("room").Add(float64(sent))
	return nil
}

func (h *Hub) createRoom(c *Client, cmd *Command) *CoreError {
	if cmd.Room == "" {
		return coreError(ErrCodeBadRequest, "room name is required")
	}
	owner := cmd.Owner
	if owner == "" {
		owner = c.name
	}
	if owner != c.name {
		return coreError(ErrCodeBadRequest, "owner must be the issuing user")
	}
	if _, exists := h.rooms[cmd.Room]; exists {
		return coreError(ErrCodeRoomExists, "room already exists")
	}

	room := NewRoom(cmd.Room, owner, cmd.Description)
	if h.store != nil {
		ctx, cancel := context.WithTimeout(h.ctx, storeTimeout)
		err := h.store.CreateRoom(ctx, store.Room{
			Name:        room.Name,
			Owner:       room.Owner,
			Description: room.Description,
			CreatedAt:   room.CreatedAt,
		})
		cancel()
		if errors.Is(err, store.ErrRoomExists) {
			return coreError(ErrCodeRoomExists, "room already exists")
		}
		if err != nil {
			h.log.Error().Err(err).Str("room", room.Name).Msg("persist room")
			return coreError(ErrCodeInternal, "failed to create room")
		}
	}

	h.addRoom(room)
	h.joinRoom(c, room)
	h.log.Info().Str("room", room.Name).Str("user", owner).Msg("room created")
	h.deliver(c, &Event{Kind: EventReply, Command: CommandCreateRoom, Room: room.Name})
	return nil
}

func (h *Hub) join(c *Client, roomName string) *CoreError {
	room, ok := h.rooms[roomName]
	if !ok {
		return coreError(ErrCodeRoomNotFound, "room does not exist")
	}
	h.joinRoom(c, room)
	h.log.Debug().Str("room", roomName).Str("user", c.name).Int("members", room.Len()).Msg("joined room")
	h.deliver(c, &Event{Kind: EventReply, Command: CommandJoinRoom, Room: roomName})
	return nil
}

func (h *Hub) leave(c *Client, roomName string) *CoreError {
	if !c.inRoom(roomName) {
		return coreError(ErrCodeNotInRoom, "not a member of "+roomName)
	}
	delete(c.rooms, roomName)
	if room, ok := h.rooms[roomName]; ok {
		room.RemoveClient(c)
		h.log.Debug().Str("room", roomName).Str("user", c.name).Int("members", room.Len()).Msg("left room")
	}
	h.deliver(c, &Event{Kind: EventReply, Command: CommandLeaveRoom, Room: roomName})
	return nil
}

func (h *Hub) direct(c *Client, cmd *Command) *CoreError {
	if cmd.From != "" && cmd.From != c.name {
		return coreError(ErrCodeBadRequest, "sender must be the issuing user")
	}
	if cmd.To == "" || cmd.Text == "" {
		return coreError(ErrCodeBadRequest, "recipient and message are required")
	}
	target, ok := h.names[cmd.To]
	if !ok {
		return coreError(ErrCodeUnknownRecipient, "unknown user "+cmd.To)
	}

	msg := Message{From: c.name, To: target.name, Text: cmd.Text, CreatedAt: time.Now()}
	h.deliver(c, &Event{Kind: EventReply, Command: CommandDirect})
	h.deliver(target, &Event{Kind: EventDirectMessage, Message: msg})
	metrics.PushesTotal.WithLabelValues("direct").Inc()
	return nil
}

func (h *Hub) joinRoom(c *Client, room *Room) {
	if room == nil {
		return
	}
	room.AddClient(c)
	c.rooms[room.Name] = struct{}{}
}

// deliver enqueues without blocking; a full outbox disconnects the client.
func (h *Hub) deliver(c *Client, ev *Event) {
	if c.closed {
		return
	}
	select {
	case c.Events <- ev:
	default:
		h.removeClient(c, "slow consumer")
	}
}
