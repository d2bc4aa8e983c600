package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/vovakirdan/roomchat/internal/proto"
)

const (
	defaultPushBuffer  = 128
	defaultDialTimeout = 5 * time.Second
)

// Reply errors returned by request methods.
var (
	ErrLoginConflict    = errors.New("client: display name already taken")
	ErrRoomExists       = errors.New("client: room already exists")
	ErrRoomNotFound     = errors.New("client: room does not exist")
	ErrNotMember        = errors.New("client: not a member of that room")
	ErrUnknownRecipient = errors.New("client: unknown recipient")
	ErrUnexpectedReply  = errors.New("client: unexpected reply")
	ErrClosed           = errors.New("client: connection closed")
)

// ServerError is a generic error reply such as login_required or bad_request.
type ServerError struct {
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return "server: " + e.Code + ": " + e.Message
}

// Push is an unsolicited message. Room is empty for direct messages.
type Push struct {
	Room   string
	From   string
	Text   string
	Direct bool
	// Raw is the frame without its push tag, kept for frames that do not parse.
	Raw string
}

// Config tunes a Client.
type Config struct {
	MaxFrameBytes int
	PushBuffer    int
	DialTimeout   time.Duration
}

// Option mutates a Config.
type Option func(*Config)

// WithMaxFrameBytes bounds frames read from the server.
func WithMaxFrameBytes(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxFrameBytes = n
		}
	}
}

// WithPushBuffer sets how many pushes are queued before the reader blocks.
func WithPushBuffer(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.PushBuffer = n
		}
	}
}

// WithDialTimeout bounds Dial when ctx has no deadline.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.DialTimeout = d
		}
	}
}

func (c *Config) fillDefaults() {
	if c.MaxFrameBytes <= 0 {
		c.MaxFrameBytes = proto.DefaultMaxFrameBytes
	}
	if c.PushBuffer <= 0 {
		c.PushBuffer = defaultPushBuffer
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
}

// Client speaks the chat protocol over one connection. Replies and pushes are
// demultiplexed by a reader goroutine; at most one request is in flight.
type Client struct {
	conn    net.Conn
	replies chan string
	pushes  chan Push
	done    chan struct{}
	closing chan struct{}

	mu sync.Mutex // serializes requests

	stateMu sync.Mutex
	name    string
	readErr error

	closeOnce sync.Once
}

// Dial connects to a chat server at addr.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	var cfg Config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	cfg.fillDefaults()

	dialer := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return newClient(conn, cfg), nil
}

// New wraps an established connection, such as a WebSocket net.Conn.
func New(conn net.Conn, opts ...Option) *Client {
	var cfg Config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	cfg.fillDefaults()
	return newClient(conn, cfg)
}

func newClient(conn net.Conn, cfg Config) *Client {
	c := &Client{
		conn:    conn,
		replies: make(chan string, 1),
		pushes:  make(chan Push, cfg.PushBuffer),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
	}
	go c.readLoop(proto.NewFrameReader(conn, cfg.MaxFrameBytes))
	return c
}

// Pushes delivers unsolicited messages in arrival order. It is closed when the
// connection ends. Callers must drain it or replies stall behind pushes.
func (c *Client) Pushes() <-chan Push {
	return c.pushes
}

// Done is closed once the connection has ended.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the connection, if any.
func (c *Client) Err() error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.readErr
}

// Close closes the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closing)
		err = c.conn.Close()
	})
	return err
}

// Name returns the display name after a successful Login.
func (c *Client) Name() string {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.name
}

func (c *Client) readLoop(r *proto.FrameReader) {
	defer close(c.done)
	defer close(c.pushes)

	for {
		frame, err := r.Next()
		if err != nil {
			c.stateMu.Lock()
			c.readErr = err
			c.stateMu.Unlock()
			return
		}

		if proto.IsPush(frame) {
			select {
			case c.pushes <- parsePush(frame):
			case <-c.closing:
				return
			}
			continue
		}

		select {
		case c.replies <- frame:
		default:
			// Nobody asked; a reply with no outstanding request is dropped.
		}
	}
}

func parsePush(frame string) Push {
	raw, _ := proto.PushText(frame)
	scope, from, text, ok := proto.ParsePush(frame)
	if !ok {
		return Push{Raw: raw}
	}
	if scope == proto.DirectScope {
		return Push{From: from, Text: text, Direct: true, Raw: raw}
	}
	return Push{Room: scope, From: from, Text: text, Raw: raw}
}

// request writes one frame and waits for the matching reply.
// Cancelling ctx closes the connection, since the pending reply can no longer be matched.
func (c *Client) request(ctx context.Context, payload string) (string, error) {
	frame, err := proto.Encode(payload)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return "", c.closedErr()
	default:
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	} else {
		_ = c.conn.SetWriteDeadline(time.Time{})
	}
	if _, err := c.conn.Write(frame); err != nil {
		c.Close()
		return "", fmt.Errorf("client: write: %w", err)
	}

	select {
	case reply := <-c.replies:
		return reply, nil
	case <-c.done:
		return "", c.closedErr()
	case <-ctx.Done():
		c.Close()
		return "", ctx.Err()
	}
}

func (c *Client) closedErr() error {
	if err := c.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return ErrClosed
}

// expect maps reply onto nil when it equals ok, onto a typed error otherwise.
func expect(reply, ok string, known map[string]error) error {
	if reply == ok {
		return nil
	}
	if err, found := known[reply]; found {
		return err
	}
	return replyError(reply)
}

func replyError(reply string) error {
	if perr, ok := proto.ParseError(reply); ok {
		return &ServerError{Code: perr.Code, Message: perr.Msg}
	}
	return fmt.Errorf("%w: %q", ErrUnexpectedReply, reply)
}
