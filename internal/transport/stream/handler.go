package stream

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat/internal/core"
	"github.com/vovakirdan/roomchat/internal/metrics"
	"github.com/vovakirdan/roomchat/internal/proto"
)

// Hub is the part of core.Hub a connection needs.
type Hub interface {
	RegisterClient(c *core.Client) bool
	UnregisterClient(c *core.Client)
	Submit(c *core.Client, cmd *core.Command) bool
}

// Options tunes per-connection behaviour.
type Options struct {
	MaxFrameBytes      int
	SendBuffer         int
	WriteTimeout       time.Duration
	RateLimitPerMinute int
}

// Handler bridges a byte stream to core.Client.
type Handler struct {
	hub  Hub
	opts Options
	log  *zerolog.Logger
}

// NewHandler builds a connection handler.
func NewHandler(hub Hub, opts Options, logger *zerolog.Logger) *Handler {
	if opts.MaxFrameBytes <= 0 {
		opts.MaxFrameBytes = proto.DefaultMaxFrameBytes
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Handler{hub: hub, opts: opts, log: logger}
}

// ServeConn runs the session for conn until either side closes it or ctx is done.
// The connection is always closed on return.
func (h *Handler) ServeConn(ctx context.Context, conn net.Conn) error {
	client := core.NewClient(uuid.NewString(), remoteAddr(conn), h.opts.SendBuffer)
	if !h.hub.RegisterClient(client) {
		conn.Close()
		return core.ErrHubStopped
	}
	log := h.log.With().Str("client_id", client.ID).Str("remote", client.Remote).Logger()
	log.Info().Msg("connection opened")

	// Closing the connection unblocks the read loop on shutdown.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	writeErr := make(chan error, 1)
	go func() {
		writeErr <- h.writeLoop(conn, client, &log)
	}()

	err := h.readLoop(conn, client)
	h.hub.UnregisterClient(client)
	if werr := <-writeErr; err == nil {
		err = werr
	}
	conn.Close()

	if err != nil && !isClosedErr(err) {
		log.Warn().Err(err).Msg("connection closed with error")
		return err
	}
	log.Info().Msg("connection closed")
	return nil
}

func (h *Handler) readLoop(conn net.Conn, client *core.Client) error {
	reader := proto.NewFrameReader(conn, h.opts.MaxFrameBytes)
	limiter := newRateLimiter(h.opts.RateLimitPerMinute)

	for {
		frame, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		metrics.FramesTotal.WithLabelValues("in").Inc()

		// Leading whitespace is line noise between frames; trailing bytes may be message text.
		frame = strings.TrimLeftFunc(frame, unicode.IsSpace)
		if frame == "" {
			continue
		}

		cmd := frameToCommand(frame)
		if !limiter.allow() {
			cmd = reject(proto.ErrCodeRateLimited, "too many requests")
		}
		if !h.hub.Submit(client, cmd) {
			return core.ErrHubStopped
		}
	}
}

// writeLoop drains the outbox until the hub closes it. It owns every write to conn.
func (h *Handler) writeLoop(conn net.Conn, client *core.Client, log *zerolog.Logger) error {
	defer conn.Close()

	for event := range client.Events {
		frame, err := proto.Encode(eventToFrame(event))
		if err != nil {
			log.Error().Err(err).Msg("encode frame")
			continue
		}
		if h.opts.WriteTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
		}
		if _, err := conn.Write(frame); err != nil {
			return err
		}
		metrics.FramesTotal.WithLabelValues("out").Inc()
	}
	return nil
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, core.ErrHubStopped)
}
