package http

import (
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat/internal/transport/stream"
)

// WSHandler upgrades HTTP connections and runs the chat stream over them.
// Sentinel-delimited frames travel inside text messages; message boundaries carry no meaning.
type WSHandler struct {
	streams   *stream.Handler
	readLimit int64
	log       *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(streams *stream.Handler, maxFrameBytes int, logger *zerolog.Logger) stdhttp.Handler {
	limit := int64(maxFrameBytes) + 1
	if maxFrameBytes <= 0 {
		limit = 64<<10 + 1
	}
	return &WSHandler{streams: streams, readLimit: limit, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	conn.SetReadLimit(h.readLimit)

	netConn := websocket.NetConn(ctx, conn, websocket.MessageText)
	if err := h.streams.ServeConn(ctx, netConn); err != nil {
		h.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("ws session ended")
	}
}
