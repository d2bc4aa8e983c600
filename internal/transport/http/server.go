package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat/internal/config"
	"github.com/vovakirdan/roomchat/internal/core"
	"github.com/vovakirdan/roomchat/internal/transport/stream"
)

const statsTimeout = 2 * time.Second

// StatsSource reports a hub snapshot.
type StatsSource interface {
	Stats(ctx context.Context) (core.Stats, error)
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the admin HTTP server. gin serves health, stats and metrics;
// /ws sits on the outer mux because the upgrade must hijack an unwritten response.
func NewServer(hub StatsSource, streams *stream.Handler, gatherer prometheus.Gatherer, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/stats", statsHandler(hub, logger))
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(streams, cfg.MaxFrameBytes, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// statsHandler serves the hub snapshot.
// GET /stats
func statsHandler(hub StatsSource, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), statsTimeout)
		defer cancel()

		stats, err := hub.Stats(ctx)
		if err != nil {
			if errors.Is(err, core.ErrHubStopped) {
				c.JSON(stdhttp.StatusServiceUnavailable, ErrorResponse{Error: "hub stopped"})
				return
			}
			logger.Error().Err(err).Msg("failed to read hub stats")
			c.JSON(stdhttp.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		c.JSON(stdhttp.StatusOK, stats)
	}
}
