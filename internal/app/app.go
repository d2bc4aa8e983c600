package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/roomchat/internal/config"
	"github.com/vovakirdan/roomchat/internal/core"
	"github.com/vovakirdan/roomchat/internal/metrics"
	"github.com/vovakirdan/roomchat/internal/store"
	"github.com/vovakirdan/roomchat/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/roomchat/internal/transport/http"
	"github.com/vovakirdan/roomchat/internal/transport/stream"
)

// App wires together core and transport layers.
type App struct {
	hub             *core.Hub
	stream          *stream.Server
	server          *stdhttp.Server
	httpLn          net.Listener
	shutdownTimeout time.Duration
	store           store.RoomStore
	log             *zerolog.Logger
}

// New constructs the application and binds its listeners.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	a := &App{shutdownTimeout: cfg.ShutdownTimeout, log: logger}

	opts := []core.Option{core.WithLogger(logger)}
	if cfg.DatabasePath != "" {
		st, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")
		a.store = st
		opts = append(opts, core.WithStore(st))
	}
	a.hub = core.NewHub(opts...)

	handler := stream.NewHandler(a.hub, stream.Options{
		MaxFrameBytes:      cfg.MaxFrameBytes,
		SendBuffer:         cfg.SendBuffer,
		WriteTimeout:       cfg.WriteTimeout,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, logger)

	srv, err := stream.Listen(cfg.Addr, handler, logger)
	if err != nil {
		a.cleanup()
		return nil, err
	}
	a.stream = srv

	if cfg.HTTPAddr != "" {
		ln, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			a.stream.Close()
			a.cleanup()
			return nil, fmt.Errorf("listen http %s: %w", cfg.HTTPAddr, err)
		}
		a.httpLn = ln
		a.server = transporthttp.NewServer(a.hub, handler, metrics.NewRegistry(), *cfg, logger)
	}

	return a, nil
}

// StreamAddr returns the bound chat address.
func (a *App) StreamAddr() net.Addr {
	return a.stream.Addr()
}

// HTTPAddr returns the bound admin address, or nil when the admin server is off.
func (a *App) HTTPAddr() net.Addr {
	if a.httpLn == nil {
		return nil
	}
	return a.httpLn.Addr()
}

// Run starts every component and blocks until context cancellation or a fatal error.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.hub.Run(gctx)
	})
	g.Go(func() error {
		return a.stream.Serve(gctx)
	})

	if a.server != nil {
		a.log.Info().Str("addr", a.httpLn.Addr().String()).Msg("http server listening")
		g.Go(func() error {
			if err := a.server.Serve(a.httpLn); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
			defer cancel()

			a.log.Info().Msg("shutting down http server")
			return a.server.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	a.cleanup()
	return err
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
