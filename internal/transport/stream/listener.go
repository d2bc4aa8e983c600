package stream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Server accepts stream connections and hands each to a Handler.
type Server struct {
	ln      net.Listener
	handler *Handler
	log     *zerolog.Logger

	closeOnce sync.Once
}

// Listen opens a TCP listener on addr.
func Listen(addr string, handler *Handler, logger *zerolog.Logger) (*Server, error) {
	if addr == "" {
		return nil, fmt.Errorf("stream: addr is empty")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("stream: listen %s: %w", addr, err)
	}
	return NewServer(ln, handler, logger), nil
}

// NewServer wraps an existing listener.
func NewServer(ln net.Listener, handler *Handler, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{ln: ln, handler: handler, log: logger}
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts until ctx is cancelled or the listener fails, then waits for every
// connection handler to finish.
func (s *Server) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = 5 * time.Millisecond
	retry.MaxInterval = time.Second
	retry.MaxElapsedTime = 0

	s.log.Info().Str("addr", s.ln.Addr().String()).Msg("stream server listening")
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				delay := retry.NextBackOff()
				s.log.Warn().Err(err).Dur("retry_in", delay).Msg("accept error")
				select {
				case <-time.After(delay):
					continue
				case <-ctx.Done():
					return nil
				}
			}
			return fmt.Errorf("stream: accept: %w", err)
		}
		retry.Reset()

		wg.Add(1)
		go func(conn net.Conn) {
			defer wg.Done()
			_ = s.handler.ServeConn(ctx, conn)
		}(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.ln.Close()
	})
	return err
}
