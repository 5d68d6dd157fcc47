package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/manup/agenda/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// Server serves a handler until its context is cancelled.
type Server struct {
	address string
	handler http.Handler
	logger  logging.Logger
}

func NewServer(address string, handler http.Handler, l logging.Logger) *Server {
	return &Server{address: address, handler: handler, logger: l.With("module", "http_server")}
}

// Run listens on the configured address and blocks until ctx is done and
// in-flight requests have drained.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *Server) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	// stop also fires when Serve fails on its own, so the shutdown
	// goroutine never outlives serve.
	stopCtx, stop := context.WithCancel(ctx)
	defer stop()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-stopCtx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	err := srv.Serve(listen)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	stop()
	<-stopped
	return err
}
