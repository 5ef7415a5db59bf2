// Package server runs the HTTP endpoints of the Recorder, the ServiceManager and
// DataServices with a common middleware chain.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/and161185/lab-data-logger/internal/errs"
	"github.com/and161185/lab-data-logger/internal/server/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const defaultShutdownTimeout = 5 * time.Second

// NewRouter returns a chi router with the shared middleware chain installed.
func NewRouter(logger *zap.SugaredLogger) chi.Router {
	router := chi.NewRouter()
	router.Use(chiMiddleware.StripSlashes)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.LogMiddleware(logger))
	router.Use(middleware.DecompressMiddleware)
	router.Use(middleware.CompressMiddleware)
	return router
}

type Server struct {
	httpServer      *http.Server
	listener        net.Listener
	logger          *zap.SugaredLogger
	shutdownTimeout time.Duration
}

func New(addr string, handler http.Handler, logger *zap.SugaredLogger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:          logger,
		shutdownTimeout: defaultShutdownTimeout,
	}
}

// WithShutdownTimeout overrides the graceful shutdown window.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// Listen binds the address. A busy port is reported as errs.ErrPortInUse.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("%w: %s", errs.ErrPortInUse, s.httpServer.Addr)
		}
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Serve blocks until the server is shut down. A clean shutdown returns nil.
func (s *Server) Serve() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.logger.Infof("listening on %s", s.Addr())
	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until ctx is done, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := s.Shutdown(s.shutdownTimeout); err != nil {
		return err
	}
	return <-errCh
}

// Shutdown drains in-flight requests within timeout and closes the remaining
// connections afterwards.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	if err == nil {
		return nil
	}
	s.logger.Warnf("graceful shutdown of %s failed: %v", s.Addr(), err)
	if cerr := s.httpServer.Close(); cerr != nil {
		return fmt.Errorf("close %s: %w", s.Addr(), cerr)
	}
	return nil
}
