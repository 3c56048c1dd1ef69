// Package server exposes a planning session over HTTP.
//
// Routes:
//
//	GET  /healthz     liveness and build info
//	GET  /map         session snapshot
//	POST /update-map  toggle one obstacle cell: {"cell": [x, y]}
//	POST /step        advance the active agent one cell
//	POST /reset       drop the active planner
//	GET  /path        WebSocket; one path request per message
//	GET  /metrics     Prometheus metrics, when enabled
//
// Errors are JSON objects {"code": ..., "error": ...} with a status derived
// from the error code.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/trackplan/pkg/session"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	Logger *log.Logger // defaults to log.Default()

	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// Server routes HTTP and WebSocket requests to one session.
type Server struct {
	session  *session.Session
	logger   *log.Logger
	metrics  http.Handler
	upgrader websocket.Upgrader
	router   chi.Router
}

// New creates a server for s.
func New(s *session.Session, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	srv := &Server{
		session: s,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	srv.router = srv.routes()
	return srv
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- hs.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}
