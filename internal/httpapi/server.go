// Package httpapi exposes the relay's inbound "send mail" surface over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shineum/simplemail-relay/internal/email"
	"github.com/shineum/simplemail-relay/internal/mailer"
)

// shutdownTimeout is the maximum time to wait for in-flight requests
// during graceful shutdown.
const shutdownTimeout = 30 * time.Second

// maxBodySize caps a single request body (1 MB).
const maxBodySize = 1 << 20

// Sender is the mail entry point the handlers call.
type Sender interface {
	Send(ctx context.Context, req *email.SendRequest) (mailer.Result, error)
}

// Config holds the configuration for an HTTP server.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8025").
	ListenAddr string

	// Sender delivers accepted requests.
	Sender Sender

	// AdminEmail receives test mail when no address is given.
	AdminEmail string

	// Username and Password enable HTTP Basic auth when both are set.
	Username string
	Password string
}

// Server accepts mail-send requests over HTTP.
type Server struct {
	config  Config
	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
}

// New creates a new Server with the given configuration.
func New(cfg Config) *Server {
	s := &Server{config: cfg}
	s.handler = s.routes()
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1/mail", func(r chi.Router) {
		if s.authEnabled() {
			r.Use(middleware.BasicAuth("simplemail-relay", map[string]string{
				s.config.Username: s.config.Password,
			}))
		}
		r.Post("/", s.handleSend)
		r.Post("/test", s.handleTest)
	})

	return r
}

func (s *Server) authEnabled() bool {
	return s.config.Username != "" && s.config.Password != ""
}

// Listen binds the configured address. It is separate from Serve so bind
// errors surface before the process reports itself as running.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

// ListenAndServe binds the configured address and serves until the context
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve accepts requests on the bound listener until the context is
// cancelled, then drains in-flight requests for up to shutdownTimeout.
// Request contexts are detached from ctx so a shutdown signal does not abort
// mail that is already being sent.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("httpapi: Serve called before Listen")
	}

	baseCtx := context.WithoutCancel(ctx)
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	slog.Info("HTTP server listening",
		"addr", ln.Addr().String(),
		"auth_enabled", s.authEnabled(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown timeout reached, forcing close", "error", err)
		return srv.Close()
	}
	slog.Info("all requests completed")
	return nil
}

// Addr returns the listener address, or empty string if not listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	return dec.Decode(v)
}
