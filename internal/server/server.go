// Package server serves the build output for previewing, together with
// health, status and metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/notify"
)

// StatusProvider reports the most recent build.
type StatusProvider interface {
	LastBuild() (notify.Event, bool)
}

// Options configure a Server.
type Options struct {
	// Root is the directory served at /.
	Root string

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	Status StatusProvider

	// Rebuild backs POST /rebuild when set.
	Rebuild func()

	Logger *slog.Logger
}

// Server is the preview HTTP handler.
type Server struct {
	opts    Options
	router  chi.Router
	log     *slog.Logger
	adapter *errors.HTTPErrorAdapter
}

// New creates a Server.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Server{opts: opts, log: log, adapter: errors.NewHTTPErrorAdapter(log)}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(recoverer(s.log, s.adapter))

	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Post("/rebuild", s.handleRebuild)
	if s.opts.Metrics != nil {
		r.Handle("/metrics", s.opts.Metrics)
	}
	if s.opts.Root != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.opts.Root)))
	}

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.opts.Status == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "pending"})
		return
	}
	ev, ok := s.opts.Status.LastBuild()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"status": "pending"})
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if s.opts.Rebuild == nil {
		s.adapter.WriteErrorResponse(w, r, errors.ValidationError("rebuilds are not enabled").Build())
		return
	}
	s.opts.Rebuild()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves h on addr until ctx is canceled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to listen").
			WithContext("addr", addr).
			Build()
	}
	return Serve(ctx, ln, h)
}

// Serve is ListenAndServe on an existing listener.
func Serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	slog.Info("Preview server listening", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.WrapError(err, errors.CategoryInternal, "server failed").Build()
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "server shutdown failed").Build()
	}
	return nil
}
