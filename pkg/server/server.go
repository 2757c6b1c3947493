// Package server exposes the lockfile engine over HTTP.
//
// Routes:
//
//	POST /v1/detect   {"filename": "...", "content": "..."}  → {"format": "npm-v3"}
//	POST /v1/parse    {"files": [{"name": "...", "content": "..."}]}
//	GET  /healthz
//	GET  /metrics     Prometheus text format (when metrics are enabled)
//
// Every response carries an X-Request-ID header, echoed from the request
// or generated. Errors are JSON objects with "error" and "code" fields.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/lockscan/pkg/cache"
	lserrors "github.com/matzehuels/lockscan/pkg/errors"
	"github.com/matzehuels/lockscan/pkg/observability"
	"github.com/matzehuels/lockscan/pkg/pipeline"
)

// Defaults.
const (
	DefaultAddr     = ":8080"
	DefaultMaxFiles = 100

	readHeaderTimeout = 10 * time.Second
	requestTimeout    = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Config configures a [Server].
type Config struct {
	Addr string

	// Cache stores parse results by content hash. Nil disables caching.
	Cache cache.Cache
	Keyer cache.Keyer

	// Metrics, when set, records request metrics and serves /metrics.
	Metrics *observability.Prometheus

	// MaxFiles bounds the lockfiles accepted by one parse request.
	MaxFiles int
	// MaxBodyBytes bounds a request body.
	MaxBodyBytes int64
	// MaxFileBytes bounds each lockfile in a parse request. It defaults to
	// the CLI's per-file read limit.
	MaxFileBytes int

	Logger *log.Logger
}

// Server is the lockscan HTTP API.
type Server struct {
	cfg    Config
	runner *pipeline.Runner
	router chi.Router
}

// New builds a server and its routes.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = DefaultMaxFiles
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = defaultMaxFileBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	s := &Server{
		cfg:    cfg,
		runner: pipeline.NewRunner(cfg.Cache, cfg.Keyer, cfg.Logger),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(s.limitBody)
		r.Post("/detect", s.handleDetect)
		r.Post("/parse", s.handleParse)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, string(lserrors.ErrCodeNotFound), "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed on "+r.URL.Path)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.cfg.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
