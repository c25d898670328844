// Package server exposes the commitcanvas HTTP API.
//
// Graphs are ingested by POSTing a git log stream, persisted through a
// [store.Store], and served back as JSON or rendered artifacts. Refs are
// passed as query parameters because they may contain slashes.
package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/commitcanvas/pkg/pipeline"
	"github.com/matzehuels/commitcanvas/pkg/store"
)

// Server wires the HTTP handlers to their backends.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	log    *log.Logger
}

// Options configures a server.
type Options struct {
	// Runner executes ingest and render runs. Required.
	Runner *pipeline.Runner

	// Store persists ingested graphs. Required.
	Store store.Store

	// Logger defaults to the standard logger.
	Logger *log.Logger
}

// New creates a server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Server{runner: opts.Runner, store: opts.Store, log: opts.Logger}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/graphs/{repo}", func(r chi.Router) {
		r.Post("/", s.handleIngest)
		r.Get("/", s.handleGet)
		r.Delete("/", s.handleDelete)
		r.Get("/refs", s.handleListRefs)
		r.Get("/render", s.handleRender)
	})
	return r
}

// requestLogger logs one line per request after it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}
