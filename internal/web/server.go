// Package web provides the HTTP host for browsing and exporting datasets.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/datatable/internal/config"
	"github.com/JonMunkholm/datatable/internal/dataset"
	"github.com/JonMunkholm/datatable/internal/export"
	"github.com/JonMunkholm/datatable/internal/web/middleware"
)

// Server is the HTTP server for the dataset browser.
type Server struct {
	cfg    *config.Config
	db     dataset.Querier
	router *chi.Mux
	server *http.Server

	mu      sync.Mutex
	exports map[string]*exportTracker
}

// NewServer creates a new Server. db may be nil, in which case every
// dataset is served from its seed rows.
func NewServer(cfg *config.Config, db dataset.Querier) *Server {
	s := &Server{
		cfg:     cfg,
		db:      db,
		router:  chi.NewRouter(),
		exports: make(map[string]*exportTracker),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/table/{key}", s.handleTablePage)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/datasets", s.handleListDatasets)
		r.Get("/table/{key}", s.handleTableData)
		r.Get("/export/{key}", s.handleExport)
		r.Get("/export/{key}/status", s.handleExportStatus)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// exportTracker pairs a dataset's Coordinator with the outcome of its most
// recent export.
type exportTracker struct {
	coord *export.Coordinator

	mu   sync.Mutex
	last *export.Result
}

func (t *exportTracker) record(res export.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = &res
}

func (t *exportTracker) lastResult() *export.Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return nil
	}
	res := *t.last
	res.Payload = nil
	return &res
}

// tracker returns the export tracker for dataset key, creating it on first
// use. One Coordinator per dataset means concurrent exports of the same
// dataset are rejected while different datasets export in parallel.
func (s *Server) tracker(key string) *exportTracker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.exports[key]; ok {
		return t
	}

	t := &exportTracker{}
	t.coord = export.NewCoordinator(export.Hooks{
		OnComplete: func(_ export.Format, res export.Result) {
			t.record(res)
		},
		OnError: func(f export.Format, err error) {
			// Busy rejections describe the other export, not a new outcome.
			if errors.Is(err, export.ErrExportInProgress) {
				return
			}
			t.record(export.Result{Format: f, Message: export.MapError(err).Message})
		},
	})
	s.exports[key] = t
	return t
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
