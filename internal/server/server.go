// Package server exposes the lookup store and error queue over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/Sternrassler/firstnames/internal/config"
	"github.com/Sternrassler/firstnames/pkg/errqueue"
	"github.com/Sternrassler/firstnames/pkg/lookup"
	"github.com/Sternrassler/firstnames/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Server represents the HTTP server.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	config  config.ServerConfig
	service *lookup.Service
	errors  *errqueue.Queue
	logger  zerolog.Logger
}

// New creates a new HTTP server instance.
func New(cfg config.ServerConfig, service *lookup.Service, queue *errqueue.Queue, logger zerolog.Logger) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(logger))
	r.Use(RequestID)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusNotFound, "The requested resource was not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusMethodNotAllowed, "The requested method is not allowed for this resource")
	})

	s := &Server{
		router:  r,
		config:  cfg,
		service: service,
		errors:  queue,
		logger:  logger,
	}
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.router.Group(func(r chi.Router) {
		r.Use(hlog.AccessHandler(accessLog))

		r.Get("/health", s.handleHealth)
		r.Method(http.MethodGet, "/metrics", metrics.Handler())

		r.Post("/api/lookup", s.handleLookup)
		r.Get("/api/results", s.handleResults)
		r.Get("/api/mf", s.handleMF)
		r.Get("/api/errors", s.handleListErrors)
		r.Delete("/api/errors/{id}", s.handleDismissError)
	})

	// The event stream is long-lived and writes to the unwrapped writer.
	s.router.Get("/api/events", s.handleEvents)
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.logger.Info().Str("addr", s.config.Addr).Msg("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}
