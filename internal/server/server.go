// Package server provides the HTTP server and routing for the advisor.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/archive"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/database"
	"github.com/aristath/advisor/internal/metrics"
	portfoliohandlers "github.com/aristath/advisor/internal/modules/portfolio/handlers"
	"github.com/aristath/advisor/internal/scheduler"
)

// BreakerState reports the state of a circuit breaker
type BreakerState interface {
	State() string
}

// Config holds server configuration. MarketDB, Archive, Sentiment and
// Scheduler are optional.
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	Policy    config.Policy
	MarketDB  *database.DB
	Archive   archive.Store
	Metrics   *metrics.Registry
	Sentiment BreakerState
	Scheduler *scheduler.Scheduler
	Jobs      []scheduler.Job
	Portfolio *portfoliohandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	cfg       Config
	system    *SystemHandlers
	startedAt time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg,
		startedAt: time.Now(),
	}
	s.system = NewSystemHandlers(cfg, s.startedAt)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5, "application/json"))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	if s.cfg.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.cfg.Metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/policy", s.handlePolicy)
		r.Get("/runs", s.handleListRuns)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.system.HandleSystemStatus)
			r.Get("/jobs", s.system.HandleListJobs)
			r.Post("/jobs/{name}", s.system.HandleTriggerJob)
		})

		if s.cfg.Portfolio != nil {
			s.cfg.Portfolio.RegisterRoutes(r)
		}
	})
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
