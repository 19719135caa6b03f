// Package server provides the HTTP server and routing for FundLens.
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

	"github.com/aristath/fundlens/internal/clientdata"
	"github.com/aristath/fundlens/internal/clients/alphavantage"
	"github.com/aristath/fundlens/internal/database"
	"github.com/aristath/fundlens/internal/events"
	"github.com/aristath/fundlens/internal/modules/portfolio"
	"github.com/aristath/fundlens/internal/modules/snapshots"
)

// Config holds server configuration.
type Config struct {
	Log         zerolog.Logger
	Port        int
	DevMode     bool
	DataDir     string
	PortfolioDB *database.DB
	CacheDB     *database.DB

	Portfolio *portfolio.Service
	Snapshots *snapshots.Service
	CacheRepo *clientdata.Repository
	Provider  alphavantage.ClientInterface
	EventBus  *events.Bus
}

// Server represents the HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
		// No WriteTimeout: it would sever the long-lived SSE stream.
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// SSE stream registered first so it is never wrapped by
		// buffering middleware added later.
		eventsStream := NewEventsStreamHandler(s.cfg.EventBus, s.log)
		r.Get("/events/stream", eventsStream.ServeHTTP)

		portfolioHandlers := NewPortfolioHandlers(s.cfg.Portfolio, s.log)
		portfolioHandlers.RegisterRoutes(r)

		exposureHandlers := NewExposureHandlers(s.cfg.Portfolio, s.log)
		exposureHandlers.RegisterRoutes(r)

		snapshotHandlers := NewSnapshotHandlers(s.cfg.Snapshots, s.log)
		snapshotHandlers.RegisterRoutes(r)

		systemHandlers := NewSystemHandlers(SystemConfig{
			Log:         s.log,
			DataDir:     s.cfg.DataDir,
			PortfolioDB: s.cfg.PortfolioDB,
			CacheDB:     s.cfg.CacheDB,
			CacheRepo:   s.cfg.CacheRepo,
			Provider:    s.cfg.Provider,
			Portfolio:   s.cfg.Portfolio,
		})
		systemHandlers.RegisterRoutes(r)
	})
}

// handleHealth is the load-balancer liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start starts the HTTP server.
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
