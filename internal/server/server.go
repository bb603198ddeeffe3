// Package server provides the HTTP server and routing for the dashboard.
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

	"github.com/aristath/stockdash/internal/config"
	"github.com/aristath/stockdash/internal/database"
	"github.com/aristath/stockdash/internal/marketdata"
	"github.com/aristath/stockdash/internal/modules/market"
	markethandlers "github.com/aristath/stockdash/internal/modules/market/handlers"
	"github.com/aristath/stockdash/internal/modules/performance"
	"github.com/aristath/stockdash/internal/modules/scenarios"
	scenarioshandlers "github.com/aristath/stockdash/internal/modules/scenarios/handlers"
	"github.com/aristath/stockdash/internal/modules/screener"
	screenerhandlers "github.com/aristath/stockdash/internal/modules/screener/handlers"
)

// Config holds server configuration
type Config struct {
	Log             zerolog.Logger
	Config          *config.Config
	ScenariosDB     *database.DB
	CacheDB         *database.DB
	Provider        *marketdata.CachedProvider
	MarketService   *market.Service
	ScenarioService *scenarios.Service
	ScreenerService *screener.Service
	Analyzer        *performance.Service
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	scenariosDB    *database.DB
	cacheDB        *database.DB
	provider       *marketdata.CachedProvider
	systemHandlers *SystemHandlers

	marketHandler   *markethandlers.Handler
	scenarioHandler *scenarioshandlers.Handler
	screenerHandler *screenerhandlers.Handler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		log:         cfg.Log.With().Str("component", "server").Logger(),
		cfg:         cfg.Config,
		scenariosDB: cfg.ScenariosDB,
		cacheDB:     cfg.CacheDB,
		provider:    cfg.Provider,

		marketHandler:   markethandlers.NewHandler(cfg.MarketService, cfg.Log),
		scenarioHandler: scenarioshandlers.NewHandler(cfg.ScenarioService, cfg.Analyzer, cfg.Log),
		screenerHandler: screenerhandlers.NewHandler(cfg.ScreenerService, cfg.Log),
	}

	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.ScenariosDB, cfg.CacheDB, cfg.Provider)

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
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
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
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
		r.Get("/system/health", s.systemHandlers.HandleSystemHealth)

		s.marketHandler.RegisterRoutes(r)
		s.screenerHandler.RegisterRoutes(r)
		s.scenarioHandler.RegisterRoutes(r)
	})
}

// handleHealth is the liveness probe
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Start starts the HTTP server
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
