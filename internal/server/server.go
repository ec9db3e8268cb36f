// Package server wires the HTTP API over chi.
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

	"github.com/scermak/theportfolio/internal/database"
	"github.com/scermak/theportfolio/internal/modules/accounting"
	"github.com/scermak/theportfolio/internal/modules/analysis"
	"github.com/scermak/theportfolio/internal/modules/dividends"
	"github.com/scermak/theportfolio/internal/modules/importer"
	"github.com/scermak/theportfolio/internal/modules/portfolio"
	"github.com/scermak/theportfolio/internal/modules/securities"
)

// Handlers collects the per-module HTTP handlers.
type Handlers struct {
	Trades     *accounting.Handler
	Portfolio  *portfolio.Handler
	Securities *securities.Handler
	Dividends  *dividends.Handler
	Analysis   *analysis.Handler
	Importer   *importer.Handler
}

// Config holds server configuration
type Config struct {
	Port     int
	DevMode  bool
	Log      zerolog.Logger
	DB       *database.DB
	Handlers Handlers
}

// Server represents the HTTP server
type Server struct {
	router   *chi.Mux
	server   *http.Server
	db       *database.DB
	handlers Handlers
	log      zerolog.Logger
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		db:       cfg.DB,
		handlers: cfg.Handlers,
		log:      cfg.Log.With().Str("component", "server").Logger(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
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
		r.Route("/trades", func(r chi.Router) {
			r.Post("/", s.handlers.Trades.HandleRecordTrade)
			r.Post("/sell", s.handlers.Trades.HandleRecordSale)
			r.Get("/active", s.handlers.Portfolio.HandleGetActive)
		})

		r.Get("/history", s.handlers.Portfolio.HandleGetHistory)
		r.Get("/statistics", s.handlers.Portfolio.HandleGetStatistics)

		r.Route("/securities", func(r chi.Router) {
			r.Get("/", s.handlers.Securities.HandleListMappings)
			r.Put("/", s.handlers.Securities.HandleSetMapping)
			r.Get("/search", s.handlers.Securities.HandleSearch)
			r.Get("/{ticker}/info", s.handlers.Securities.HandleGetInfo)
		})

		r.Route("/dividends", func(r chi.Router) {
			r.Get("/", s.handlers.Dividends.HandleList)
			r.Post("/", s.handlers.Dividends.HandleRecord)
		})

		r.Route("/analysis", func(r chi.Router) {
			r.Get("/", s.handlers.Analysis.HandleList)
			r.Post("/refresh", s.handlers.Analysis.HandleRefresh)
			r.Get("/{ticker}", s.handlers.Analysis.HandleGet)
		})

		r.Post("/import", s.handlers.Importer.HandleImport)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
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
