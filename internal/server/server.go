// Package server exposes the analysis pipeline over a JSON REST API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quantfold/etfscope/internal/app"
	"github.com/quantfold/etfscope/internal/common"
)

// Server wraps the HTTP server and application reference.
type Server struct {
	app    *app.App
	router *chi.Mux
	server *http.Server
	logger *common.Logger
}

// NewServer creates the HTTP REST API server.
func NewServer(a *app.App) *Server {
	s := &Server{
		app:    a,
		router: chi.NewRouter(),
		logger: a.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		// Cold-cache analysis runs many rate-limited remote calls.
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/etfs", s.handleListETFs)
	s.router.Get("/api/calculations", s.handleCalculations)
	s.router.Post("/api/analyze", s.handleAnalyze)

	// Rendered chart PNGs are served directly from the artifact directory.
	artifactDir := http.Dir(s.app.Config.Storage.ArtifactPath)
	s.router.Handle("/charts/*", http.StripPrefix("/charts/", http.FileServer(artifactDir)))
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
