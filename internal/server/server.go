// Package server exposes article generation and the local library over a
// JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"contentforge/internal/config"
	"contentforge/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// quickTimeout bounds every route except generation and publishing.
const quickTimeout = 60 * time.Second

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	articles   *services.ArticleService
	config     config.Server
	log        zerolog.Logger
	started    time.Time
}

// New creates a new HTTP server instance
func New(articles *services.ArticleService, cfg config.Server, log zerolog.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		articles: articles,
		config:   cfg,
		log:      log.With().Str("component", "server").Logger(),
		started:  time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)

	if s.config.CORS.Enabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Generation and publishing call slow upstreams and stream progress.
		r.Post("/articles/generate", s.handleGenerate)
		r.Post("/articles/{id}/publish", s.handlePublish)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(quickTimeout))
			r.Use(noCache)

			r.Post("/articles/estimate", s.handleEstimate)
			r.Get("/articles", s.handleListArticles)
			r.Get("/articles/{id}", s.handleGetArticle)
			r.Delete("/articles/{id}", s.handleDeleteArticle)

			r.Post("/keys/test", s.handleTestKeys)

			r.Get("/settings", s.handleListSettings)
			r.Get("/settings/{key}", s.handleGetSetting)
			r.Put("/settings/{key}", s.handlePutSetting)

			r.Get("/internal-links", s.handleSearchLinks)
			r.Post("/internal-links/import", s.handleImportSitemap)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().
		Str("addr", s.httpServer.Addr).
		Dur("read_timeout", s.config.ReadTimeout).
		Dur("write_timeout", s.config.WriteTimeout).
		Msg("starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info().Msg("HTTP server stopped")
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
