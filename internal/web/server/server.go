// Package server wires the HTTP surface: router, local stores, the
// backend client and graceful lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bulkmsg/bulkmsg/internal/backend"
	"github.com/bulkmsg/bulkmsg/internal/cache"
	"github.com/bulkmsg/bulkmsg/internal/config"
	"github.com/bulkmsg/bulkmsg/internal/db"
	"github.com/bulkmsg/bulkmsg/internal/metrics"
	"github.com/bulkmsg/bulkmsg/internal/repository"
	"github.com/bulkmsg/bulkmsg/internal/web/handlers"
)

type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *db.DB
	cache   *cache.Store
	backend *backend.Client
	metrics *metrics.Metrics
	http    *http.Server
}

func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	// Initialize database
	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	settings := repository.NewSettingsRepository(database.DB)

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)
	token := cfg.Backend.Token
	if token == "" {
		token, err = settings.Get(repository.KeyBackendToken)
		if err != nil {
			return nil, fmt.Errorf("failed to load backend token: %w", err)
		}
	}
	client.SetToken(token)
	client.OnUnauthorized = func() {
		if err := settings.Delete(repository.KeyBackendToken); err != nil {
			logger.Error("failed to clear stored backend token", "error", err)
		}
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		db:      database,
		cache:   store,
		backend: client,
		metrics: metrics.New(),
	}

	s.http = &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      s.setupRoutes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.HTTPMiddleware)

	h := handlers.New(s.cfg, s.logger, s.backend, s.cache,
		repository.NewBatchRepository(s.db.DB), s.metrics)

	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", h.ContactList)
			r.Post("/", h.ContactCreate)
			r.Put("/{id}", h.ContactUpdate)
			r.Delete("/{id}", h.ContactDelete)
			r.Post("/import", h.ContactImport)
			r.Post("/import/preview", h.ImportPreview)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", h.MessageList)
			r.Post("/send", h.MessageSend)
		})

		r.Get("/dashboard", h.Dashboard)
		r.Get("/analytics", h.Analytics)
		r.Get("/imports", h.BatchHistory)
	})

	return r
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"bytes", ww.BytesWritten(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("starting web server", "addr", s.cfg.Server.ListenAddr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown error", "error", err)
		}
		s.close()
		return nil
	}
}

func (s *Server) close() {
	if err := s.cache.Close(); err != nil {
		s.logger.Error("failed to close cache", "error", err)
	}
	if err := s.db.Close(); err != nil {
		s.logger.Error("failed to close database", "error", err)
	}
}
