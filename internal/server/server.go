// Package server provides the HTTP API for mazad.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/mazad/internal/config"
	"github.com/hyperjump/mazad/internal/indexsync"
	"github.com/hyperjump/mazad/internal/keyword"
	"github.com/hyperjump/mazad/internal/models"
	"github.com/hyperjump/mazad/internal/search"
	"github.com/hyperjump/mazad/internal/storage"
)

// ImageSearcher runs image-driven searches.
type ImageSearcher interface {
	Search(ctx context.Context, image string, limit int) (*models.ImageSearchResponse, error)
}

// Server is the HTTP server for the mazad API.
type Server struct {
	engine  *search.Engine
	syncer  *indexsync.Syncer
	storage storage.Storage
	index   keyword.ListingIndex
	images  ImageSearcher
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
	started time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithImageSearch enables POST /api/v1/search/image.
func WithImageSearch(images ImageSearcher) Option {
	return func(s *Server) { s.images = images }
}

// WithIndex exposes the index document count in /api/v1/status.
func WithIndex(index keyword.ListingIndex) Option {
	return func(s *Server) { s.index = index }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	syncer *indexsync.Syncer,
	storage storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:  engine,
		syncer:  syncer,
		storage: storage,
		config:  cfg,
		logger:  logger,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	timeout := s.config.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))
	r.Use(instrument)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/search/expand", s.handleExpand)
		r.Get("/search/suggestions", s.handleSuggestions)
		r.Post("/search/image", s.handleImageSearch)
		r.Post("/search/top-brands", s.handleTopBrands)

		r.Post("/listings", s.handleCreateListing)
		r.Get("/listings/{id}", s.handleGetListing)
		r.Put("/listings/{id}", s.handleUpdateListing)
		r.Delete("/listings/{id}", s.handleDeleteListing)

		r.Post("/sync", s.handleSync)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
