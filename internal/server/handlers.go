package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/mazad/internal/config"
	"github.com/hyperjump/mazad/internal/imagesearch"
	"github.com/hyperjump/mazad/internal/models"
	"github.com/hyperjump/mazad/internal/storage"
)

const defaultSuggestionLimit = 10

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit), zap.Bool("fuzzy", query.FuzzyEnabled))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.respondErr(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	s.respondJSON(w, http.StatusOK, s.engine.Expand(q))
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := defaultSuggestionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, models.MaxLimit)
	}
	suggestions, err := s.engine.Suggest(r.Context(), q, limit)
	if err != nil {
		s.respondErr(w, "suggestions failed", err)
		return
	}
	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

const (
	defaultTopBrands   = 5
	maxTopBrandQueries = 200
)

type topBrandsRequest struct {
	Queries []string `json:"queries"`
	Limit   int      `json:"limit,omitempty"`
}

// handleTopBrands ranks the brands detected across a user's recent queries.
func (s *Server) handleTopBrands(w http.ResponseWriter, r *http.Request) {
	var req topBrandsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Queries) > maxTopBrandQueries {
		req.Queries = req.Queries[len(req.Queries)-maxTopBrandQueries:]
	}
	if req.Limit <= 0 {
		req.Limit = defaultTopBrands
	}
	brands := s.engine.Expander().TopBrands(req.Queries, req.Limit)
	if brands == nil {
		brands = []string{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"brands": brands})
}

type imageSearchRequest struct {
	Image string `json:"image"`
	Limit int    `json:"limit,omitempty"`
}

func (s *Server) handleImageSearch(w http.ResponseWriter, r *http.Request) {
	if s.images == nil {
		s.respondError(w, http.StatusNotImplemented, "image search not enabled")
		return
	}
	var req imageSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("image search request", zap.Int("image_bytes", len(req.Image)), zap.Int("limit", req.Limit))
	response, err := s.images.Search(r.Context(), req.Image, req.Limit)
	if err != nil {
		s.respondErr(w, "image search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var input models.ListingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := input.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	listing := input.ToListing()
	s.logger.Debug("create listing request", zap.String("id", listing.ID), zap.String("title", listing.Title))
	if err := s.storage.CreateListing(r.Context(), listing); err != nil {
		s.respondErr(w, "create listing failed", err)
		return
	}
	s.sync(r, listing)
	s.respondJSON(w, http.StatusCreated, listing)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	listing, err := s.storage.GetListing(r.Context(), id)
	if err != nil {
		s.respondErr(w, "get listing failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, listing)
}

func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var input models.ListingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := input.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	listing, err := s.storage.GetListing(r.Context(), id)
	if err != nil {
		s.respondErr(w, "get listing failed", err)
		return
	}
	input.ApplyTo(listing)
	s.logger.Debug("update listing request", zap.String("id", id))
	if err := s.storage.UpdateListing(r.Context(), listing); err != nil {
		s.respondErr(w, "update listing failed", err)
		return
	}
	s.sync(r, listing)
	s.respondJSON(w, http.StatusOK, listing)
}

func (s *Server) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete listing request", zap.String("id", id))
	if err := s.storage.DeleteListing(r.Context(), id); err != nil {
		s.respondErr(w, "delete listing failed", err)
		return
	}
	if s.syncer != nil {
		if err := s.syncer.RemoveListing(r.Context(), id); err != nil {
			s.logger.Warn("index removal failed; reconciler will prune it", zap.String("id", id), zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// sync pushes a stored listing to the index. The write already succeeded, so
// failures are logged and left to the reconciler.
func (s *Server) sync(r *http.Request, listing *models.Listing) {
	if s.syncer == nil {
		return
	}
	if err := s.syncer.SyncListing(r.Context(), listing); err != nil {
		s.logger.Warn("index sync failed; reconciler will retry", zap.String("id", listing.ID), zap.Error(err))
	}
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		s.respondError(w, http.StatusNotImplemented, "sync not enabled")
		return
	}
	start := time.Now()
	result, err := s.syncer.BulkSync(r.Context())
	if err != nil {
		s.respondErr(w, "bulk sync failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"total_processed": result.TotalProcessed,
		"total_batches":   result.TotalBatches,
		"duration_ms":     time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listingCount, err := s.storage.CountListings(ctx)
	if err != nil {
		s.respondErr(w, "status: count listings failed", err)
		return
	}
	categories, err := s.storage.ListCategories(ctx)
	if err != nil {
		s.respondErr(w, "status: list categories failed", err)
		return
	}
	resp := map[string]interface{}{
		"listings":       listingCount,
		"categories":     len(categories),
		"dictionaries":   s.engine.Expander().Dictionaries().Stats(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	if s.index != nil {
		if n, err := s.index.DocCount(); err == nil {
			resp["indexed"] = n
		}
	}

	cfg := s.config
	configInfo := map[string]interface{}{
		"storage_driver":   cfg.Storage.Driver,
		"bleve_index_path": cfg.Storage.BleveIndexPath,
		"auto_fuzzy":       cfg.Search.AutoFuzzyOrDefault(),
		"image_search":     s.images != nil,
	}
	dbPath := ""
	if cfg.Storage.Driver != config.DriverPostgres {
		dbPath = cfg.Storage.DatabasePath
		configInfo["database_path"] = dbPath
	}
	if cfg.Expansion.DictionaryPath != "" {
		configInfo["dictionary_path"] = cfg.Expansion.DictionaryPath
	}
	if usage, err := storage.MeasureDiskUsage(dbPath, cfg.Storage.BleveIndexPath); err == nil {
		resp["disk_usage_bytes"] = usage.Total()
		resp["disk_usage"] = usage
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

// respondErr maps domain errors to a status code and writes them.
func (s *Server) respondErr(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case isValidationError(err):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error(msg, zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		models.ErrEmptyQuery,
		models.ErrInvalidPrice,
		models.ErrEmptyTitle,
		models.ErrNegativePrice,
		models.ErrInvalidSaleType,
		imagesearch.ErrEmptyImage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
