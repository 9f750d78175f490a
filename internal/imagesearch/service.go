package imagesearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/mazad/internal/expand"
	"github.com/hyperjump/mazad/internal/metrics"
	"github.com/hyperjump/mazad/internal/models"
)

// ErrEmptyImage is returned when no image data was supplied.
var ErrEmptyImage = errors.New("image cannot be empty")

// Searcher runs text searches.
type Searcher interface {
	Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error)
}

// Service runs image-driven searches.
type Service struct {
	analyzer Analyzer
	searcher Searcher
	logger   *zap.Logger
}

// NewService creates an image search service.
func NewService(analyzer Analyzer, searcher Searcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{analyzer: analyzer, searcher: searcher, logger: logger}
}

// Search analyzes the image, renders the attributes as a query and searches
// for it. When the attributes yield no query the response is empty but still
// carries the analysis.
func (s *Service) Search(ctx context.Context, image string, limit int) (*models.ImageSearchResponse, error) {
	if image == "" {
		return nil, ErrEmptyImage
	}
	start := time.Now()

	attrs, err := s.analyzer.Analyze(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("analyze image: %w", err)
	}
	if attrs == nil {
		attrs = Unknown()
	}

	query := expand.BuildQueryFromAttributes(*attrs)
	s.logger.Debug("image analyzed",
		zap.String("brand", attrs.Brand),
		zap.String("model", attrs.Model),
		zap.String("item_type", attrs.ItemType),
		zap.String("query", query),
	)

	if query == "" {
		metrics.ObserveSearch(metrics.ModeImage, time.Since(start), 0)
		return &models.ImageSearchResponse{
			Analysis: attrs,
			SearchResponse: &models.SearchResponse{
				Results:   []*models.SearchResult{},
				QueryTime: time.Since(start).Milliseconds(),
			},
		}, nil
	}

	resp, err := s.searcher.Search(ctx, &models.SearchQuery{Query: query, Limit: limit})
	if err != nil {
		return nil, err
	}
	metrics.ObserveSearch(metrics.ModeImage, time.Since(start), len(resp.Results))
	return &models.ImageSearchResponse{
		Analysis:       attrs,
		Query:          query,
		SearchResponse: resp,
	}, nil
}
