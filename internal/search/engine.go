// Package search provides the listing search engine: query expansion, index
// lookup, hydration from storage, filtering and suggestions.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/mazad/internal/config"
	"github.com/hyperjump/mazad/internal/expand"
	"github.com/hyperjump/mazad/internal/keyword"
	"github.com/hyperjump/mazad/internal/metrics"
	"github.com/hyperjump/mazad/internal/models"
	"github.com/hyperjump/mazad/internal/storage"
)

const (
	suggestTermLimit     = 6
	suggestCategoryLimit = 5
	defaultSuggestLimit  = 10
	maxSpellSuggestions  = 3
)

// FullTextSearcher runs an expanded query directly in the database.
type FullTextSearcher interface {
	SearchFullText(ctx context.Context, q *expand.ExpandedQuery, limit int) ([]*models.SearchResult, error)
}

// Engine runs listing searches.
type Engine struct {
	storage  storage.Storage
	index    keyword.ListingIndex
	expander *expand.Expander
	config   *config.SearchConfig

	spell    *keyword.SpellChecker
	fullText FullTextSearcher
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithSpellChecker enables "did you mean" suggestions on fuzzy searches.
func WithSpellChecker(s *keyword.SpellChecker) Option {
	return func(e *Engine) { e.spell = s }
}

// WithFullText retrieves candidates from the database instead of the index.
func WithFullText(f FullTextSearcher) Option {
	return func(e *Engine) { e.fullText = f }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(
	storage storage.Storage,
	index keyword.ListingIndex,
	expander *expand.Expander,
	cfg *config.SearchConfig,
	opts ...Option,
) *Engine {
	if expander == nil {
		expander = expand.New()
	}
	if cfg == nil {
		defaults := &config.Config{}
		config.ApplyDefaults(defaults)
		cfg = &defaults.Search
	}
	e := &Engine{
		storage:  storage,
		index:    index,
		expander: expander,
		config:   cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expander returns the engine's query expander.
func (e *Engine) Expander() *expand.Expander {
	return e.expander
}

// Expand expands raw with the engine's dictionaries.
func (e *Engine) Expand(raw string) *expand.ExpandedQuery {
	return e.expander.Expand(raw)
}

// Search expands the query, retrieves candidates, hydrates them from storage,
// applies the filters and returns one page. When nothing matches and fuzzy
// matching was not requested, the search is retried with fuzzy matching and
// the response is flagged AutoFuzzy.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query, e.config); err != nil {
		return nil, err
	}

	mode := metrics.ModeExact
	if query.FuzzyEnabled {
		mode = metrics.ModeFuzzy
	}
	response, err := e.run(ctx, query, query.FuzzyEnabled)
	if err != nil {
		return nil, err
	}

	if response.Total == 0 && !query.FuzzyEnabled && e.config.AutoFuzzyOrDefault() {
		retry, err := e.run(ctx, query, true)
		if err != nil {
			return nil, err
		}
		retry.AutoFuzzy = true
		response = retry
		mode = metrics.ModeAutoFuzzy
		e.logger.Debug("auto-fuzzy retry",
			zap.String("query", query.Query),
			zap.Int("results", retry.Total),
		)
	}

	if mode != metrics.ModeExact && e.spell != nil {
		response.Suggestions = e.spell.GetTopSuggestions(response.Expanded.Normalized, maxSpellSuggestions)
	}

	response.QueryTime = time.Since(startTime).Milliseconds()
	metrics.ObserveSearch(mode, time.Since(startTime), len(response.Results))
	metrics.RecordExpansion(response.Expanded)
	return response, nil
}

func (e *Engine) run(ctx context.Context, query *models.SearchQuery, fuzzy bool) (*models.SearchResponse, error) {
	var expanded *expand.ExpandedQuery
	if fuzzy {
		expanded = e.expander.ExpandFuzzy(query.Query)
	} else {
		expanded = e.expander.Expand(query.Query)
	}

	candidates, err := e.candidates(ctx, expanded, fuzzy)
	if err != nil {
		return nil, err
	}

	filtered := candidates[:0]
	for _, c := range candidates {
		if query.Matches(c.Listing) {
			filtered = append(filtered, c)
		}
	}

	start := min(query.Offset, len(filtered))
	end := start + min(query.Limit, len(filtered)-start)
	page := filtered[start:end]
	for i, r := range page {
		r.Rank = start + i + 1
	}

	return &models.SearchResponse{
		Results:  page,
		Total:    len(filtered),
		Query:    query.Query,
		Expanded: expanded,
	}, nil
}

// candidates returns hydrated listings in relevance order.
func (e *Engine) candidates(ctx context.Context, expanded *expand.ExpandedQuery, fuzzy bool) ([]*models.SearchResult, error) {
	limit := e.config.TopKCandidates
	if e.fullText != nil {
		results, err := e.fullText.SearchFullText(ctx, expanded, limit)
		if err != nil {
			return nil, fmt.Errorf("full-text search failed: %w", err)
		}
		return results, nil
	}

	hits, err := e.index.Search(ctx, expanded, limit, &keyword.SearchOptions{
		TitleBoost:   e.config.TitleBoost,
		FuzzyEnabled: fuzzy,
	})
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	results := make([]*models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		l, err := e.storage.GetListing(ctx, hit.ID)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				e.logger.Warn("failed to load listing", zap.String("listing_id", hit.ID), zap.Error(err))
			}
			continue
		}
		results = append(results, &models.SearchResult{Listing: l, Score: hit.Score})
	}
	return results, nil
}

// Suggest returns search-box completions for a partial query: first up to
// five categories containing one of the leading expanded terms, then titles
// of matching available listings, without duplicates. limit is capped at
// models.MaxLimit.
func (e *Engine) Suggest(ctx context.Context, query string, limit int) ([]models.Suggestion, error) {
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	limit = min(limit, models.MaxLimit)
	expanded := e.expander.Expand(query)
	if expanded.Empty() {
		return []models.Suggestion{}, nil
	}
	terms := expanded.Head(suggestTermLimit)

	suggestions := make([]models.Suggestion, 0, suggestCategoryLimit)
	seen := make(map[string]struct{})

	categories, err := e.storage.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	for _, cat := range categories {
		if len(suggestions) == suggestCategoryLimit {
			break
		}
		if containsAnyTerm(cat, terms) {
			suggestions = append(suggestions, models.Suggestion{Term: cat, Category: cat, Type: models.SuggestionCategory})
			seen[cat] = struct{}{}
		}
	}

	if len(suggestions) < limit {
		hits, err := e.index.Search(ctx, expanded, limit*2, &keyword.SearchOptions{TitleBoost: e.config.TitleBoost})
		if err != nil {
			return nil, fmt.Errorf("keyword search failed: %w", err)
		}
		for _, hit := range hits {
			if len(suggestions) == limit {
				break
			}
			if hit.Title == "" {
				continue
			}
			if _, dup := seen[hit.Title]; dup {
				continue
			}
			l, err := e.storage.GetListing(ctx, hit.ID)
			if err != nil || !l.Available() {
				continue
			}
			seen[hit.Title] = struct{}{}
			suggestions = append(suggestions, models.Suggestion{Term: hit.Title, Category: hit.Category, Type: models.SuggestionProduct})
		}
	}

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

// containsAnyTerm reports whether s contains one of terms, comparing both
// lowercased and Arabic-normalized forms.
func containsAnyTerm(s string, terms []string) bool {
	lower := strings.ToLower(s)
	norm := expand.NormalizeArabic(lower)
	for _, t := range terms {
		t = strings.ToLower(t)
		if t == "" {
			continue
		}
		if strings.Contains(lower, t) || strings.Contains(norm, expand.NormalizeArabic(t)) {
			return true
		}
	}
	return false
}
