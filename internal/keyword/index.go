// Package keyword provides the listing search index and spell checking over
// its vocabulary.
package keyword

import (
	"context"

	"github.com/hyperjump/mazad/internal/expand"
	"github.com/hyperjump/mazad/internal/models"
)

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// TitleBoost multiplies the score contribution from matches in the title field.
	TitleBoost float64
	// FuzzyEnabled adds edit-distance matching of the query tokens.
	FuzzyEnabled bool
	// Fuzziness is the maximum Levenshtein edit distance for fuzzy matching (1 or 2).
	// Default is 1 when FuzzyEnabled is true.
	Fuzziness int
}

// ListingIndex defines the search index operations over listings.
type ListingIndex interface {
	Index(ctx context.Context, l *models.Listing) error
	// IndexBatch upserts many listings in one batch.
	IndexBatch(ctx context.Context, ls []*models.Listing) error
	Delete(ctx context.Context, id string) error
	// Search matches any of the expanded terms.
	Search(ctx context.Context, q *expand.ExpandedQuery, limit int, opts *SearchOptions) ([]*KeywordResult, error)
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single index hit. Title and Category come from stored fields.
type KeywordResult struct {
	ID       string
	Score    float64
	Title    string
	Category string
}

// TermDictionary provides access to the term dictionary for spell checking.
type TermDictionary interface {
	// GetAllTerms returns all unique terms in the index.
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns the document frequency for a term.
	GetTermFrequency(term string) (int, error)
	// ContainsTerm checks if a term exists in the index.
	ContainsTerm(term string) (bool, error)
}
