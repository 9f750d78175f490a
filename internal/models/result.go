package models

import "github.com/hyperjump/mazad/internal/expand"

// SearchResult represents a single search hit.
type SearchResult struct {
	Listing *Listing `json:"listing"`
	Score   float64  `json:"score"`
	Rank    int      `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
	// Expanded is the synonym expansion the search ran with.
	Expanded *expand.ExpandedQuery `json:"expanded,omitempty"`
	// Suggestions contains "Did you mean?" spellings for terms the index does not know.
	Suggestions []string `json:"suggestions,omitempty"`
	// AutoFuzzy indicates that fuzzy search was enabled automatically because
	// the exact search returned no results.
	AutoFuzzy bool `json:"auto_fuzzy,omitempty"`
}

// Suggestion types.
const (
	SuggestionCategory = "category"
	SuggestionProduct  = "product"
)

// Suggestion is a search-box completion.
type Suggestion struct {
	Term     string `json:"term"`
	Category string `json:"category,omitempty"`
	Type     string `json:"type"`
}

// ImageSearchResponse is a search driven by image analysis.
type ImageSearchResponse struct {
	Analysis *expand.ProductAttributes `json:"analysis"`
	Query    string                    `json:"query"`
	*SearchResponse
}
