package models

import "strings"

// Default and maximum page sizes.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// SearchQuery represents a listing search request with optional filters.
type SearchQuery struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
	// FuzzyEnabled turns on edit-distance matching for brands, models and
	// index terms. The engine enables it by itself when an exact search finds nothing.
	FuzzyEnabled bool `json:"fuzzy_enabled,omitempty"`

	Category    string   `json:"category,omitempty"`
	SaleTypes   []string `json:"sale_types,omitempty"`
	Conditions  []string `json:"conditions,omitempty"`
	Cities      []string `json:"cities,omitempty"`
	MinPrice    *float64 `json:"min_price,omitempty"`
	MaxPrice    *float64 `json:"max_price,omitempty"`
	IncludeSold bool     `json:"include_sold,omitempty"`
}

// Validate ensures the search query has valid fields and sets defaults.
// Returns an error if the query is blank; otherwise clamps limit and offset.
func (q *SearchQuery) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return ErrEmptyQuery
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return ErrInvalidPrice
	}
	return nil
}

// Matches reports whether l passes every filter set on q. Condition and city
// filters match case-insensitive substrings.
func (q *SearchQuery) Matches(l *Listing) bool {
	if l.IsDeleted {
		return false
	}
	if !q.IncludeSold && !l.Available() {
		return false
	}
	if q.Category != "" && l.Category != q.Category {
		return false
	}
	if len(q.SaleTypes) > 0 && !containsFold(q.SaleTypes, l.SaleType) {
		return false
	}
	if len(q.Conditions) > 0 && !anySubstring(q.Conditions, l.Condition) {
		return false
	}
	if len(q.Cities) > 0 && !anySubstring(q.Cities, l.City) {
		return false
	}
	price := l.EffectivePrice()
	if q.MinPrice != nil && price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && price > *q.MaxPrice {
		return false
	}
	return true
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func anySubstring(needles []string, haystack string) bool {
	h := strings.ToLower(haystack)
	for _, n := range needles {
		if n != "" && strings.Contains(h, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
