// Package expand turns a raw marketplace search query into an expanded query:
// Arabic-normalized text, the detected brand, model and category, every
// synonym worth searching for, and an OR-joined tsquery string.
//
// Detection is first-match-wins over ordered dictionaries. Dictionaries are
// immutable snapshots; an Expander swaps them atomically on reload, so Expand
// is safe to call from any number of goroutines.
//
// Concept words are indexed under their lowercased spelling and also under
// their Arabic-normalized form, so a word written with unfolded letters
// (أ, ة, ی) still matches the normalized tokens of a query.
package expand

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ExpandedQuery is the result of expanding one query. It is built fresh on
// every call and owned by the caller.
type ExpandedQuery struct {
	Raw        string   `json:"raw"`
	Normalized string   `json:"normalized"`
	Tokens     []string `json:"tokens"`
	// AllTerms is the lowercased query plus every matched synonym, in
	// insertion order without duplicates.
	AllTerms []string `json:"all_terms"`
	Brand    string   `json:"brand,omitempty"`
	Model    string   `json:"model,omitempty"`
	Category string   `json:"category,omitempty"`
	TSQuery  string   `json:"tsquery"`

	// FuzzyBrand and FuzzyModel report detections that needed an edit-distance match.
	FuzzyBrand bool `json:"fuzzy_brand,omitempty"`
	FuzzyModel bool `json:"fuzzy_model,omitempty"`
}

// Head returns at most n leading terms.
func (q *ExpandedQuery) Head(n int) []string {
	if n < 0 || n >= len(q.AllTerms) {
		return q.AllTerms
	}
	return q.AllTerms[:n]
}

// Empty reports whether the query had no content after trimming.
func (q *ExpandedQuery) Empty() bool {
	return q.Raw == ""
}

// Expander expands queries against a swappable dictionary snapshot.
type Expander struct {
	dict   atomic.Pointer[Dictionaries]
	logger *zap.Logger
}

// Option configures an Expander.
type Option func(*Expander)

// WithLogger sets the logger used for reload events.
func WithLogger(l *zap.Logger) Option {
	return func(e *Expander) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDictionaries replaces the built-in dictionaries.
func WithDictionaries(d *Dictionaries) Option {
	return func(e *Expander) {
		if d != nil {
			e.dict.Store(d)
		}
	}
}

// New returns an Expander using the built-in dictionaries unless
// WithDictionaries is given.
func New(opts ...Option) *Expander {
	e := &Expander{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.dict.Load() == nil {
		e.dict.Store(DefaultDictionaries())
	}
	return e
}

var defaultExpander = sync.OnceValue(func() *Expander { return New() })

// Expand expands raw with the built-in dictionaries.
func Expand(raw string) *ExpandedQuery {
	return defaultExpander().Expand(raw)
}

// Dictionaries returns the snapshot currently in use.
func (e *Expander) Dictionaries() *Dictionaries {
	return e.dict.Load()
}

// Reload swaps in a new snapshot. Calls already running keep the old one.
func (e *Expander) Reload(d *Dictionaries) {
	if d == nil {
		return
	}
	e.dict.Store(d)
	s := d.Stats()
	e.logger.Info("dictionaries reloaded",
		zap.Int("brands", s.Brands),
		zap.Int("models", s.Models),
		zap.Int("concepts", s.Concepts),
		zap.Int("categories", s.Categories),
	)
}

// ReloadFile loads path and swaps it in. On error the current snapshot stays.
func (e *Expander) ReloadFile(path string, symmetric bool) error {
	d, err := LoadDictionaries(path)
	if err != nil {
		return fmt.Errorf("reload %s: %w", path, err)
	}
	if symmetric {
		d = d.SymmetricConcepts()
	}
	e.Reload(d)
	return nil
}

// Expand runs the exact-match detectors only.
func (e *Expander) Expand(raw string) *ExpandedQuery {
	return e.expand(raw, false)
}

// ExpandFuzzy additionally tries edit-distance matching for brand and model
// when the exact passes find nothing.
func (e *Expander) ExpandFuzzy(raw string) *ExpandedQuery {
	return e.expand(raw, true)
}

func (e *Expander) expand(rawQuery string, fuzzy bool) *ExpandedQuery {
	raw := strings.TrimSpace(rawQuery)
	normalized := normalizeTerm(raw)
	x := &expansion{
		dict:       e.dict.Load(),
		normalized: normalized,
		tokens:     strings.Fields(normalized),
		terms:      newTermSet(),
	}
	x.terms.add(strings.ToLower(raw))

	// Order matters: model detection only backfills an unset brand.
	if !x.detectBrandInQuery() && !x.detectBrandInTokens() && fuzzy {
		x.detectBrandFuzzy()
	}
	if !x.detectModelInTokens() && !x.detectModelInQuery() && fuzzy {
		x.detectModelFuzzy()
	}
	x.expandConcepts()
	x.detectCategory()

	terms := x.terms.order
	if terms == nil {
		terms = []string{}
	}
	return &ExpandedQuery{
		Raw:        raw,
		Normalized: normalized,
		Tokens:     x.tokens,
		AllTerms:   terms,
		Brand:      x.brand,
		Model:      x.model,
		Category:   x.category,
		TSQuery:    BuildTSQuery(terms, raw),
		FuzzyBrand: x.fuzzyBrand,
		FuzzyModel: x.fuzzyModel,
	}
}
