package keyword

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/hyperjump/mazad/internal/expand"
	"github.com/hyperjump/mazad/pkg/utils"
)

// Suggestion represents a spelling suggestion with its score.
type Suggestion struct {
	Term      string  // The suggested term
	Distance  int     // Edit distance from the original term
	Frequency int     // Document frequency (popularity)
	Score     float64 // Combined score for ranking
}

// SpellCheckResult contains the result of spell checking a query.
type SpellCheckResult struct {
	OriginalQuery   string
	CorrectedQuery  string
	Suggestions     []Suggestion // Suggestions for each misspelled term
	HasCorrections  bool
	MisspelledTerms []string
}

// SpellChecker suggests index terms close to unknown query terms. Input is
// Arabic-normalized before lookup, matching how the index stores its vocabulary.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	maxSuggestions int
	minTermLen     int
	distance       func(a, b string) int

	mu         sync.RWMutex
	termsCache []string
	termSet    map[string]struct{}
	cacheValid bool
}

// SpellCheckerOption is a functional option for configuring SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency sets the minimum document frequency for suggestions.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions sets the maximum number of suggestions to return per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// WithTranspositions counts swapping two adjacent characters as a single
// edit, so "omgea" is one edit away from "omega".
func WithTranspositions() SpellCheckerOption {
	return func(s *SpellChecker) {
		s.distance = utils.DamerauLevenshteinDistance
	}
}

// NewSpellChecker creates a new SpellChecker with the given dictionary.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
		minTermLen:     3,
		distance:       utils.LevenshteinDistance,
		termSet:        make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RefreshCache reloads the term cache from the dictionary.
func (s *SpellChecker) RefreshCache() error {
	terms, err := s.dictionary.GetAllTerms()
	if err != nil {
		return err
	}

	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[strings.ToLower(t)] = struct{}{}
	}

	s.mu.Lock()
	s.termsCache = terms
	s.termSet = set
	s.cacheValid = true
	s.mu.Unlock()
	return nil
}

// Invalidate forces the next lookup to reload the vocabulary. Call it after
// the index changes.
func (s *SpellChecker) Invalidate() {
	s.mu.Lock()
	s.cacheValid = false
	s.mu.Unlock()
}

func (s *SpellChecker) ensureCache() error {
	s.mu.RLock()
	valid := s.cacheValid
	s.mu.RUnlock()
	if valid {
		return nil
	}
	return s.RefreshCache()
}

// Check checks a query for spelling errors and returns suggestions. Terms
// shorter than three runes are never corrected.
func (s *SpellChecker) Check(query string) (*SpellCheckResult, error) {
	if err := s.ensureCache(); err != nil {
		return nil, err
	}

	terms := strings.Fields(normalize(query))
	result := &SpellCheckResult{
		OriginalQuery:   query,
		Suggestions:     make([]Suggestion, 0),
		MisspelledTerms: make([]string, 0),
	}

	corrected := make([]string, 0, len(terms))
	for _, term := range terms {
		if !s.isMisspelled(term) || utf8.RuneCountInString(term) < s.minTermLen {
			corrected = append(corrected, term)
			continue
		}
		suggestions := s.suggest(term)
		if len(suggestions) == 0 {
			corrected = append(corrected, term)
			continue
		}
		result.HasCorrections = true
		result.MisspelledTerms = append(result.MisspelledTerms, term)
		result.Suggestions = append(result.Suggestions, suggestions...)
		corrected = append(corrected, suggestions[0].Term)
	}

	result.CorrectedQuery = strings.Join(corrected, " ")
	return result, nil
}

// Suggest returns spelling suggestions for a single term.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	if err := s.ensureCache(); err != nil {
		return nil
	}
	return s.suggest(normalize(term))
}

func (s *SpellChecker) suggest(term string) []Suggestion {
	s.mu.RLock()
	terms := s.termsCache
	s.mu.RUnlock()

	termLen := utf8.RuneCountInString(term)
	suggestions := make([]Suggestion, 0)
	for _, dictTerm := range terms {
		candidate := strings.ToLower(dictTerm)
		if candidate == term {
			continue
		}
		// Length difference is a lower bound on edit distance.
		if diff := utf8.RuneCountInString(candidate) - termLen; diff > s.maxDistance || -diff > s.maxDistance {
			continue
		}
		distance := s.distance(term, candidate)
		if distance > s.maxDistance {
			continue
		}
		freq, err := s.dictionary.GetTermFrequency(dictTerm)
		if err != nil || freq < s.minFreq {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Term:      dictTerm,
			Distance:  distance,
			Frequency: freq,
			Score:     float64(freq) / float64(distance+1),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Term < suggestions[j].Term
	})
	if len(suggestions) > s.maxSuggestions {
		suggestions = suggestions[:s.maxSuggestions]
	}
	return suggestions
}

// IsMisspelled reports whether term is absent from the index vocabulary.
func (s *SpellChecker) IsMisspelled(term string) bool {
	if err := s.ensureCache(); err != nil {
		return false
	}
	return s.isMisspelled(normalize(term))
}

func (s *SpellChecker) isMisspelled(term string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.termSet[term]
	return !exists
}

// GetTopSuggestions returns up to n corrected queries for query. It is empty
// when every term is known or nothing close enough exists.
func (s *SpellChecker) GetTopSuggestions(query string, n int) []string {
	if n <= 0 {
		return nil
	}
	result, err := s.Check(query)
	if err != nil || !result.HasCorrections {
		return nil
	}
	suggestions := []string{result.CorrectedQuery}
	// Alternatives for single-term queries.
	if len(result.MisspelledTerms) == 1 && len(strings.Fields(result.CorrectedQuery)) == 1 {
		for _, sg := range result.Suggestions[1:] {
			suggestions = append(suggestions, sg.Term)
		}
	}
	if len(suggestions) > n {
		suggestions = suggestions[:n]
	}
	return suggestions
}

func normalize(s string) string {
	return expand.NormalizeArabic(strings.ToLower(s))
}
