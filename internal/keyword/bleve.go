package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/mazad/internal/expand"
	"github.com/hyperjump/mazad/internal/models"
)

const (
	fieldTitle      = "title"
	fieldBrand      = "brand"
	fieldCategory   = "category"
	fieldNormalized = "normalized"

	defaultFuzziness = 1
	minFuzzyTermLen  = 3
)

// listingDoc is the denormalized form of a listing stored in the index.
type listingDoc struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	// Normalized holds the Arabic-normalized text of every searchable field
	// so that spelling variants of the same word meet.
	Normalized string  `json:"normalized"`
	City       string  `json:"city"`
	Condition  string  `json:"condition"`
	SaleType   string  `json:"sale_type"`
	Price      float64 `json:"price"`
}

func newListingDoc(l *models.Listing) *listingDoc {
	text := strings.Join(append([]string{l.Title, l.Description, l.Brand, l.Category}, l.Tags...), " ")
	return &listingDoc{
		Title:       l.Title,
		Description: l.Description,
		Brand:       l.Brand,
		Category:    l.Category,
		Tags:        l.Tags,
		Normalized:  expand.NormalizeArabic(strings.ToLower(text)),
		City:        l.City,
		Condition:   l.Condition,
		SaleType:    l.SaleType,
		Price:       l.EffectivePrice(),
	}
}

// BleveIndex implements ListingIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// If the path already exists, the existing index is opened and reused.
// If you change the index mapping in code, remove the index directory to force a full re-index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, listingMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemoryBleveIndex creates an index that lives only in memory.
func NewMemoryBleveIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(listingMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func listingMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Standard analyzer: unicode tokenizer and lowercase, no stemming. Arabic
	// words pass through intact.
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	for _, f := range []string{fieldTitle, "description", fieldBrand, fieldCategory, "tags", fieldNormalized} {
		docMapping.AddFieldMappingsAt(f, text)
	}

	kw := bleve.NewKeywordFieldMapping()
	kw.IncludeInAll = false
	for _, f := range []string{"city", "condition", "sale_type"} {
		docMapping.AddFieldMappingsAt(f, kw)
	}
	docMapping.AddFieldMappingsAt("price", bleve.NewNumericFieldMapping())

	im.AddDocumentMapping("listing", docMapping)
	im.DefaultType = "listing"
	im.DefaultMapping = docMapping
	return im
}

// Index upserts a listing by its ID.
func (b *BleveIndex) Index(ctx context.Context, l *models.Listing) error {
	return b.index.Index(l.ID, newListingDoc(l))
}

// IndexBatch upserts listings in a single Bleve batch.
func (b *BleveIndex) IndexBatch(ctx context.Context, ls []*models.Listing) error {
	batch := b.index.NewBatch()
	for _, l := range ls {
		if err := batch.Index(l.ID, newListingDoc(l)); err != nil {
			return fmt.Errorf("batch index %s: %w", l.ID, err)
		}
	}
	return b.index.Batch(batch)
}

// Search runs a disjunction with one clause per expanded term and returns up
// to limit hits. Title matches are boosted by opts.TitleBoost, and a detected
// brand gets its own clause. In fuzzy mode each query token of three or more
// runes also matches index terms within opts.Fuzziness edits.
func (b *BleveIndex) Search(ctx context.Context, q *expand.ExpandedQuery, limit int, opts *SearchOptions) ([]*KeywordResult, error) {
	if q == nil || q.Empty() {
		return nil, nil
	}
	titleBoost := 1.0
	fuzzy := false
	fuzziness := defaultFuzziness
	if opts != nil {
		if opts.TitleBoost > 0 {
			titleBoost = opts.TitleBoost
		}
		fuzzy = opts.FuzzyEnabled
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
	}

	clauses := buildTermClauses(q.AllTerms, titleBoost)
	if q.Brand != "" {
		bq := bleve.NewMatchQuery(q.Brand)
		bq.SetField(fieldBrand)
		bq.SetBoost(2)
		clauses = append(clauses, bq)
	}
	if fuzzy {
		clauses = append(clauses, buildFuzzyClauses(q.Tokens, fuzziness)...)
	}
	if len(clauses) == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(clauses...))
	req.Size = limit
	req.Fields = []string{fieldTitle, fieldCategory}
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*KeywordResult, len(results.Hits))
	for i, hit := range results.Hits {
		r := &KeywordResult{ID: hit.ID, Score: hit.Score}
		r.Title, _ = hit.Fields[fieldTitle].(string)
		r.Category, _ = hit.Fields[fieldCategory].(string)
		out[i] = r
	}
	return out, nil
}

// buildTermClauses matches each term against the full text, the title and
// the normalized field. Multi-word terms are phrase matches.
func buildTermClauses(terms []string, titleBoost float64) []blevequery.Query {
	clauses := make([]blevequery.Query, 0, len(terms)*3)
	for _, term := range terms {
		if strings.TrimSpace(term) == "" {
			continue
		}
		normalized := expand.NormalizeArabic(term)
		if strings.Contains(term, " ") {
			all := bleve.NewMatchPhraseQuery(term)
			title := bleve.NewMatchPhraseQuery(term)
			title.SetField(fieldTitle)
			title.SetBoost(titleBoost)
			norm := bleve.NewMatchPhraseQuery(normalized)
			norm.SetField(fieldNormalized)
			clauses = append(clauses, all, title, norm)
			continue
		}
		all := bleve.NewMatchQuery(term)
		title := bleve.NewMatchQuery(term)
		title.SetField(fieldTitle)
		title.SetBoost(titleBoost)
		norm := bleve.NewMatchQuery(normalized)
		norm.SetField(fieldNormalized)
		clauses = append(clauses, all, title, norm)
	}
	return clauses
}

func buildFuzzyClauses(tokens []string, fuzziness int) []blevequery.Query {
	var clauses []blevequery.Query
	for _, tok := range tokens {
		if len([]rune(tok)) < minFuzzyTermLen {
			continue
		}
		fq := bleve.NewFuzzyQuery(tok)
		fq.SetFuzziness(fuzziness)
		fq.SetField(fieldNormalized)
		clauses = append(clauses, fq)
	}
	return clauses
}

// Delete removes a listing from the index. Deleting an unknown ID is not an error.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of listings in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// GetAllTerms returns the vocabulary of the normalized field. Query tokens are
// normalized the same way, so spell checking compares like with like.
func (b *BleveIndex) GetAllTerms() ([]string, error) {
	dict, err := b.index.FieldDict(fieldNormalized)
	if err != nil {
		return nil, fmt.Errorf("failed to read term dictionary: %w", err)
	}
	defer dict.Close()

	terms := make([]string, 0)
	for {
		entry, err := dict.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to read term dictionary: %w", err)
		}
		if entry == nil {
			break
		}
		terms = append(terms, entry.Term)
	}
	return terms, nil
}

// GetTermFrequency returns the number of listings containing term in the normalized field.
func (b *BleveIndex) GetTermFrequency(term string) (int, error) {
	tq := bleve.NewTermQuery(term)
	tq.SetField(fieldNormalized)
	req := bleve.NewSearchRequest(tq)
	req.Size = 0
	results, err := b.index.Search(req)
	if err != nil {
		return 0, fmt.Errorf("failed to search for term frequency: %w", err)
	}
	return int(results.Total), nil
}

// ContainsTerm checks if a term exists in the index.
func (b *BleveIndex) ContainsTerm(term string) (bool, error) {
	freq, err := b.GetTermFrequency(term)
	if err != nil {
		return false, err
	}
	return freq > 0, nil
}
