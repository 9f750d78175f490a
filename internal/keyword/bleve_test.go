package keyword

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/hyperjump/mazad/internal/expand"
	"github.com/hyperjump/mazad/internal/models"
)

func newTestIndex(t *testing.T, listings ...*models.Listing) *BleveIndex {
	t.Helper()
	idx, err := NewMemoryBleveIndex()
	if err != nil {
		t.Fatalf("NewMemoryBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	if len(listings) > 0 {
		if err := idx.IndexBatch(context.Background(), listings); err != nil {
			t.Fatalf("IndexBatch: %v", err)
		}
	}
	return idx
}

func fixtures() []*models.Listing {
	return []*models.Listing{
		{ID: "omega", Title: "ساعة أوميغا سيماستر", Brand: "omega", Category: "ساعات", Price: 900},
		{ID: "car", Title: "سيارة تويوتا كامري", Category: "سيارات", Price: 12000},
		{ID: "phone", Title: "Samsung smartphone", Description: "like new", Category: "هواتف", Price: 300},
		{ID: "rolex", Title: "Rolex Daytona", Brand: "rolex", Category: "ساعات", Tags: []string{"luxury"}, Price: 20000},
	}
}

func resultIDs(rs []*KeywordResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestBleveIndex_Search(t *testing.T) {
	idx := newTestIndex(t, fixtures()...)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"brand alias in title", "اوميغا", "omega"},
		{"arabic spelling variant via normalized field", "سياره", "car"},
		{"concept synonym", "هاتف", "phone"},
		{"latin brand", "ROLEX", "rolex"},
		{"tag", "luxury", "rolex"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := idx.Search(ctx, expand.Expand(tt.query), 10, nil)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if !slices.Contains(resultIDs(results), tt.want) {
				t.Errorf("Search(%q) = %v, want %q", tt.query, resultIDs(results), tt.want)
			}
		})
	}
}

func TestBleveIndex_SearchReturnsStoredFields(t *testing.T) {
	idx := newTestIndex(t, fixtures()...)
	results, err := idx.Search(context.Background(), expand.Expand("daytona"), 10, &SearchOptions{TitleBoost: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].ID != "rolex" {
		t.Fatalf("got %v", resultIDs(results))
	}
	if results[0].Title != "Rolex Daytona" || results[0].Category != "ساعات" {
		t.Errorf("stored fields = %q / %q", results[0].Title, results[0].Category)
	}
}

func TestBleveIndex_SearchFuzzy(t *testing.T) {
	idx := newTestIndex(t, fixtures()...)
	ctx := context.Background()
	q := expand.Expand("daytonna")

	exact, err := idx.Search(ctx, q, 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(exact) != 0 {
		t.Errorf("exact search matched %v", resultIDs(exact))
	}

	fuzzy, err := idx.Search(ctx, q, 10, &SearchOptions{FuzzyEnabled: true})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(resultIDs(fuzzy), "rolex") {
		t.Errorf("fuzzy search = %v, want rolex", resultIDs(fuzzy))
	}
}

func TestBleveIndex_SearchEmptyQuery(t *testing.T) {
	idx := newTestIndex(t, fixtures()...)
	results, err := idx.Search(context.Background(), expand.Expand("  "), 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("got %v", resultIDs(results))
	}
}

func TestBleveIndex_Delete(t *testing.T) {
	idx := newTestIndex(t, fixtures()...)
	ctx := context.Background()

	if err := idx.Delete(ctx, "rolex"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	results, err := idx.Search(ctx, expand.Expand("daytona"), 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results after delete, got %v", resultIDs(results))
	}
	n, _ := idx.DocCount()
	if n != 3 {
		t.Errorf("DocCount = %d, want 3", n)
	}
}

func TestBleveIndex_IndexReplaces(t *testing.T) {
	idx := newTestIndex(t, fixtures()...)
	ctx := context.Background()

	if err := idx.Index(ctx, &models.Listing{ID: "rolex", Title: "Rolex Submariner"}); err != nil {
		t.Fatal(err)
	}
	results, _ := idx.Search(ctx, expand.Expand("daytona"), 10, nil)
	if len(results) != 0 {
		t.Errorf("old title still indexed: %v", resultIDs(results))
	}
	n, _ := idx.DocCount()
	if n != 4 {
		t.Errorf("DocCount = %d, want 4", n)
	}
}

func TestBleveIndex_TermDictionary(t *testing.T) {
	idx := newTestIndex(t, fixtures()...)

	terms, err := idx.GetAllTerms()
	if err != nil {
		t.Fatal(err)
	}
	// Stored in normalized form.
	if !slices.Contains(terms, "سیاره") {
		t.Errorf("normalized term missing from %q", terms)
	}
	freq, err := idx.GetTermFrequency("ساعات")
	if err != nil {
		t.Fatal(err)
	}
	if freq != 2 {
		t.Errorf("GetTermFrequency(ساعات) = %d, want 2", freq)
	}
	ok, _ := idx.ContainsTerm("daytona")
	if !ok {
		t.Error("ContainsTerm(daytona) = false")
	}
}

func TestBleveIndex_ReopenKeepsListings(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "sub", "bleve")
	ctx := context.Background()

	idx1, err := NewBleveIndex(indexPath)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	if err := idx1.Index(ctx, &models.Listing{ID: "l1", Title: "uniqueword"}); err != nil {
		t.Fatal(err)
	}
	if err := idx1.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(indexPath); err != nil {
		t.Fatalf("index path should exist: %v", err)
	}

	idx2, err := NewBleveIndex(indexPath)
	if err != nil {
		t.Fatalf("NewBleveIndex (open existing): %v", err)
	}
	defer func() { _ = idx2.Close() }()

	results, err := idx2.Search(ctx, expand.Expand("uniqueword"), 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results after reopen, want 1", len(results))
	}
}
