package search

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hyperjump/mazad/internal/config"
	"github.com/hyperjump/mazad/internal/expand"
	"github.com/hyperjump/mazad/internal/indexsync"
	"github.com/hyperjump/mazad/internal/keyword"
	"github.com/hyperjump/mazad/internal/models"
	"github.com/hyperjump/mazad/internal/storage"
)

const corpusSearchLimit = 30

// corpusCase is a query and the listing IDs of which at least one must be returned.
type corpusCase struct {
	description string
	query       string
	expected    []string
}

func corpusListings() []*models.Listing {
	listings := []*models.Listing{
		{ID: "rolex-sub", Title: "Rolex Submariner date", Brand: "rolex", Category: "ساعات", Price: 11000},
		{ID: "rolex-day", Title: "ساعة رولكس دايتونا", Brand: "rolex", Category: "ساعات", Price: 25000},
		{ID: "omega-sm", Title: "ساعة اوميغا سيماستر", Brand: "omega", Category: "ساعات", Price: 4200},
		{ID: "casio", Title: "Casio G-Shock digital watch", Brand: "casio", Category: "ساعات", Price: 90},
		{ID: "samsung", Title: "موبايل سامسونج جالكسي", Brand: "samsung", Category: "إلكترونيات", Price: 350},
		{ID: "iphone", Title: "iPhone 15 Pro", Brand: "apple", Category: "إلكترونيات", Price: 1100},
		{ID: "dell", Title: "لابتوب ديل", Description: "رام 16 كيكا", Category: "إلكترونيات", Price: 600},
		{ID: "camry", Title: "Toyota Camry 2018 car", Brand: "toyota", Category: "سيارات", Price: 15000},
		{ID: "lv", Title: "Louis Vuitton bag", Brand: "louis vuitton", Category: "ملابس", Price: 1800},
		{ID: "nike", Title: "Nike Air Max shoes", Brand: "nike", Category: "ملابس", Price: 120},
		{ID: "ring", Title: "خاتم ذهب عيار 21", Category: "مجوهرات", Price: 700},
	}
	// Filler so relevance has to beat noise.
	for i := 0; i < 40; i++ {
		listings = append(listings, &models.Listing{
			ID:       fmt.Sprintf("filler-%02d", i),
			Title:    fmt.Sprintf("كرسي خشب مستعمل %d", i),
			Category: "تحف وأثاث",
			Price:    float64(10 + i),
		})
	}
	for _, l := range listings {
		l.SaleType = models.SaleTypeFixed
		l.IsActive = true
		l.QuantityAvailable = 1
	}
	return listings
}

func corpusCases() []corpusCase {
	return []corpusCase{
		{"arabic brand alias finds latin title", "رولكس", []string{"rolex-sub", "rolex-day"}},
		{"latin brand finds arabic title", "omega", []string{"omega-sm"}},
		{"arabic model alias", "سيماستر", []string{"omega-sm"}},
		{"latin model finds arabic title", "daytona", []string{"rolex-day"}},
		{"concept equivalent", "phone", []string{"samsung"}},
		{"arabic concept finds latin title", "سيارة", []string{"camry"}},
		{"arabic brand alias toyota", "تويوتا", []string{"camry"}},
		{"arabic brand alias iphone", "ايفون", []string{"iphone"}},
		{"latin concept finds arabic title", "laptop", []string{"dell"}},
		{"arabic concept bag", "حقيبة", []string{"lv"}},
		{"arabic brand alias nike", "نايكي", []string{"nike"}},
		{"gold jewelry", "مجوهرات", []string{"ring"}},
		{"typo handled by automatic fuzzy", "rolx", []string{"rolex-sub", "rolex-day"}},
	}
}

func newCorpusEngine(t testing.TB) *Engine {
	t.Helper()
	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "corpus.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	index, err := keyword.NewMemoryBleveIndex()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = index.Close() })

	for _, l := range corpusListings() {
		if err := store.CreateListing(ctx, l); err != nil {
			t.Fatalf("create listing %q: %v", l.ID, err)
		}
	}
	if _, err := indexsync.NewSyncer(store, index, indexsync.WithBatchSize(16)).BulkSync(ctx); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return NewEngine(store, index, expand.New(), &cfg.Search, WithSpellChecker(keyword.NewSpellChecker(index)))
}

func TestCorpus_SearchReturnsExpectedListings(t *testing.T) {
	engine := newCorpusEngine(t)
	ctx := context.Background()

	for _, tc := range corpusCases() {
		t.Run(tc.description, func(t *testing.T) {
			resp, err := engine.Search(ctx, &models.SearchQuery{Query: tc.query, Limit: corpusSearchLimit})
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			ids := resultIDs(resp)
			if !containsAny(ids, tc.expected) {
				t.Errorf("query %q: expected one of %v, got %d results (ids: %v)", tc.query, tc.expected, len(ids), ids)
			}
			for _, id := range ids {
				if len(id) > 7 && id[:7] == "filler-" {
					t.Errorf("query %q returned unrelated listing %s", tc.query, id)
				}
			}
		})
	}
}

func containsAny(got, expected []string) bool {
	set := make(map[string]bool, len(got))
	for _, id := range got {
		set[id] = true
	}
	for _, id := range expected {
		if set[id] {
			return true
		}
	}
	return false
}

func BenchmarkEngineSearch(b *testing.B) {
	engine := newCorpusEngine(b)
	ctx := context.Background()
	queries := []string{"ساعة رولكس", "omega seamaster", "موبايل", "rolx"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q := &models.SearchQuery{Query: queries[i%len(queries)], Limit: 10}
		if _, err := engine.Search(ctx, q); err != nil {
			b.Fatal(err)
		}
	}
}
