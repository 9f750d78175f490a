package expand

import (
	"slices"
	"testing"
)

func TestFuzzyThreshold(t *testing.T) {
	tests := []struct{ n, want int }{
		{0, 1}, {3, 1}, {4, 1}, {7, 1}, {8, 2}, {11, 2}, {12, 3},
	}
	for _, tt := range tests {
		if got := fuzzyThreshold(tt.n); got != tt.want {
			t.Errorf("fuzzyThreshold(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestExpandFuzzy_Brand(t *testing.T) {
	e := New()
	tests := []struct {
		name  string
		query string
		brand string
	}{
		{"latin typo", "rolx", "rolex"},
		{"arabic dropped letter", "ستزن", "citizen"},
		{"typo among other words", "ساعة كاسو", "casio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := e.ExpandFuzzy(tt.query)
			if q.Brand != tt.brand {
				t.Fatalf("Brand = %q, want %q", q.Brand, tt.brand)
			}
			if !q.FuzzyBrand {
				t.Error("FuzzyBrand = false")
			}
			hasAll(t, q.AllTerms, tt.brand)
		})
	}
}

func TestExpandFuzzy_ExactMatchTakesPrecedence(t *testing.T) {
	q := New().ExpandFuzzy("rolex")
	if q.Brand != "rolex" || q.FuzzyBrand {
		t.Errorf("Brand = %q FuzzyBrand = %v, want exact rolex", q.Brand, q.FuzzyBrand)
	}
}

func TestExpandFuzzy_ModelBringsBrandTerms(t *testing.T) {
	q := New().ExpandFuzzy("submarinr")
	if q.Model != "submariner" || !q.FuzzyModel {
		t.Fatalf("Model = %q FuzzyModel = %v", q.Model, q.FuzzyModel)
	}
	if q.Brand != "rolex" {
		t.Errorf("Brand = %q, want rolex", q.Brand)
	}
	hasAll(t, q.AllTerms, "submariner", "سابمارينر", "rolex", "رولكس")
}

func TestExpandFuzzy_ShortTokensIgnored(t *testing.T) {
	q := New().ExpandFuzzy("bm")
	if q.Brand != "" || q.Model != "" {
		t.Errorf("short token matched: brand=%q model=%q", q.Brand, q.Model)
	}
}

func TestExpandFuzzy_LowestDistanceWins(t *testing.T) {
	d, err := ParseDictionaries([]byte(`
brands:
  - key: abcdefgh
  - key: abcdefgx
`))
	if err != nil {
		t.Fatal(err)
	}
	// Two edits from the first key, one from the second.
	q := New(WithDictionaries(d)).ExpandFuzzy("abcdefxx")
	if q.Brand != "abcdefgx" {
		t.Errorf("Brand = %q, want abcdefgx", q.Brand)
	}
	if slices.Contains(q.AllTerms, "abcdefgh") {
		t.Errorf("losing candidate added to %q", q.AllTerms)
	}
}
