package expand

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestDefaultDictionaries(t *testing.T) {
	d := DefaultDictionaries()
	s := d.Stats()
	if s.Brands != 23 || s.Models != 14 || s.Categories != 7 {
		t.Errorf("Stats = %+v", s)
	}
	if d.Brands[0].Key != "omega" || d.Brands[len(d.Brands)-1].Key != "iphone" {
		t.Error("brand order not preserved")
	}
	for _, m := range d.Models {
		if _, ok := d.BrandByKey(m.Brand); !ok {
			t.Errorf("model %q names unknown brand %q", m.Key, m.Brand)
		}
	}
	if got := d.CategoryNames(); got[0] != "ساعات" || len(got) != 7 {
		t.Errorf("CategoryNames = %q", got)
	}
	if DefaultDictionaries() != d {
		t.Error("DefaultDictionaries should return one shared snapshot")
	}
}

func TestParseDictionaries_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty brand key", "brands:\n  - key: \"\"\n"},
		{"duplicate brand", "brands:\n  - key: a\n  - key: a\n"},
		{"empty alias", "brands:\n  - key: a\n    aliases: [\"  \"]\n"},
		{"alias of only tashkeel", "brands:\n  - key: a\n    aliases: [\"َ\"]\n"},
		{"model without brand", "brands:\n  - key: a\nmodels:\n  - key: m\n"},
		{"model with unknown brand", "brands:\n  - key: a\nmodels:\n  - key: m\n    brand: b\n"},
		{"duplicate model", "brands:\n  - key: a\nmodels:\n  - key: m\n    brand: a\n  - key: m\n    brand: a\n"},
		{"empty concept word", "concepts:\n  - word: \"\"\n    equivalents: [x]\n"},
		{"empty equivalent", "concepts:\n  - word: x\n    equivalents: [\"\"]\n"},
		{"duplicate concept", "concepts:\n  - word: x\n  - word: X\n"},
		{"empty keyword", "categories:\n  - name: c\n    keywords: [\"\"]\n"},
		{"duplicate category", "categories:\n  - name: c\n  - name: c\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDictionaries([]byte(tt.yaml))
			if !errors.Is(err, ErrInvalidDictionary) {
				t.Errorf("err = %v, want ErrInvalidDictionary", err)
			}
		})
	}
}

func TestParseDictionaries_Malformed(t *testing.T) {
	_, err := ParseDictionaries([]byte("brands: [unterminated"))
	if err == nil || errors.Is(err, ErrInvalidDictionary) {
		t.Errorf("err = %v, want a parse error", err)
	}
}

func TestLoadDictionaries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.yaml")
	data := []byte("brands:\n  - key: nokia\n    aliases: [\"نوكيا\"]\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := LoadDictionaries(path)
	if err != nil {
		t.Fatal(err)
	}
	q := New(WithDictionaries(d)).Expand("نوكيا 3310")
	if q.Brand != "nokia" {
		t.Errorf("Brand = %q, want nokia", q.Brand)
	}

	if _, err := LoadDictionaries(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSymmetricConcepts(t *testing.T) {
	d, err := ParseDictionaries([]byte(`
concepts:
  - word: jewelry
    equivalents: ["ذهب", "jewellery"]
  - word: gold
    equivalents: ["ذهب"]
`))
	if err != nil {
		t.Fatal(err)
	}

	directed := New(WithDictionaries(d)).Expand("ذهب")
	if slices.Contains(directed.AllTerms, "jewelry") {
		t.Error("directed lookup should not reach jewelry from ذهب")
	}

	sym := d.SymmetricConcepts()
	q := New(WithDictionaries(sym)).Expand("ذهب")
	hasAll(t, q.AllTerms, "jewelry", "gold")
	q = New(WithDictionaries(sym)).Expand("jewellery")
	hasAll(t, q.AllTerms, "jewelry")

	words := make([]string, len(sym.Concepts))
	for i, c := range sym.Concepts {
		words[i] = c.Word
	}
	want := []string{"jewelry", "gold", "ذهب", "jewellery"}
	if !slices.Equal(words, want) {
		t.Errorf("concept order = %q, want %q", words, want)
	}
	if len(d.Concepts) != 2 {
		t.Error("SymmetricConcepts mutated the receiver")
	}
}

func TestSymmetricConcepts_Default(t *testing.T) {
	sym := DefaultDictionaries().SymmetricConcepts()
	q := New(WithDictionaries(sym)).Expand("notebook")
	hasAll(t, q.AllTerms, "laptop", "لابتوب")
	if sym.Stats().Brands != DefaultDictionaries().Stats().Brands {
		t.Error("brands changed by concept closure")
	}
}

func TestExpander_ReloadFile(t *testing.T) {
	e := New()
	path := filepath.Join(t.TempDir(), "dict.yaml")
	if err := os.WriteFile(path, []byte("brands:\n  - key: nokia\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := e.ReloadFile(path, true); err != nil {
		t.Fatal(err)
	}
	if q := e.Expand("nokia"); q.Brand != "nokia" {
		t.Errorf("Brand = %q, want nokia", q.Brand)
	}

	if err := os.WriteFile(path, []byte("brands:\n  - key: nokia\n  - key: nokia\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := e.ReloadFile(path, false); err == nil {
		t.Fatal("expected error for invalid dictionary")
	}
	if q := e.Expand("nokia"); q.Brand != "nokia" {
		t.Error("failed reload replaced the snapshot")
	}
}
