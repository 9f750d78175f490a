package expand

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed dictionaries.yaml
var defaultDictionaryData []byte

// ErrInvalidDictionary is returned when dictionary data violates a load-time invariant.
var ErrInvalidDictionary = errors.New("invalid dictionary")

// Brand is a canonical brand key with its alternate spellings.
type Brand struct {
	Key     string   `yaml:"key" json:"key"`
	Aliases []string `yaml:"aliases" json:"aliases"`

	// forms holds the normalized key followed by the normalized aliases.
	forms []string
}

// Model is a product line that belongs to exactly one brand.
type Model struct {
	Key     string   `yaml:"key" json:"key"`
	Brand   string   `yaml:"brand" json:"brand"`
	Aliases []string `yaml:"aliases" json:"aliases"`

	keyForm string
	forms   []string
}

// Concept maps a generic noun to its equivalents in other languages.
// Edges are directed; see Dictionaries.SymmetricConcepts.
type Concept struct {
	Word        string   `yaml:"word" json:"word"`
	Equivalents []string `yaml:"equivalents" json:"equivalents"`
}

// Category is a canonical category name and the keywords that imply it.
type Category struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`

	forms []string
}

// Dictionaries is an immutable snapshot of every lookup table. Order within
// each table decides first-match-wins detection.
type Dictionaries struct {
	Brands     []Brand    `yaml:"brands" json:"brands"`
	Models     []Model    `yaml:"models" json:"models"`
	Concepts   []Concept  `yaml:"concepts" json:"concepts"`
	Categories []Category `yaml:"categories" json:"categories"`

	brandIndex   map[string]int
	conceptIndex map[string][]string
}

// DictionaryStats summarizes table sizes.
type DictionaryStats struct {
	Brands     int `json:"brands"`
	Models     int `json:"models"`
	Concepts   int `json:"concepts"`
	Categories int `json:"categories"`
}

var defaultDictionaries = sync.OnceValue(func() *Dictionaries {
	d, err := ParseDictionaries(defaultDictionaryData)
	if err != nil {
		panic(fmt.Sprintf("expand: built-in dictionaries: %v", err))
	}
	return d
})

// DefaultDictionaries returns the compiled-in dictionaries.
func DefaultDictionaries() *Dictionaries {
	return defaultDictionaries()
}

// LoadDictionaries reads and validates a YAML dictionary file.
func LoadDictionaries(path string) (*Dictionaries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionaries: %w", err)
	}
	return ParseDictionaries(data)
}

// ParseDictionaries decodes YAML dictionary data and validates it.
func ParseDictionaries(data []byte) (*Dictionaries, error) {
	var d Dictionaries
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse dictionaries: %w", err)
	}
	if err := d.compile(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Stats returns the number of entries per table.
func (d *Dictionaries) Stats() DictionaryStats {
	return DictionaryStats{
		Brands:     len(d.Brands),
		Models:     len(d.Models),
		Concepts:   len(d.Concepts),
		Categories: len(d.Categories),
	}
}

// BrandByKey returns the brand entry for key.
func (d *Dictionaries) BrandByKey(key string) (Brand, bool) {
	i, ok := d.brandIndex[key]
	if !ok {
		return Brand{}, false
	}
	return d.Brands[i], true
}

// CategoryNames returns the category names in dictionary order.
func (d *Dictionaries) CategoryNames() []string {
	names := make([]string, len(d.Categories))
	for i, c := range d.Categories {
		names[i] = c.Name
	}
	return names
}

// SymmetricConcepts returns a copy whose concept graph is closed in both
// directions: for every edge a -> b the copy also holds b -> a. Existing
// entries keep their position; words that only appeared as equivalents are
// appended in first-seen order.
func (d *Dictionaries) SymmetricConcepts() *Dictionaries {
	order := make([]string, 0, len(d.Concepts))
	edges := make(map[string][]string)
	addEdge := func(from, to string) {
		if from == to {
			return
		}
		list, ok := edges[from]
		if !ok {
			order = append(order, from)
		}
		if !slices.Contains(list, to) {
			edges[from] = append(list, to)
		}
	}
	for _, c := range d.Concepts {
		if _, ok := edges[c.Word]; !ok {
			order = append(order, c.Word)
			edges[c.Word] = nil
		}
		for _, eq := range c.Equivalents {
			addEdge(c.Word, eq)
		}
	}
	for _, c := range d.Concepts {
		for _, eq := range c.Equivalents {
			addEdge(eq, c.Word)
		}
	}

	out := &Dictionaries{
		Brands:     slices.Clone(d.Brands),
		Models:     slices.Clone(d.Models),
		Categories: slices.Clone(d.Categories),
		Concepts:   make([]Concept, 0, len(order)),
	}
	for _, w := range order {
		out.Concepts = append(out.Concepts, Concept{Word: w, Equivalents: edges[w]})
	}
	if err := out.compile(); err != nil {
		// The input already passed compile and closure adds no empty terms.
		panic(fmt.Sprintf("expand: symmetric closure: %v", err))
	}
	return out
}

// compile validates the tables and precomputes normalized forms.
func (d *Dictionaries) compile() error {
	d.brandIndex = make(map[string]int, len(d.Brands))
	for i := range d.Brands {
		b := &d.Brands[i]
		keyForm := normalizeTerm(b.Key)
		if keyForm == "" {
			return fmt.Errorf("%w: brand %d has an empty key", ErrInvalidDictionary, i)
		}
		if _, dup := d.brandIndex[b.Key]; dup {
			return fmt.Errorf("%w: duplicate brand %q", ErrInvalidDictionary, b.Key)
		}
		d.brandIndex[b.Key] = i
		forms, err := aliasForms(keyForm, b.Aliases)
		if err != nil {
			return fmt.Errorf("%w: brand %q: %v", ErrInvalidDictionary, b.Key, err)
		}
		b.forms = forms
	}

	seenModels := make(map[string]struct{}, len(d.Models))
	for i := range d.Models {
		m := &d.Models[i]
		m.keyForm = normalizeTerm(m.Key)
		if m.keyForm == "" {
			return fmt.Errorf("%w: model %d has an empty key", ErrInvalidDictionary, i)
		}
		if _, dup := seenModels[m.Key]; dup {
			return fmt.Errorf("%w: duplicate model %q", ErrInvalidDictionary, m.Key)
		}
		seenModels[m.Key] = struct{}{}
		if _, ok := d.brandIndex[m.Brand]; !ok {
			return fmt.Errorf("%w: model %q names unknown brand %q", ErrInvalidDictionary, m.Key, m.Brand)
		}
		forms, err := aliasForms(m.keyForm, m.Aliases)
		if err != nil {
			return fmt.Errorf("%w: model %q: %v", ErrInvalidDictionary, m.Key, err)
		}
		m.forms = forms
	}

	d.conceptIndex = make(map[string][]string, len(d.Concepts)*2)
	seenWords := make(map[string]struct{}, len(d.Concepts))
	for i, c := range d.Concepts {
		word := strings.ToLower(strings.TrimSpace(c.Word))
		if word == "" {
			return fmt.Errorf("%w: concept %d has an empty word", ErrInvalidDictionary, i)
		}
		if _, dup := seenWords[word]; dup {
			return fmt.Errorf("%w: duplicate concept %q", ErrInvalidDictionary, c.Word)
		}
		seenWords[word] = struct{}{}
		for _, eq := range c.Equivalents {
			if strings.TrimSpace(eq) == "" {
				return fmt.Errorf("%w: concept %q has an empty equivalent", ErrInvalidDictionary, c.Word)
			}
		}
		d.conceptIndex[word] = appendUnique(d.conceptIndex[word], c.Equivalents)
		// A key spelled with unfolded letters is also reachable from its
		// normalized form, which is what query tokens carry.
		if form := NormalizeArabic(word); form != word && form != "" {
			d.conceptIndex[form] = appendUnique(d.conceptIndex[form], c.Equivalents)
		}
	}

	seenCategories := make(map[string]struct{}, len(d.Categories))
	for i := range d.Categories {
		c := &d.Categories[i]
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: category %d has an empty name", ErrInvalidDictionary, i)
		}
		if _, dup := seenCategories[c.Name]; dup {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidDictionary, c.Name)
		}
		seenCategories[c.Name] = struct{}{}
		c.forms = make([]string, 0, len(c.Keywords))
		for _, kw := range c.Keywords {
			form := normalizeTerm(kw)
			if form == "" {
				return fmt.Errorf("%w: category %q has an empty keyword", ErrInvalidDictionary, c.Name)
			}
			c.forms = append(c.forms, form)
		}
	}
	return nil
}

// aliasForms returns keyForm followed by the normalized aliases. An alias that
// normalizes to nothing would contain-match every query and is rejected.
func aliasForms(keyForm string, aliases []string) ([]string, error) {
	forms := make([]string, 0, len(aliases)+1)
	forms = append(forms, keyForm)
	for _, a := range aliases {
		form := normalizeTerm(a)
		if form == "" {
			return nil, errors.New("empty alias")
		}
		forms = append(forms, form)
	}
	return forms, nil
}

func appendUnique(dst, src []string) []string {
	for _, s := range src {
		if !slices.Contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}
