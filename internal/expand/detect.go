package expand

import "strings"

// termSet is an insertion-ordered set of strings.
type termSet struct {
	order []string
	seen  map[string]struct{}
}

func newTermSet() *termSet {
	return &termSet{seen: make(map[string]struct{})}
}

func (s *termSet) add(term string) {
	if term == "" {
		return
	}
	if _, ok := s.seen[term]; ok {
		return
	}
	s.seen[term] = struct{}{}
	s.order = append(s.order, term)
}

func (s *termSet) addLower(terms []string) {
	for _, t := range terms {
		s.add(strings.ToLower(t))
	}
}

// expansion is the working state of one Expand call.
type expansion struct {
	dict       *Dictionaries
	normalized string
	tokens     []string
	terms      *termSet

	brand      string
	model      string
	category   string
	fuzzyBrand bool
	fuzzyModel bool
}

func (x *expansion) setBrand(b *Brand) {
	x.brand = b.Key
	x.terms.add(b.Key)
	x.terms.addLower(b.Aliases)
}

func (x *expansion) setModel(m *Model) {
	x.model = m.Key
	if x.brand == "" {
		x.brand = m.Brand
	}
	x.terms.add(m.Key)
	x.terms.addLower(m.Aliases)
}

// detectBrandInQuery matches when the whole normalized query equals or
// contains a brand key or alias.
func (x *expansion) detectBrandInQuery() bool {
	for i := range x.dict.Brands {
		b := &x.dict.Brands[i]
		for _, form := range b.forms {
			if strings.Contains(x.normalized, form) {
				x.setBrand(b)
				return true
			}
		}
	}
	return false
}

// detectBrandInTokens requires a token to equal a brand key or alias exactly.
func (x *expansion) detectBrandInTokens() bool {
	for _, tok := range x.tokens {
		for i := range x.dict.Brands {
			b := &x.dict.Brands[i]
			for _, form := range b.forms {
				if tok == form {
					x.setBrand(b)
					return true
				}
			}
		}
	}
	return false
}

func (x *expansion) detectModelInTokens() bool {
	for _, tok := range x.tokens {
		for i := range x.dict.Models {
			m := &x.dict.Models[i]
			for _, form := range m.forms {
				if tok == form {
					x.setModel(m)
					return true
				}
			}
		}
	}
	return false
}

// detectModelInQuery catches multi-word keys such as "royal oak". Only the
// model key is tested here, aliases are token-matched only.
func (x *expansion) detectModelInQuery() bool {
	for i := range x.dict.Models {
		m := &x.dict.Models[i]
		if strings.Contains(x.normalized, m.keyForm) {
			x.setModel(m)
			return true
		}
	}
	return false
}

func (x *expansion) expandConcepts() {
	for _, tok := range x.tokens {
		lower := strings.ToLower(tok)
		x.terms.addLower(x.dict.conceptIndex[lower])
		if form := NormalizeArabic(lower); form != lower {
			x.terms.addLower(x.dict.conceptIndex[form])
		}
	}
}

func (x *expansion) detectCategory() {
	for i := range x.dict.Categories {
		c := &x.dict.Categories[i]
		for _, form := range c.forms {
			if strings.Contains(x.normalized, form) {
				x.category = c.Name
				return
			}
		}
	}
}
