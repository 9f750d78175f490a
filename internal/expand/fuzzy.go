package expand

import (
	"math"
	"unicode/utf8"

	"github.com/hyperjump/mazad/pkg/utils"
)

// minFuzzyTokenLen skips very short tokens, which match almost anything
// within one edit.
const minFuzzyTokenLen = 3

// fuzzyThreshold is the edit budget for a candidate of n runes: one edit for
// words up to seven runes, then one per four runes.
func fuzzyThreshold(n int) int {
	return max(1, n/4)
}

// closestForm returns the index of the entry whose form is closest to any
// token within its threshold. Ties keep the first candidate seen.
func closestForm(tokens []string, n int, formsOf func(int) []string) int {
	best, bestDist := -1, math.MaxInt
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) < minFuzzyTokenLen {
			continue
		}
		for i := 0; i < n; i++ {
			for _, form := range formsOf(i) {
				d := utils.LevenshteinDistance(tok, form)
				if d <= fuzzyThreshold(utf8.RuneCountInString(form)) && d < bestDist {
					best, bestDist = i, d
				}
			}
		}
	}
	return best
}

func (x *expansion) detectBrandFuzzy() bool {
	i := closestForm(x.tokens, len(x.dict.Brands), func(i int) []string {
		return x.dict.Brands[i].forms
	})
	if i < 0 {
		return false
	}
	x.setBrand(&x.dict.Brands[i])
	x.fuzzyBrand = true
	return true
}

// detectModelFuzzy also adds the terms of the resulting brand so that a
// misspelled model still searches under its brand's names.
func (x *expansion) detectModelFuzzy() bool {
	i := closestForm(x.tokens, len(x.dict.Models), func(i int) []string {
		return x.dict.Models[i].forms
	})
	if i < 0 {
		return false
	}
	x.setModel(&x.dict.Models[i])
	x.fuzzyModel = true
	if b, ok := x.dict.BrandByKey(x.brand); ok {
		x.terms.add(b.Key)
		x.terms.addLower(b.Aliases)
	}
	return true
}
