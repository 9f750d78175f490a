package expand

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Both transformers are stateless and safe for concurrent use.
var (
	foldLetters   = runes.Map(foldArabicLetter)
	stripTashkeel = runes.Remove(runes.Predicate(isTashkeel))
)

func foldArabicLetter(r rune) rune {
	switch r {
	case 'أ', 'إ', 'آ':
		return 'ا'
	case 'ى', 'ي', 'ئ':
		return 'ی'
	case 'ة':
		return 'ه'
	case 'ؤ':
		return 'و'
	}
	return r
}

// isTashkeel reports whether r is an Arabic combining mark (U+064B..U+065F).
func isTashkeel(r rune) bool {
	return r >= 0x064B && r <= 0x065F
}

// NormalizeArabic folds alef, yeh, taa marbuta and hamza carriers to a single
// letter each, strips tashkeel and trims surrounding whitespace. Latin text
// passes through untouched; callers lowercase separately.
func NormalizeArabic(s string) string {
	folded, _, _ := transform.String(foldLetters, s)
	stripped, _, _ := transform.String(stripTashkeel, folded)
	return strings.TrimSpace(stripped)
}

// normalizeTerm is the comparable form used for every dictionary lookup.
func normalizeTerm(s string) string {
	return NormalizeArabic(strings.ToLower(s))
}
