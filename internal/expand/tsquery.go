package expand

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// TSQuerySeparator joins terms into an OR query.
const TSQuerySeparator = " | "

const tsqueryReserved = `&|!():*<>'\`

var stripReserved = runes.Remove(runes.Predicate(func(r rune) bool {
	return strings.ContainsRune(tsqueryReserved, r)
}))

// minTermLen is the shortest term, in runes, that reaches the tsquery.
const minTermLen = 2

// BuildTSQuery drops terms shorter than two runes, strips tsquery operators
// from the rest, drops whatever became too short and joins the survivors with
// TSQuerySeparator. When nothing survives it returns fallback unchanged.
func BuildTSQuery(terms []string, fallback string) string {
	kept := make([]string, 0, len(terms))
	for _, t := range terms {
		if utf8.RuneCountInString(t) < minTermLen {
			continue
		}
		clean, _, _ := transform.String(stripReserved, t)
		if utf8.RuneCountInString(clean) < minTermLen {
			continue
		}
		kept = append(kept, clean)
	}
	if len(kept) == 0 {
		return fallback
	}
	return strings.Join(kept, TSQuerySeparator)
}
