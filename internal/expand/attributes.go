package expand

import (
	"strings"
	"unicode/utf8"
)

// UnknownItemType is the placeholder an analyzer reports when it cannot
// identify the item. Only this exact spelling is skipped.
const UnknownItemType = "unknown"

// maxAttributeKeywords caps the keywords used when no brand or model is known.
const maxAttributeKeywords = 3

// ProductAttributes is a structured description of an item, typically
// produced by image analysis. Empty strings mean absent.
type ProductAttributes struct {
	Brand    string   `json:"brand"`
	Model    string   `json:"model"`
	ItemType string   `json:"itemType"`
	Category string   `json:"category"`
	Keywords []string `json:"keywords"`
	Colors   []string `json:"colors"`
	Material string   `json:"material"`
}

// BuildQueryFromAttributes renders attributes as a plain query string. Brand
// and model win when present; otherwise the item type and up to three
// keywords are used. Colors and material never contribute.
func BuildQueryFromAttributes(a ProductAttributes) string {
	var parts []string
	if b := strings.TrimSpace(a.Brand); b != "" {
		parts = append(parts, b)
	}
	if m := strings.TrimSpace(a.Model); m != "" {
		parts = append(parts, m)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	if a.ItemType != UnknownItemType {
		if t := strings.TrimSpace(a.ItemType); t != "" {
			parts = append(parts, t)
		}
	}
	n := 0
	for _, kw := range a.Keywords {
		if n == maxAttributeKeywords {
			break
		}
		kw = strings.TrimSpace(kw)
		if utf8.RuneCountInString(kw) < minTermLen {
			continue
		}
		parts = append(parts, kw)
		n++
	}
	return strings.Join(parts, " ")
}
