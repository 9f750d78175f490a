// Package cli provides output helpers for the mazad command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hyperjump/mazad/internal/expand"
	"github.com/hyperjump/mazad/internal/models"
	"github.com/hyperjump/mazad/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one result per line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const descriptionPreview = 160

// ParseOutputFormat validates a format name. An empty name means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			writeCompactResult(w, r)
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms", response.Total, response.QueryTime)
	if response.AutoFuzzy {
		fmt.Fprint(w, " (fuzzy matching applied)")
	}
	fmt.Fprintln(w)
	if q := response.Expanded; q != nil {
		writeDetection(w, q)
	}
	if len(response.Suggestions) > 0 {
		fmt.Fprintf(w, "Did you mean: %s\n", strings.Join(response.Suggestions, ", "))
	}
	fmt.Fprintln(w)
	for _, r := range response.Results {
		writeOneResult(w, r)
	}
}

func writeDetection(w io.Writer, q *expand.ExpandedQuery) {
	var parts []string
	if q.Brand != "" {
		parts = append(parts, "brand="+q.Brand)
	}
	if q.Model != "" {
		parts = append(parts, "model="+q.Model)
	}
	if q.Category != "" {
		parts = append(parts, "category="+q.Category)
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, "Detected: %s\n", strings.Join(parts, " "))
	}
}

func writeOneResult(w io.Writer, r *models.SearchResult) {
	l := r.Listing
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", r.Rank, r.Score)
	fmt.Fprintf(w, "ID: %s\n", l.ID)
	fmt.Fprintf(w, "Title: %s\n", l.Title)
	fmt.Fprintf(w, "Price: %s", formatPrice(l.EffectivePrice()))
	if l.SaleType == models.SaleTypeAuction {
		fmt.Fprintf(w, " (auction, %d bids)", l.TotalBids)
	}
	fmt.Fprintln(w)
	if l.Category != "" {
		fmt.Fprintf(w, "Category: %s\n", l.Category)
	}
	if l.City != "" {
		fmt.Fprintf(w, "City: %s\n", l.City)
	}
	if l.Description != "" {
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(l.Description, descriptionPreview))
	}
	fmt.Fprintln(w)
}

func writeCompactResult(w io.Writer, r *models.SearchResult) {
	l := r.Listing
	fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.Rank, l.ID, formatPrice(l.EffectivePrice()), utils.Truncate(l.Title, 60))
}

// WriteExpansion writes an expanded query to w in the given format.
func WriteExpansion(w io.Writer, q *expand.ExpandedQuery, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, q)
	case OutputCompact:
		fmt.Fprintln(w, q.TSQuery)
		return nil
	default:
		fmt.Fprintf(w, "Query:      %s\n", q.Raw)
		fmt.Fprintf(w, "Normalized: %s\n", q.Normalized)
		fmt.Fprintf(w, "Tokens:     %s\n", strings.Join(q.Tokens, ", "))
		writeDetection(w, q)
		fmt.Fprintf(w, "Terms (%d):\n", len(q.AllTerms))
		for _, t := range q.AllTerms {
			fmt.Fprintf(w, "  %s\n", t)
		}
		fmt.Fprintf(w, "TSQuery:    %s\n", q.TSQuery)
		return nil
	}
}

// WriteListing writes one listing to w in the given format.
func WriteListing(w io.Writer, l *models.Listing, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return WriteJSON(w, l)
	case OutputCompact:
		writeCompactResult(w, &models.SearchResult{Listing: l})
		return nil
	default:
		writeOneResult(w, &models.SearchResult{Listing: l})
		return nil
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var pricePrinter = message.NewPrinter(language.English)

// formatPrice renders a price with thousands separators, dropping the
// fraction when it is whole.
func formatPrice(p float64) string {
	if p == math.Trunc(p) {
		return pricePrinter.Sprintf("%d", int64(p))
	}
	return pricePrinter.Sprintf("%.2f", p)
}
