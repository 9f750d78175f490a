package utils

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"identical empty", "", "", 0},
		{"identical word", "hello", "hello", 0},
		{"identical arabic", "اومیغا", "اومیغا", 0},

		{"empty a", "", "hello", 5},
		{"empty b", "hello", "", 5},
		{"empty a counts runes", "", "رولکس", 5},

		{"one substitution", "cat", "bat", 1},
		{"one insertion", "cat", "cart", 1},
		{"one deletion", "cart", "cat", 1},

		{"kitten to sitting", "kitten", "sitting", 3},
		{"saturday to sunday", "saturday", "sunday", 3},

		{"misspelled brand", "rolx", "rolex", 1},
		{"arabic dropped letter", "ستزن", "ستیزن", 1},
		{"arabic substitution", "سیکو", "سیقو", 1},

		{"case difference", "Hello", "hello", 1},
		{"unicode substitution", "café", "cafe", 1},

		{"transposition ab-ba", "ab", "ba", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := LevenshteinDistance(tt.a, tt.b)
			if result != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, result, tt.expected)
			}
			if reverse := LevenshteinDistance(tt.b, tt.a); reverse != result {
				t.Errorf("LevenshteinDistance is not symmetric: (%q,%q)=%d, (%q,%q)=%d",
					tt.a, tt.b, result, tt.b, tt.a, reverse)
			}
		})
	}
}

func TestDamerauLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"identical empty", "", "", 0},
		{"empty a", "", "hello", 5},
		{"one substitution", "cat", "bat", 1},
		{"transposition ab-ba", "ab", "ba", 1},
		{"transposition teh-the", "teh", "the", 1},
		{"transposition recieve-receive", "recieve", "receive", 1},
		{"kitten to sitting", "kitten", "sitting", 3},
		{"arabic transposition", "رولکس", "رولسک", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DamerauLevenshteinDistance(tt.a, tt.b)
			if result != tt.expected {
				t.Errorf("DamerauLevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, result, tt.expected)
			}
			if reverse := DamerauLevenshteinDistance(tt.b, tt.a); reverse != result {
				t.Errorf("DamerauLevenshteinDistance is not symmetric: (%q,%q)=%d, (%q,%q)=%d",
					tt.a, tt.b, result, tt.b, tt.a, reverse)
			}
		})
	}
}

func BenchmarkLevenshteinDistance_Short(b *testing.B) {
	for i := 0; i < b.N; i++ {
		LevenshteinDistance("kitten", "sitting")
	}
}

func BenchmarkLevenshteinDistance_Arabic(b *testing.B) {
	for i := 0; i < b.N; i++ {
		LevenshteinDistance("سابمارینر", "سابمارنر")
	}
}
