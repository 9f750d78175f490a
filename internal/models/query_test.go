package models

import (
	"errors"
	"testing"
)

func ptr(f float64) *float64 { return &f }

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name      string
		query     *SearchQuery
		wantErr   error
		wantLimit int
	}{
		{"empty query", &SearchQuery{Query: ""}, ErrEmptyQuery, 0},
		{"blank query", &SearchQuery{Query: "   "}, ErrEmptyQuery, 0},
		{"valid query", &SearchQuery{Query: "rolex"}, nil, DefaultLimit},
		{"keeps limit", &SearchQuery{Query: "x", Limit: 5}, nil, 5},
		{"caps limit", &SearchQuery{Query: "x", Limit: 500}, nil, MaxLimit},
		{"inverted price range", &SearchQuery{Query: "x", MinPrice: ptr(10), MaxPrice: ptr(5)}, ErrInvalidPrice, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && tt.query.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", tt.query.Limit, tt.wantLimit)
			}
		})
	}
}

func TestSearchQuery_ValidateTrims(t *testing.T) {
	q := &SearchQuery{Query: "  ساعة  ", Offset: -3}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.Query != "ساعة" || q.Offset != 0 {
		t.Errorf("got query=%q offset=%d", q.Query, q.Offset)
	}
}

func TestSearchQuery_Matches(t *testing.T) {
	bid := 250.0
	base := Listing{
		ID: "l1", Title: "Omega", Category: "ساعات", Condition: "مستعمل - ممتاز",
		SaleType: SaleTypeAuction, City: "Erbil", Price: 100, CurrentBid: &bid,
		IsActive: true, QuantityAvailable: 1,
	}
	tests := []struct {
		name   string
		query  SearchQuery
		modify func(*Listing)
		want   bool
	}{
		{"no filters", SearchQuery{}, nil, true},
		{"category match", SearchQuery{Category: "ساعات"}, nil, true},
		{"category mismatch", SearchQuery{Category: "سيارات"}, nil, false},
		{"sale type", SearchQuery{SaleTypes: []string{"fixed"}}, nil, false},
		{"sale type case-insensitive", SearchQuery{SaleTypes: []string{"AUCTION"}}, nil, true},
		{"condition substring", SearchQuery{Conditions: []string{"ممتاز"}}, nil, true},
		{"city substring", SearchQuery{Cities: []string{"erb"}}, nil, true},
		{"city mismatch", SearchQuery{Cities: []string{"Basra"}}, nil, false},
		{"min price uses current bid", SearchQuery{MinPrice: ptr(200)}, nil, true},
		{"max price uses current bid", SearchQuery{MaxPrice: ptr(200)}, nil, false},
		{"price without bid", SearchQuery{MaxPrice: ptr(150)}, func(l *Listing) { l.CurrentBid = nil }, true},
		{"sold out hidden", SearchQuery{}, func(l *Listing) { l.QuantitySold = 1 }, false},
		{"sold out included", SearchQuery{IncludeSold: true}, func(l *Listing) { l.QuantitySold = 1 }, true},
		{"inactive hidden", SearchQuery{}, func(l *Listing) { l.IsActive = false }, false},
		{"deleted always hidden", SearchQuery{IncludeSold: true}, func(l *Listing) { l.IsDeleted = true }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := base
			if tt.modify != nil {
				tt.modify(&l)
			}
			if got := tt.query.Matches(&l); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListingInput_Validate(t *testing.T) {
	in := &ListingInput{Title: "Rolex"}
	if err := in.Validate(); err != nil {
		t.Fatal(err)
	}
	if in.SaleType != SaleTypeFixed || in.QuantityAvailable != 1 {
		t.Errorf("defaults not applied: %+v", in)
	}
	l := in.ToListing()
	if !l.IsActive || !l.Available() {
		t.Errorf("new listing should be active and available: %+v", l)
	}

	if err := (&ListingInput{}).Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("err = %v, want ErrEmptyTitle", err)
	}
	if err := (&ListingInput{Title: "x", Price: -1}).Validate(); !errors.Is(err, ErrNegativePrice) {
		t.Errorf("err = %v, want ErrNegativePrice", err)
	}
	if err := (&ListingInput{Title: "x", SaleType: "barter"}).Validate(); !errors.Is(err, ErrInvalidSaleType) {
		t.Errorf("err = %v, want ErrInvalidSaleType", err)
	}
}
