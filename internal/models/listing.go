// Package models defines the listing, query and search result types shared by
// storage, the search index and the HTTP API.
package models

import "time"

// Sale types.
const (
	SaleTypeFixed   = "fixed"
	SaleTypeAuction = "auction"
)

// Listing is a marketplace item as stored in the relational store and
// denormalized into the search index.
type Listing struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Price             float64           `json:"price"`
	CurrentBid        *float64          `json:"current_bid,omitempty"`
	Category          string            `json:"category"`
	Condition         string            `json:"condition"`
	Brand             string            `json:"brand"`
	SaleType          string            `json:"sale_type"`
	Tags              []string          `json:"tags,omitempty"`
	Specifications    map[string]string `json:"specifications,omitempty"`
	Images            []string          `json:"images,omitempty"`
	SellerID          string            `json:"seller_id,omitempty"`
	SellerName        string            `json:"seller_name,omitempty"`
	City              string            `json:"city,omitempty"`
	IsDeleted         bool              `json:"is_deleted"`
	IsActive          bool              `json:"is_active"`
	IsPaused          bool              `json:"is_paused"`
	QuantityAvailable int               `json:"quantity_available"`
	QuantitySold      int               `json:"quantity_sold"`
	Views             int               `json:"views"`
	TotalBids         int               `json:"total_bids"`
	AuctionEndTime    *time.Time        `json:"auction_end_time,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Available reports whether the listing can still be bought: active, not
// deleted and not sold out.
func (l *Listing) Available() bool {
	return l.IsActive && !l.IsDeleted && l.QuantitySold < l.QuantityAvailable
}

// EffectivePrice is the current bid when one exists, otherwise the list price.
func (l *Listing) EffectivePrice() float64 {
	if l.CurrentBid != nil {
		return *l.CurrentBid
	}
	return l.Price
}

// ListingInput is the input for creating or updating a listing.
type ListingInput struct {
	ID                string            `json:"id,omitempty"`
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	Price             float64           `json:"price"`
	Category          string            `json:"category,omitempty"`
	Condition         string            `json:"condition,omitempty"`
	Brand             string            `json:"brand,omitempty"`
	SaleType          string            `json:"sale_type,omitempty"`
	Tags              []string          `json:"tags,omitempty"`
	Specifications    map[string]string `json:"specifications,omitempty"`
	Images            []string          `json:"images,omitempty"`
	SellerID          string            `json:"seller_id,omitempty"`
	SellerName        string            `json:"seller_name,omitempty"`
	City              string            `json:"city,omitempty"`
	QuantityAvailable int               `json:"quantity_available,omitempty"`
	AuctionEndTime    *time.Time        `json:"auction_end_time,omitempty"`
	IsActive          *bool             `json:"is_active,omitempty"`
}

// Validate checks required fields and fills defaults.
func (in *ListingInput) Validate() error {
	if in.Title == "" {
		return ErrEmptyTitle
	}
	if in.Price < 0 {
		return ErrNegativePrice
	}
	switch in.SaleType {
	case "":
		in.SaleType = SaleTypeFixed
	case SaleTypeFixed, SaleTypeAuction:
	default:
		return ErrInvalidSaleType
	}
	if in.QuantityAvailable <= 0 {
		in.QuantityAvailable = 1
	}
	return nil
}

// ToListing builds a Listing from validated input. Counters start at zero.
func (in *ListingInput) ToListing() *Listing {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &Listing{
		ID:                in.ID,
		Title:             in.Title,
		Description:       in.Description,
		Price:             in.Price,
		Category:          in.Category,
		Condition:         in.Condition,
		Brand:             in.Brand,
		SaleType:          in.SaleType,
		Tags:              in.Tags,
		Specifications:    in.Specifications,
		Images:            in.Images,
		SellerID:          in.SellerID,
		SellerName:        in.SellerName,
		City:              in.City,
		QuantityAvailable: in.QuantityAvailable,
		AuctionEndTime:    in.AuctionEndTime,
		IsActive:          active,
	}
}

// ApplyTo overwrites the editable fields of l with validated input. Identity,
// counters, bids and timestamps are left untouched.
func (in *ListingInput) ApplyTo(l *Listing) {
	updated := in.ToListing()
	updated.ID = l.ID
	updated.CurrentBid = l.CurrentBid
	updated.IsDeleted = l.IsDeleted
	updated.IsPaused = l.IsPaused
	updated.QuantitySold = l.QuantitySold
	updated.Views = l.Views
	updated.TotalBids = l.TotalBids
	updated.CreatedAt = l.CreatedAt
	updated.UpdatedAt = l.UpdatedAt
	if in.IsActive == nil {
		updated.IsActive = l.IsActive
	}
	*l = *updated
}
