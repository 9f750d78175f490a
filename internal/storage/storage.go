// Package storage defines the persistence interface for marketplace listings
// and its SQLite and PostgreSQL implementations.
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/hyperjump/mazad/internal/models"
)

// ErrNotFound is returned when a listing does not exist.
var ErrNotFound = errors.New("listing not found")

// Storage defines listing persistence operations.
type Storage interface {
	CreateListing(ctx context.Context, l *models.Listing) error
	GetListing(ctx context.Context, id string) (*models.Listing, error)
	UpdateListing(ctx context.Context, l *models.Listing) error
	// DeleteListing marks a listing deleted. The row is kept.
	DeleteListing(ctx context.Context, id string) error
	// ListListings returns listings ordered by id so that pages are stable
	// while rows are being added.
	ListListings(ctx context.Context, offset, limit int, includeDeleted bool) ([]*models.Listing, error)

	ListCategories(ctx context.Context) ([]string, error)
	CountListings(ctx context.Context) (int64, error)

	Close() error
}

var listingColumnNames = []string{
	"id", "title", "description", "price", "current_bid", "category", "item_condition", "brand",
	"sale_type", "tags", "specifications", "images", "seller_id", "seller_name", "city",
	"is_deleted", "is_active", "is_paused", "quantity_available", "quantity_sold", "views",
	"total_bids", "auction_end_time", "created_at", "updated_at",
}

var listingColumns = strings.Join(listingColumnNames, ", ")

type rowScanner interface {
	Scan(dest ...any) error
}
