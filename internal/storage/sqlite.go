package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/mazad/internal/models"
)

// SQLiteStorage implements Storage using SQLite. Tags, specifications and
// images are stored as JSON text.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL DEFAULT 0,
		current_bid REAL,
		category TEXT NOT NULL DEFAULT '',
		item_condition TEXT NOT NULL DEFAULT '',
		brand TEXT NOT NULL DEFAULT '',
		sale_type TEXT NOT NULL DEFAULT 'fixed',
		tags TEXT NOT NULL DEFAULT '[]',
		specifications TEXT NOT NULL DEFAULT '{}',
		images TEXT NOT NULL DEFAULT '[]',
		seller_id TEXT NOT NULL DEFAULT '',
		seller_name TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		is_deleted BOOLEAN NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		is_paused BOOLEAN NOT NULL DEFAULT 0,
		quantity_available INTEGER NOT NULL DEFAULT 1,
		quantity_sold INTEGER NOT NULL DEFAULT 0,
		views INTEGER NOT NULL DEFAULT 0,
		total_bids INTEGER NOT NULL DEFAULT 0,
		auction_end_time TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_listings_category ON listings(category);
	CREATE INDEX IF NOT EXISTS idx_listings_deleted ON listings(is_deleted);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateListing inserts a listing. An empty ID is replaced with a new UUID.
func (s *SQLiteStorage) CreateListing(ctx context.Context, l *models.Listing) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now

	args, err := sqliteArgs(l)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO listings (`+listingColumns+`) VALUES (`+strings.TrimSuffix(strings.Repeat("?, ", len(listingColumnNames)), ", ")+`)`,
		args...,
	)
	return err
}

// GetListing returns a listing by ID, deleted or not.
func (s *SQLiteStorage) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	l, err := scanSQLiteListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return l, err
}

// UpdateListing overwrites every mutable field of an existing listing.
func (s *SQLiteStorage) UpdateListing(ctx context.Context, l *models.Listing) error {
	l.UpdatedAt = time.Now()
	args, err := sqliteArgs(l)
	if err != nil {
		return err
	}
	// Skip id and created_at; updated_at stays last.
	sets := make([]string, 0, len(listingColumnNames))
	vals := make([]any, 0, len(listingColumnNames))
	for i, col := range listingColumnNames {
		if col == "id" || col == "created_at" {
			continue
		}
		sets = append(sets, col+" = ?")
		vals = append(vals, args[i])
	}
	vals = append(vals, l.ID)

	result, err := s.db.ExecContext(ctx,
		`UPDATE listings SET `+strings.Join(sets, ", ")+` WHERE id = ?`, vals...)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, l.ID)
	}
	return nil
}

// DeleteListing sets is_deleted on a listing.
func (s *SQLiteStorage) DeleteListing(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE listings SET is_deleted = 1, updated_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ListListings returns listings with offset and limit.
func (s *SQLiteStorage) ListListings(ctx context.Context, offset, limit int, includeDeleted bool) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings`
	if !includeDeleted {
		query += ` WHERE is_deleted = 0`
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l, err := scanSQLiteListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// ListCategories returns the distinct categories of live listings, sorted.
func (s *SQLiteStorage) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM listings
		 WHERE is_deleted = 0 AND category != '' ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// CountListings returns the number of listings not marked deleted.
func (s *SQLiteStorage) CountListings(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings WHERE is_deleted = 0`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// sqliteArgs returns the column values of l in listingColumnNames order.
func sqliteArgs(l *models.Listing) ([]any, error) {
	tags, err := marshalJSON(l.Tags, "[]")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	specs, err := marshalJSON(l.Specifications, "{}")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal specifications: %w", err)
	}
	images, err := marshalJSON(l.Images, "[]")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal images: %w", err)
	}
	return []any{
		l.ID, l.Title, l.Description, l.Price, l.CurrentBid, l.Category, l.Condition, l.Brand,
		l.SaleType, tags, specs, images, l.SellerID, l.SellerName, l.City,
		l.IsDeleted, l.IsActive, l.IsPaused, l.QuantityAvailable, l.QuantitySold, l.Views,
		l.TotalBids, l.AuctionEndTime, l.CreatedAt, l.UpdatedAt,
	}, nil
}

func scanSQLiteListing(row rowScanner) (*models.Listing, error) {
	var (
		l                   models.Listing
		bid                 sql.NullFloat64
		endTime             sql.NullTime
		tags, specs, images string
	)
	err := row.Scan(
		&l.ID, &l.Title, &l.Description, &l.Price, &bid, &l.Category, &l.Condition, &l.Brand,
		&l.SaleType, &tags, &specs, &images, &l.SellerID, &l.SellerName, &l.City,
		&l.IsDeleted, &l.IsActive, &l.IsPaused, &l.QuantityAvailable, &l.QuantitySold, &l.Views,
		&l.TotalBids, &endTime, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if bid.Valid {
		l.CurrentBid = &bid.Float64
	}
	if endTime.Valid {
		l.AuctionEndTime = &endTime.Time
	}
	if err := unmarshalJSON(tags, &l.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if err := unmarshalJSON(specs, &l.Specifications); err != nil {
		return nil, fmt.Errorf("failed to unmarshal specifications: %w", err)
	}
	if err := unmarshalJSON(images, &l.Images); err != nil {
		return nil, fmt.Errorf("failed to unmarshal images: %w", err)
	}
	return &l, nil
}

func marshalJSON(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}

func unmarshalJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}
