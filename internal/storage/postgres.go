package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hyperjump/mazad/internal/expand"
	"github.com/hyperjump/mazad/internal/models"
)

// PostgresStorage implements Storage on PostgreSQL. Listings carry a
// generated tsvector column so expanded tsquery strings can run in the database.
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage connects to dsn, verifies the connection and initializes the schema.
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	s := NewPostgresStorageFromDB(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// NewPostgresStorageFromDB wraps an open connection pool without touching the schema.
func NewPostgresStorageFromDB(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS listings (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price DOUBLE PRECISION NOT NULL DEFAULT 0,
	current_bid DOUBLE PRECISION,
	category TEXT NOT NULL DEFAULT '',
	item_condition TEXT NOT NULL DEFAULT '',
	brand TEXT NOT NULL DEFAULT '',
	sale_type TEXT NOT NULL DEFAULT 'fixed',
	tags TEXT[] NOT NULL DEFAULT '{}',
	specifications JSONB NOT NULL DEFAULT '{}',
	images TEXT[] NOT NULL DEFAULT '{}',
	seller_id TEXT NOT NULL DEFAULT '',
	seller_name TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	is_paused BOOLEAN NOT NULL DEFAULT FALSE,
	quantity_available INTEGER NOT NULL DEFAULT 1,
	quantity_sold INTEGER NOT NULL DEFAULT 0,
	views INTEGER NOT NULL DEFAULT 0,
	total_bids INTEGER NOT NULL DEFAULT 0,
	auction_end_time TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	search_vector tsvector GENERATED ALWAYS AS (
		to_tsvector('simple',
			coalesce(title, '') || ' ' || coalesce(description, '') || ' ' ||
			coalesce(brand, '') || ' ' || coalesce(category, ''))
	) STORED
);

CREATE INDEX IF NOT EXISTS idx_listings_search ON listings USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS idx_listings_category ON listings (category);
`

// Migrate creates the listings table and its indexes if missing.
func (s *PostgresStorage) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, postgresSchema)
	return err
}

// CreateListing inserts a listing. An empty ID is replaced with a new UUID.
func (s *PostgresStorage) CreateListing(ctx context.Context, l *models.Listing) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now

	args, err := postgresArgs(l)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO listings (`+listingColumns+`) VALUES (`+placeholders(1, len(listingColumnNames))+`)`,
		args...,
	)
	return err
}

// GetListing returns a listing by ID, deleted or not.
func (s *PostgresStorage) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	l, err := scanPostgresListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return l, err
}

// UpdateListing overwrites every mutable field of an existing listing.
func (s *PostgresStorage) UpdateListing(ctx context.Context, l *models.Listing) error {
	l.UpdatedAt = time.Now()
	args, err := postgresArgs(l)
	if err != nil {
		return err
	}
	sets := make([]string, 0, len(listingColumnNames))
	vals := make([]any, 0, len(listingColumnNames))
	for i, col := range listingColumnNames {
		if col == "id" || col == "created_at" {
			continue
		}
		vals = append(vals, args[i])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(vals)))
	}
	vals = append(vals, l.ID)

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE listings SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(vals)),
		vals...)
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
func (s *PostgresStorage) DeleteListing(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE listings SET is_deleted = TRUE, updated_at = now() WHERE id = $1`, id)
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
func (s *PostgresStorage) ListListings(ctx context.Context, offset, limit int, includeDeleted bool) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings`
	if !includeDeleted {
		query += ` WHERE is_deleted = FALSE`
	}
	query += ` ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l, err := scanPostgresListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// ListCategories returns the distinct categories of live listings, sorted.
func (s *PostgresStorage) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM listings
		 WHERE is_deleted = FALSE AND category <> '' ORDER BY category`)
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
func (s *PostgresStorage) CountListings(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings WHERE is_deleted = FALSE`).Scan(&count)
	return count, err
}

// SearchFullText runs the expanded query against the search_vector column and
// returns live listings ranked by ts_rank_cd.
func (s *PostgresStorage) SearchFullText(ctx context.Context, q *expand.ExpandedQuery, limit int) ([]*models.SearchResult, error) {
	tsq := PostgresTSQuery(q.TSQuery)
	if tsq == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listingColumns+`, ts_rank_cd(search_vector, query) AS rank
		 FROM listings, to_tsquery('simple', $1) query
		 WHERE search_vector @@ query AND is_deleted = FALSE
		 ORDER BY rank DESC, created_at DESC
		 LIMIT $2`,
		tsq, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("full-text search: %w", err)
	}
	defer rows.Close()

	var results []*models.SearchResult
	for rows.Next() {
		var rank float64
		l, err := scanPostgresListing(rows, &rank)
		if err != nil {
			return nil, err
		}
		results = append(results, &models.SearchResult{Listing: l, Score: rank, Rank: len(results) + 1})
	}
	return results, rows.Err()
}

// PostgresTSQuery rewrites an expanded tsquery string into to_tsquery syntax.
// Multi-word terms become phrase queries, and operator characters left in a
// raw fallback are dropped.
func PostgresTSQuery(tsquery string) string {
	var out []string
	for _, term := range strings.Split(tsquery, expand.TSQuerySeparator) {
		var words []string
		for _, w := range strings.Fields(term) {
			w = strings.Map(func(r rune) rune {
				if strings.ContainsRune(`&|!():*<>'\`, r) {
					return -1
				}
				return r
			}, w)
			if w != "" {
				words = append(words, w)
			}
		}
		switch len(words) {
		case 0:
		case 1:
			out = append(out, words[0])
		default:
			out = append(out, "("+strings.Join(words, " <-> ")+")")
		}
	}
	return strings.Join(out, " | ")
}

// Close closes the database connection.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func placeholders(start, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(ph, ", ")
}

// postgresArgs returns the column values of l in listingColumnNames order.
func postgresArgs(l *models.Listing) ([]any, error) {
	specs := []byte("{}")
	if l.Specifications != nil {
		b, err := json.Marshal(l.Specifications)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal specifications: %w", err)
		}
		specs = b
	}
	tags, images := l.Tags, l.Images
	if tags == nil {
		tags = []string{}
	}
	if images == nil {
		images = []string{}
	}
	return []any{
		l.ID, l.Title, l.Description, l.Price, l.CurrentBid, l.Category, l.Condition, l.Brand,
		l.SaleType, pq.Array(tags), specs, pq.Array(images), l.SellerID, l.SellerName, l.City,
		l.IsDeleted, l.IsActive, l.IsPaused, l.QuantityAvailable, l.QuantitySold, l.Views,
		l.TotalBids, l.AuctionEndTime, l.CreatedAt, l.UpdatedAt,
	}, nil
}

// scanPostgresListing scans one listing row; extra receives any trailing columns.
func scanPostgresListing(row rowScanner, extra ...any) (*models.Listing, error) {
	var (
		l       models.Listing
		bid     sql.NullFloat64
		endTime pq.NullTime
		specs   []byte
	)
	dest := []any{
		&l.ID, &l.Title, &l.Description, &l.Price, &bid, &l.Category, &l.Condition, &l.Brand,
		&l.SaleType, pq.Array(&l.Tags), &specs, pq.Array(&l.Images), &l.SellerID, &l.SellerName, &l.City,
		&l.IsDeleted, &l.IsActive, &l.IsPaused, &l.QuantityAvailable, &l.QuantitySold, &l.Views,
		&l.TotalBids, &endTime, &l.CreatedAt, &l.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if bid.Valid {
		l.CurrentBid = &bid.Float64
	}
	if endTime.Valid {
		l.AuctionEndTime = &endTime.Time
	}
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &l.Specifications); err != nil {
			return nil, fmt.Errorf("failed to unmarshal specifications: %w", err)
		}
	}
	return &l, nil
}
