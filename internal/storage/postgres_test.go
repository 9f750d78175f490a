package storage

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/mazad/internal/expand"
	"github.com/hyperjump/mazad/internal/models"
)

func newMockPostgres(t *testing.T) (*PostgresStorage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStorageFromDB(db), mock
}

func listingRow(id, title string, extra ...driver.Value) []driver.Value {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	row := []driver.Value{
		id, title, "desc", 250.0, nil, "ساعات", "جديد", "omega",
		"fixed", "{watch,ساعة}", []byte(`{"movement":"automatic"}`), "{}", "s1", "Seller", "Erbil",
		false, true, false, 1, 0, 10,
		0, nil, now, now,
	}
	return append(row, extra...)
}

func TestPostgresTSQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"omega", "omega"},
		{"omega | sea master", "omega | (sea <-> master)"},
		{"ساعة اوميغا | omega", "(ساعة <-> اوميغا) | omega"},
		{"a&b", "ab"},
		{"!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PostgresTSQuery(tt.in), "input %q", tt.in)
	}
}

func TestPostgresStorage_SearchFullText(t *testing.T) {
	store, mock := newMockPostgres(t)

	q := expand.Expand("اوميغا سيماستر")
	cols := append(append([]string{}, listingColumnNames...), "rank")
	mock.ExpectQuery(`SELECT .+ts_rank_cd\(search_vector, query\) AS rank\s+FROM listings, to_tsquery\('simple', \$1\) query`).
		WithArgs(PostgresTSQuery(q.TSQuery), 10).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(listingRow("l1", "Omega Seamaster", 0.8)...).
			AddRow(listingRow("l2", "أوميغا", 0.3)...))

	results, err := store.SearchFullText(context.Background(), q, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "l1", results[0].Listing.ID)
	assert.Equal(t, 0.8, results[0].Score)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, 2, results[1].Rank)
	assert.Equal(t, []string{"watch", "ساعة"}, results[0].Listing.Tags)
	assert.Equal(t, "automatic", results[0].Listing.Specifications["movement"])
	assert.Nil(t, results[0].Listing.CurrentBid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_SearchFullTextEmpty(t *testing.T) {
	store, mock := newMockPostgres(t)
	results, err := store.SearchFullText(context.Background(), expand.Expand(""), 10)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_GetListing(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT .+ FROM listings WHERE id = \$1`).
		WithArgs("l1").
		WillReturnRows(sqlmock.NewRows(listingColumnNames).AddRow(listingRow("l1", "Omega")...))

	l, err := store.GetListing(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, "Omega", l.Title)
	assert.Equal(t, "جديد", l.Condition)
	assert.True(t, l.Available())

	mock.ExpectQuery(`SELECT .+ FROM listings WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(listingColumnNames))
	_, err = store.GetListing(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_CreateListing(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectExec(`INSERT INTO listings \(id, title, .+\) VALUES \(\$1, \$2, .+\$25\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	l := &models.Listing{Title: "Rolex", SaleType: models.SaleTypeFixed}
	require.NoError(t, store.CreateListing(context.Background(), l))
	assert.NotEmpty(t, l.ID)
	assert.False(t, l.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_UpdateListing(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectExec(`UPDATE listings SET title = \$1, .+ WHERE id = \$24`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateListing(context.Background(), &models.Listing{ID: "gone", Title: "x"})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_DeleteListing(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectExec(`UPDATE listings SET is_deleted = TRUE`).
		WithArgs("l1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.DeleteListing(context.Background(), "l1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_ListListings(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT .+ FROM listings WHERE is_deleted = FALSE ORDER BY id LIMIT \$1 OFFSET \$2`).
		WithArgs(500, 0).
		WillReturnRows(sqlmock.NewRows(listingColumnNames).
			AddRow(listingRow("a", "A")...).
			AddRow(listingRow("b", "B")...))

	ls, err := store.ListListings(context.Background(), 0, 500, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(ls))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_CategoriesAndCount(t *testing.T) {
	store, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT DISTINCT category FROM listings`).
		WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("ساعات").AddRow("سيارات"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM listings WHERE is_deleted = FALSE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	cats, err := store.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ساعات", "سيارات"}, cats)

	n, err := store.CountListings(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
