package imagesearch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/mazad/internal/expand"
	"github.com/hyperjump/mazad/internal/models"
)

type stubAnalyzer struct {
	attrs *expand.ProductAttributes
	err   error
}

func (s stubAnalyzer) Analyze(context.Context, string) (*expand.ProductAttributes, error) {
	return s.attrs, s.err
}

type recordingSearcher struct {
	queries []*models.SearchQuery
	err     error
}

func (r *recordingSearcher) Search(_ context.Context, q *models.SearchQuery) (*models.SearchResponse, error) {
	r.queries = append(r.queries, q)
	if r.err != nil {
		return nil, r.err
	}
	return &models.SearchResponse{
		Results: []*models.SearchResult{{Listing: &models.Listing{ID: "rolex"}, Rank: 1}},
		Total:   1,
		Query:   q.Query,
	}, nil
}

func TestService_Search(t *testing.T) {
	searcher := &recordingSearcher{}
	svc := NewService(stubAnalyzer{attrs: &expand.ProductAttributes{
		Brand: "Rolex", Model: "Daytona", ItemType: "wristwatch", Keywords: []string{"gold"},
	}}, searcher, nil)

	resp, err := svc.Search(context.Background(), pngImage, 5)
	require.NoError(t, err)
	assert.Equal(t, "Rolex Daytona", resp.Query)
	assert.Equal(t, "Rolex", resp.Analysis.Brand)
	assert.Equal(t, 1, resp.Total)

	require.Len(t, searcher.queries, 1)
	assert.Equal(t, "Rolex Daytona", searcher.queries[0].Query)
	assert.Equal(t, 5, searcher.queries[0].Limit)
}

func TestService_SearchUnknownImage(t *testing.T) {
	searcher := &recordingSearcher{}
	svc := NewService(stubAnalyzer{attrs: Unknown()}, searcher, nil)

	resp, err := svc.Search(context.Background(), pngImage, 10)
	require.NoError(t, err)
	assert.Empty(t, resp.Query)
	assert.Equal(t, 0, resp.Total)
	assert.NotNil(t, resp.Results)
	assert.Equal(t, UnknownCategory, resp.Analysis.Category)
	assert.Empty(t, searcher.queries)
}

func TestService_SearchErrors(t *testing.T) {
	svc := NewService(stubAnalyzer{attrs: Unknown()}, &recordingSearcher{}, nil)
	_, err := svc.Search(context.Background(), "", 10)
	assert.ErrorIs(t, err, ErrEmptyImage)

	boom := errors.New("boom")
	svc = NewService(stubAnalyzer{err: boom}, &recordingSearcher{}, nil)
	_, err = svc.Search(context.Background(), pngImage, 10)
	assert.ErrorIs(t, err, boom)

	svc = NewService(stubAnalyzer{attrs: &expand.ProductAttributes{Brand: "omega"}}, &recordingSearcher{err: boom}, nil)
	_, err = svc.Search(context.Background(), pngImage, 10)
	assert.ErrorIs(t, err, boom)
}
