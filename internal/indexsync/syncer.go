// Package indexsync keeps the listing search index consistent with storage.
package indexsync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/mazad/internal/keyword"
	"github.com/hyperjump/mazad/internal/metrics"
	"github.com/hyperjump/mazad/internal/models"
	"github.com/hyperjump/mazad/internal/storage"
)

// DefaultBatchSize is the number of listings read per page during a bulk sync.
const DefaultBatchSize = 500

// BulkResult summarizes a bulk sync.
type BulkResult struct {
	TotalProcessed int `json:"total_processed"`
	TotalBatches   int `json:"total_batches"`
}

// Syncer writes listings from storage into the search index.
type Syncer struct {
	store     storage.Storage
	index     keyword.ListingIndex
	batchSize int
	logger    *zap.Logger
	// onChange runs after the index changed, e.g. to invalidate a spell checker.
	onChange func()
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithBatchSize sets the bulk sync page size.
func WithBatchSize(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOnChange registers a callback run after every successful index write.
func WithOnChange(fn func()) Option {
	return func(s *Syncer) { s.onChange = fn }
}

// NewSyncer returns a Syncer over store and index.
func NewSyncer(store storage.Storage, index keyword.ListingIndex, opts ...Option) *Syncer {
	s := &Syncer{
		store:     store,
		index:     index,
		batchSize: DefaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncListing mirrors one listing into the index: deleted listings are
// removed, all others are upserted. Failures are logged and returned; callers
// on a write path may ignore them.
func (s *Syncer) SyncListing(ctx context.Context, l *models.Listing) error {
	op := "upsert"
	var err error
	if l.IsDeleted {
		op = "delete"
		err = s.index.Delete(ctx, l.ID)
	} else {
		err = s.index.Index(ctx, l)
	}
	metrics.RecordSync(op, err)
	if err != nil {
		s.logger.Warn("index sync failed",
			zap.String("listing_id", l.ID),
			zap.String("op", op),
			zap.Error(err),
		)
		return fmt.Errorf("sync listing %s: %w", l.ID, err)
	}
	s.changed()
	return nil
}

// RemoveListing deletes a listing from the index by ID.
func (s *Syncer) RemoveListing(ctx context.Context, id string) error {
	return s.SyncListing(ctx, &models.Listing{ID: id, IsDeleted: true})
}

// BulkSync pages through every live listing and upserts it, batch by batch.
// It stops at the first short page. Listings deleted in storage are not
// removed from the index here; see PruneDeleted.
func (s *Syncer) BulkSync(ctx context.Context) (BulkResult, error) {
	var res BulkResult
	for offset := 0; ; offset += s.batchSize {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		batch, err := s.store.ListListings(ctx, offset, s.batchSize, false)
		if err != nil {
			metrics.RecordSync("bulk", err)
			return res, fmt.Errorf("list listings at offset %d: %w", offset, err)
		}
		if len(batch) > 0 {
			if err := s.index.IndexBatch(ctx, batch); err != nil {
				metrics.RecordSync("bulk", err)
				return res, fmt.Errorf("index batch at offset %d: %w", offset, err)
			}
			res.TotalProcessed += len(batch)
			res.TotalBatches++
			s.logger.Debug("synced batch",
				zap.Int("batch", res.TotalBatches),
				zap.Int("size", len(batch)),
			)
		}
		if len(batch) < s.batchSize {
			break
		}
	}
	metrics.RecordSync("bulk", nil)
	s.changed()
	s.logger.Info("bulk sync completed",
		zap.Int("total_processed", res.TotalProcessed),
		zap.Int("total_batches", res.TotalBatches),
	)
	return res, nil
}

// PruneDeleted removes every soft-deleted listing from the index and returns
// how many were removed. Deleting a document the index does not hold is a
// no-op, so the count includes listings that were already gone.
func (s *Syncer) PruneDeleted(ctx context.Context) (int, error) {
	pruned := 0
	for offset := 0; ; offset += s.batchSize {
		if err := ctx.Err(); err != nil {
			return pruned, err
		}
		batch, err := s.store.ListListings(ctx, offset, s.batchSize, true)
		if err != nil {
			metrics.RecordSync("prune", err)
			return pruned, fmt.Errorf("list listings at offset %d: %w", offset, err)
		}
		for _, l := range batch {
			if !l.IsDeleted {
				continue
			}
			if err := s.index.Delete(ctx, l.ID); err != nil {
				metrics.RecordSync("prune", err)
				return pruned, fmt.Errorf("remove listing %s: %w", l.ID, err)
			}
			pruned++
		}
		if len(batch) < s.batchSize {
			break
		}
	}
	metrics.RecordSync("prune", nil)
	if pruned > 0 {
		s.changed()
	}
	s.logger.Debug("pruned deleted listings", zap.Int("pruned", pruned))
	return pruned, nil
}

func (s *Syncer) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
