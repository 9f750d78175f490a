package indexsync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reconciler periodically runs BulkSync and then PruneDeleted to repair
// upserts and deletes the index missed.
type Reconciler struct {
	syncer   *Syncer
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	isRunning bool
	stopChan  chan struct{}
	wg        sync.WaitGroup
	runs      int
}

// NewReconciler creates a reconciler that syncs every interval.
func NewReconciler(syncer *Syncer, interval time.Duration, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		syncer:   syncer,
		interval: interval,
		timeout:  5 * time.Minute,
		logger:   logger,
	}
}

// Start begins the loop. It runs one sync immediately. Calling Start on a
// running reconciler does nothing.
func (r *Reconciler) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isRunning || r.interval <= 0 {
		return
	}
	r.isRunning = true
	r.stopChan = make(chan struct{})

	r.logger.Info("starting index reconciliation", zap.Duration("interval", r.interval))
	r.wg.Add(1)
	go r.loop(r.stopChan)
}

// Stop ends the loop and waits for a running sync to finish.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return
	}
	r.isRunning = false
	close(r.stopChan)
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info("index reconciliation stopped")
}

// Runs returns how many syncs have completed.
func (r *Reconciler) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func (r *Reconciler) loop(stop <-chan struct{}) {
	defer r.wg.Done()

	r.reconcile(stop)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.reconcile(stop)
		}
	}
}

func (r *Reconciler) reconcile(stop <-chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	res, err := r.syncer.BulkSync(ctx)
	pruned := 0
	if err == nil {
		pruned, err = r.syncer.PruneDeleted(ctx)
	}
	if err != nil {
		r.logger.Warn("index reconciliation failed", zap.Error(err))
	} else {
		r.logger.Info("index reconciliation completed",
			zap.Int("listings", res.TotalProcessed),
			zap.Int("pruned", pruned),
			zap.Duration("duration", time.Since(start)),
		)
	}
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()
}
