package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tabletally/tabletally/internal/session/store"
)

// SweeperService periodically deletes expired refresh-token and denylist
// rows so neither table grows without bound. Deletion happens in bounded
// batches: one unbounded DELETE could hold the write lock over an
// arbitrarily large row set under traffic, while small batches interleave
// with request-handling writes.
type SweeperService struct {
	Store     store.Store
	Logger    *slog.Logger
	Interval  time.Duration
	BatchSize int

	stopCh chan struct{}
	doneCh chan struct{}
}

const (
	defaultSweepInterval = 1 * time.Hour
	defaultSweepBatch    = 100
)

// NewSweeperService creates a sweeper with the given interval and batch
// size, defaulting anything non-positive.
func NewSweeperService(st store.Store, logger *slog.Logger, interval time.Duration, batchSize int) *SweeperService {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if batchSize <= 0 {
		batchSize = defaultSweepBatch
	}

	return &SweeperService{
		Store:     st,
		Logger:    logger,
		Interval:  interval,
		BatchSize: batchSize,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut it
// down gracefully.
func (s *SweeperService) Start() {
	go s.run()
	s.Logger.Info("sweeper started", "interval", s.Interval, "batch_size", s.BatchSize)
}

// Stop shuts the worker down and blocks until any in-progress sweep
// finishes.
func (s *SweeperService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("sweeper stopped")
}

func (s *SweeperService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup to clear anything accumulated while the
	// service was down.
	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep drains both tables once. The tables are independent: a failure in
// one does not stop the other, and a failed sweep is simply retried from
// scratch on the next tick since deleting expired rows is idempotent.
func (s *SweeperService) Sweep(ctx context.Context) {
	now := time.Now().UTC()

	refreshDeleted := s.sweepTable(ctx, "refresh_tokens", func() (int64, error) {
		return s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now, s.BatchSize)
	})
	denylistDeleted := s.sweepTable(ctx, "denylist", func() (int64, error) {
		return s.Store.Denylist().DeleteExpiredDenylistEntries(ctx, now, s.BatchSize)
	})

	s.Logger.Info("sweep completed",
		"refresh_tokens_deleted", refreshDeleted,
		"denylist_deleted", denylistDeleted,
	)
}

// sweepTable repeats bounded deletes until a batch comes back short, which
// signals the backlog is drained. The expiry cutoff is fixed at sweep start
// so rows expiring mid-sweep wait for the next tick.
func (s *SweeperService) sweepTable(ctx context.Context, table string, deleteBatch func() (int64, error)) int64 {
	var total int64
	for {
		n, err := deleteBatch()
		if err != nil {
			s.Logger.Error("sweep batch failed", "table", table, "deleted_so_far", total, "error", err)
			return total
		}
		total += n
		if n < int64(s.BatchSize) {
			return total
		}
	}
}
