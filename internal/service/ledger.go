package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/settleup/internal/cache"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/storage"
)

// Ledger feeds a group's history to the settlement engine and caches the
// result. Every write that changes a group's expenses or recorded
// settlements must call Invalidate.
type Ledger struct {
	store  storage.Store
	cache  cache.SettlementCache
	logger *slog.Logger
}

// NewLedger returns a Ledger. A nil cache disables caching.
func NewLedger(store storage.Store, c cache.SettlementCache, logger *slog.Logger) *Ledger {
	if c == nil {
		c = cache.Noop{}
	}
	return &Ledger{store: store, cache: c, logger: logger}
}

// Records returns every engine input for the group: its expenses followed by
// its recorded settlements, read from one snapshot of the store.
func (l *Ledger) Records(ctx context.Context, groupID string) ([]calculator.Expense, error) {
	expenses, settlements, err := l.store.GroupRecords(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group records: %w", err)
	}

	records := make([]calculator.Expense, 0, len(expenses)+len(settlements))
	for _, e := range expenses {
		records = append(records, e.Record())
	}
	for _, s := range settlements {
		records = append(records, s.Record())
	}
	return records, nil
}

// Transfers returns the outstanding transfers for the group. Cache failures
// are logged and fall through to a fresh computation.
func (l *Ledger) Transfers(ctx context.Context, groupID string) ([]calculator.Transfer, error) {
	cached, err := l.cache.Get(ctx, groupID)
	switch {
	case err == nil:
		metrics.SettlementCache.WithLabelValues(metrics.CacheHit).Inc()
		return cached, nil
	case errors.Is(err, cache.ErrMiss):
		metrics.SettlementCache.WithLabelValues(metrics.CacheMiss).Inc()
	default:
		metrics.SettlementCache.WithLabelValues(metrics.CacheError).Inc()
		l.logger.Warn("Settlement cache read failed", "group_id", groupID, "error", err)
	}

	_, transfers, err := l.Settle(ctx, groupID)
	return transfers, err
}

// Settle loads the group's records, computes their transfers and refreshes
// the cache. Both results come from the same load, so they always agree.
func (l *Ledger) Settle(ctx context.Context, groupID string) ([]calculator.Expense, []calculator.Transfer, error) {
	// The version is read before the records: if a write invalidates the
	// group while they load, the result is not cached.
	version, versionErr := l.cache.Version(ctx, groupID)
	if versionErr != nil {
		metrics.SettlementCache.WithLabelValues(metrics.CacheError).Inc()
		l.logger.Warn("Settlement cache version read failed", "group_id", groupID, "error", versionErr)
	}

	records, err := l.Records(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	transfers := calculator.ComputeSettlement(records)
	metrics.SettlementTransfers.Observe(float64(len(transfers)))
	l.logger.Debug("Settlement computed", "group_id", groupID, "records", len(records), "transfers", len(transfers))

	if versionErr != nil {
		return records, transfers, nil
	}
	switch err := l.cache.Set(ctx, groupID, version, transfers); {
	case errors.Is(err, cache.ErrStale):
		l.logger.Debug("Settlement changed while computing, not cached", "group_id", groupID)
	case err != nil:
		metrics.SettlementCache.WithLabelValues(metrics.CacheError).Inc()
		l.logger.Warn("Settlement cache write failed", "group_id", groupID, "error", err)
	}
	return records, transfers, nil
}

// Invalidate drops the cached settlement for the group.
func (l *Ledger) Invalidate(ctx context.Context, groupID string) {
	if err := l.cache.Invalidate(ctx, groupID); err != nil {
		metrics.SettlementCache.WithLabelValues(metrics.CacheError).Inc()
		l.logger.Warn("Settlement cache invalidation failed", "group_id", groupID, "error", err)
	}
}
