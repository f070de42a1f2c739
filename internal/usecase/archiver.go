package usecase

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
)

// Archiver fans accepted ticks and settled trades out to the configured
// backends. It sits on the archive side-path: the engine records trades in
// memory first, and archive errors never affect the ledger.
type Archiver struct {
	pub     drepo.Publisher
	store   drepo.LedgerArchive
	metrics drepo.Metrics
	backend string // kafka, clickhouse, or both
}

func NewArchiver(pub drepo.Publisher, store drepo.LedgerArchive, metrics drepo.Metrics, backend string) *Archiver {
	return &Archiver{pub: pub, store: store, metrics: metrics, backend: backend}
}

func (a *Archiver) useKafka() bool {
	return a.pub != nil && (a.backend == "kafka" || a.backend == "both")
}

func (a *Archiver) useClickHouse() bool {
	return a.store != nil && (a.backend == "clickhouse" || a.backend == "both")
}

// Process routes one tick to the configured backends. Satisfies the tick
// pipeline's downstream interface.
func (a *Archiver) Process(ctx context.Context, t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("tick is nil")
	}
	start := time.Now()

	if a.useKafka() {
		if err := a.pub.PublishTick(ctx, t); err != nil {
			a.metrics.RecordError("archive_tick_kafka")
			return fmt.Errorf("publish tick: %w", err)
		}
	}
	if a.useClickHouse() {
		if err := a.store.StoreTick(ctx, t); err != nil {
			a.metrics.RecordError("archive_tick_clickhouse")
			return fmt.Errorf("store tick: %w", err)
		}
	}

	a.metrics.RecordLatency("archive_tick", time.Since(start).Seconds())
	return nil
}

// ArchiveTrade mirrors a settled trade to the backends.
func (a *Archiver) ArchiveTrade(ctx context.Context, rec *models.TradeRecord) error {
	if rec == nil {
		return fmt.Errorf("trade record is nil")
	}
	start := time.Now()

	if a.useKafka() {
		if err := a.pub.PublishTrade(ctx, rec); err != nil {
			a.metrics.RecordError("archive_trade_kafka")
			return fmt.Errorf("publish trade: %w", err)
		}
	}
	if a.useClickHouse() {
		if err := a.store.StoreTrade(ctx, rec); err != nil {
			a.metrics.RecordError("archive_trade_clickhouse")
			return fmt.Errorf("store trade: %w", err)
		}
	}

	a.metrics.RecordLatency("archive_trade", time.Since(start).Seconds())
	return nil
}

// Close releases the backends.
func (a *Archiver) Close() {
	if a.pub != nil {
		_ = a.pub.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}
