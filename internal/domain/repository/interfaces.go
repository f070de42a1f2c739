package repository

import (
	"context"

	"TradePulse/internal/domain/models"
)

// PriceFeed supplies the current market observation for a symbol.
// A (nil, nil) return means no fresh tick this cycle; the caller skips.
type PriceFeed interface {
	Connect(ctx context.Context) error
	GetCurrentPrice(ctx context.Context, symbol string) (*models.Tick, error)
	IsConnected() bool
	Close() error
}

// Broker places binary option trades. PlaceTrade is the only call allowed
// to block on the network and must not be invoked while holding engine locks.
type Broker interface {
	PlaceTrade(ctx context.Context, symbol string, amount float64, direction models.Direction, expirySeconds int) (models.TradeResult, error)
}

// Notifier is the one-way reporting sink. Implementations must never block
// the caller and must swallow delivery failures.
type Notifier interface {
	SignalEmitted(sig models.Signal)
	TradeSettled(tradeNumber int, rec models.TradeRecord)
	DailyReport(rep models.DailyReport)
	Startup(balance float64, symbols []string)
	Shutdown(stats models.Stats)
	ErrorAlert(msg string)
}

// Publisher sends accepted ticks and settled trades to a message backend.
type Publisher interface {
	PublishTick(ctx context.Context, t *models.Tick) error
	PublishTrade(ctx context.Context, rec *models.TradeRecord) error
	Close() error
}

// LedgerArchive mirrors the in-memory ledger into durable storage.
type LedgerArchive interface {
	StoreTick(ctx context.Context, t *models.Tick) error
	StoreTrade(ctx context.Context, rec *models.TradeRecord) error
	QueryTrades(ctx context.Context, symbol string, limit int) ([]*models.TradeRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// ModelStore persists the classifier snapshot as one opaque blob.
type ModelStore interface {
	Save(snap models.ModelSnapshot) error
	Load() (models.ModelSnapshot, error)
}

// Metrics records operational measurements.
type Metrics interface {
	RecordTrade(symbol string, outcome models.Outcome)
	RecordDenial(reason string)
	RecordBalance(balance, dailyProfit float64)
	RecordConfidence(symbol string, confidence float64)
	RecordLastPrice(symbol string, price float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
