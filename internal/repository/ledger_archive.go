package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
)

// ClickHouseArchive mirrors ticks and settled trades into ClickHouse for
// offline analysis. The in-memory ledger stays authoritative; archive
// failures are reported to the caller but never roll back a trade.
type ClickHouseArchive struct {
	db         *sql.DB
	tickTable  string
	tradeTable string
}

func NewClickHouseArchive(db *sql.DB, tickTable, tradeTable string) domrepo.LedgerArchive {
	return &ClickHouseArchive{db: db, tickTable: tickTable, tradeTable: tradeTable}
}

// SchemaStatements returns idempotent DDL for the archive tables.
func SchemaStatements(tickTable, tradeTable string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			ts DateTime64(3),
			symbol LowCardinality(String),
			price Float64,
			volume Int64
		) ENGINE = MergeTree() ORDER BY (symbol, ts)`, tickTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			ts DateTime64(3),
			symbol LowCardinality(String),
			amount Float64,
			direction LowCardinality(String),
			outcome LowCardinality(String),
			profit Float64,
			balance Float64,
			confidence Float64
		) ENGINE = MergeTree() ORDER BY (symbol, ts)`, tradeTable),
	}
}

func (a *ClickHouseArchive) StoreTick(ctx context.Context, t *models.Tick) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, price, volume) VALUES (?, ?, ?, ?)", a.tickTable)
	_, err := a.db.ExecContext(ctx, q, t.Timestamp, t.Symbol, t.Price, t.Volume)
	return err
}

func (a *ClickHouseArchive) StoreTrade(ctx context.Context, rec *models.TradeRecord) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (ts, symbol, amount, direction, outcome, profit, balance, confidence) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		a.tradeTable)
	_, err := a.db.ExecContext(ctx, q,
		rec.Timestamp,
		rec.Symbol,
		rec.Amount,
		string(rec.Direction),
		string(rec.Outcome),
		rec.Profit,
		rec.Balance,
		rec.Confidence,
	)
	return err
}

// QueryTrades returns the most recent archived trades for a symbol, newest
// first. An empty symbol matches all symbols.
func (a *ClickHouseArchive) QueryTrades(ctx context.Context, symbol string, limit int) ([]*models.TradeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf(
		"SELECT ts, symbol, amount, direction, outcome, profit, balance, confidence FROM %s WHERE (? = '' OR symbol = ?) ORDER BY ts DESC LIMIT ?",
		a.tradeTable)
	rows, err := a.db.QueryContext(ctx, q, symbol, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.TradeRecord
	for rows.Next() {
		var rec models.TradeRecord
		var ts time.Time
		var direction, outcome string
		if err := rows.Scan(&ts, &rec.Symbol, &rec.Amount, &direction, &outcome, &rec.Profit, &rec.Balance, &rec.Confidence); err != nil {
			return nil, err
		}
		rec.Timestamp = ts
		rec.Direction = models.Direction(direction)
		rec.Outcome = models.Outcome(outcome)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (a *ClickHouseArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseArchive) Close() error {
	return nil // pool lifecycle owned by pkg/clickhouse
}
