package models

import "time"

// Direction is the side of a binary option trade.
type Direction string

const (
	DirectionCall Direction = "call"
	DirectionPut  Direction = "put"
)

// Outcome of a settled trade.
type Outcome string

const (
	OutcomeWin   Outcome = "win"
	OutcomeLoss  Outcome = "loss"
	OutcomeError Outcome = "error"
)

// TradeResult is the broker's settlement response for one placed trade.
// Success=false means the order never reached the book; no record is kept.
type TradeResult struct {
	Success bool
	Outcome Outcome
	Payout  float64 // signed: positive on win, negative on loss
	Err     string
}

// TradeRecord is one settled trade in the ledger. Immutable once appended.
type TradeRecord struct {
	Timestamp   time.Time
	Symbol      string
	Amount      float64
	Direction   Direction
	Outcome     Outcome
	Profit      float64
	Balance     float64 // balance after this trade
	DailyProfit float64 // running daily profit after this trade
	DailyTrades int     // daily trade count including this trade
	Confidence  float64
}

// Stats summarizes the ledger. All-zero on an empty ledger.
type Stats struct {
	TotalTrades       int
	WinningTrades     int
	WinRate           float64 // percent
	TotalProfit       float64
	ROI               float64 // percent of initial balance
	ConsecutiveLosses int
	DailyProfit       float64
	DailyTrades       int
	Balance           float64
}

// Signal is an emitted trade intent, published before execution.
type Signal struct {
	Symbol     string
	Direction  Direction
	Confidence float64
	Price      float64
	Timestamp  time.Time
}

// DailyReport aggregates one calendar day of trading for the reporting sink.
type DailyReport struct {
	Date          time.Time
	TotalTrades   int
	WinningTrades int
	WinRate       float64
	TotalProfit   float64
	EndingBalance float64
}
