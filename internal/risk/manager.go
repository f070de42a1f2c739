package risk

import (
	"sync"
	"time"

	"TradePulse/internal/domain/models"
)

// Denial reasons, one per gate. Exposed so callers can log and count them.
const (
	ReasonDailyLoss  = "daily_loss_limit"
	ReasonDrawdown   = "max_drawdown"
	ReasonLossStreak = "loss_streak"
	ReasonConfidence = "low_confidence"
	ReasonDailyCap   = "daily_trade_cap"
	ReasonOffHours   = "outside_trading_hours"
)

// Config is the immutable risk policy, fixed at construction.
type Config struct {
	InitialBalance float64
	MaxDailyLoss   float64 // deny once daily profit <= -MaxDailyLoss
	MaxDrawdown    float64 // deny once balance <= InitialBalance - MaxDrawdown
	StreakLimit    int     // deny once consecutive losses reach this count
	MinConfidence  float64
	MaxDailyTrades int
	TradingStart   int // minutes since midnight, inclusive
	TradingEnd     int // minutes since midnight, inclusive
}

// Decision is the outcome of one authorize call.
type Decision struct {
	Allowed bool
	Reason  string // set on denial, names the first gate that tripped
}

// Manager guards trade admission and keeps the authoritative ledger.
// Pure state machine: callers supply the clock, the manager does no I/O.
type Manager struct {
	mu  sync.RWMutex
	cfg Config

	balance    float64
	ledger     []models.TradeRecord
	lossStreak int

	dailyProfit float64
	dailyTrades int
	lastTrade   time.Time
}

func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, balance: cfg.InitialBalance}
}

// Authorize evaluates the six hard gates in priority order and returns the
// first denial, or a permit when all pass. If the last recorded trade is
// from an earlier calendar date, daily counters reset before evaluation;
// day rollover is a side effect of authorization, not a scheduled job.
func (m *Manager) Authorize(confidence float64, now time.Time) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rollover(now)

	switch {
	case m.dailyProfit <= -m.cfg.MaxDailyLoss:
		return Decision{Reason: ReasonDailyLoss}
	case m.balance <= m.cfg.InitialBalance-m.cfg.MaxDrawdown:
		return Decision{Reason: ReasonDrawdown}
	case m.lossStreak >= m.cfg.StreakLimit:
		return Decision{Reason: ReasonLossStreak}
	case confidence < m.cfg.MinConfidence:
		return Decision{Reason: ReasonConfidence}
	case m.dailyTrades >= m.cfg.MaxDailyTrades:
		return Decision{Reason: ReasonDailyCap}
	case !m.withinHours(now):
		return Decision{Reason: ReasonOffHours}
	}
	return Decision{Allowed: true}
}

// Record books a settled trade. It always succeeds: balance and daily
// counters update, the streak resets on a win or grows on a loss, and the
// appended ledger entry is returned with the post-update balance.
func (m *Manager) Record(symbol string, amount float64, direction models.Direction, outcome models.Outcome, profit, confidence float64, now time.Time) models.TradeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.balance += profit
	m.dailyProfit += profit
	m.dailyTrades++
	if outcome == models.OutcomeWin {
		m.lossStreak = 0
	} else if outcome == models.OutcomeLoss {
		m.lossStreak++
	}
	m.lastTrade = now

	rec := models.TradeRecord{
		Timestamp:   now,
		Symbol:      symbol,
		Amount:      amount,
		Direction:   direction,
		Outcome:     outcome,
		Profit:      profit,
		Balance:     m.balance,
		DailyProfit: m.dailyProfit,
		DailyTrades: m.dailyTrades,
		Confidence:  confidence,
	}
	m.ledger = append(m.ledger, rec)
	return rec
}

// Stats derives the reporting view from the ledger. An empty ledger yields
// zero-valued stats with the starting balance, never an error.
func (m *Manager) Stats() models.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := models.Stats{
		Balance:           m.balance,
		ConsecutiveLosses: m.lossStreak,
		DailyProfit:       m.dailyProfit,
		DailyTrades:       m.dailyTrades,
		TotalTrades:       len(m.ledger),
	}
	if len(m.ledger) == 0 {
		return s
	}
	for _, rec := range m.ledger {
		if rec.Outcome == models.OutcomeWin {
			s.WinningTrades++
		}
		s.TotalProfit += rec.Profit
	}
	s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
	if m.cfg.InitialBalance > 0 {
		s.ROI = s.TotalProfit / m.cfg.InitialBalance * 100
	}
	return s
}

// History returns up to n most recent ledger entries, oldest first.
// n <= 0 returns the full ledger.
func (m *Manager) History(n int) []models.TradeRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n <= 0 || n > len(m.ledger) {
		n = len(m.ledger)
	}
	out := make([]models.TradeRecord, n)
	copy(out, m.ledger[len(m.ledger)-n:])
	return out
}

// Balance returns the current account balance.
func (m *Manager) Balance() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balance
}

// rollover resets daily counters when the calendar date has advanced past
// the last recorded trade. Caller must hold the write lock.
func (m *Manager) rollover(now time.Time) {
	if m.lastTrade.IsZero() {
		return
	}
	ly, lm, ld := m.lastTrade.Date()
	ny, nm, nd := now.Date()
	if ly != ny || lm != nm || ld != nd {
		m.dailyProfit = 0
		m.dailyTrades = 0
		m.lossStreak = 0
	}
}

func (m *Manager) withinHours(now time.Time) bool {
	minute := now.Hour()*60 + now.Minute()
	return minute >= m.cfg.TradingStart && minute <= m.cfg.TradingEnd
}
