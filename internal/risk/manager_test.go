package risk

import (
	"testing"
	"time"

	"TradePulse/internal/domain/models"
)

func testConfig() Config {
	return Config{
		InitialBalance: 10.0,
		MaxDailyLoss:   0.50,
		MaxDrawdown:    1.00,
		StreakLimit:    5,
		MinConfidence:  0.65,
		MaxDailyTrades: 20,
		TradingStart:   9 * 60,
		TradingEnd:     17 * 60,
	}
}

// tradingTime is a Wednesday at 12:00, inside the test window.
var tradingTime = time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)

func recordLoss(m *Manager, profit float64, now time.Time) {
	m.Record("EURUSD", 0.10, models.DirectionCall, models.OutcomeLoss, profit, 0.7, now)
}

func TestAuthorizePermitsInsideLimits(t *testing.T) {
	m := NewManager(testConfig())
	d := m.Authorize(0.80, tradingTime)
	if !d.Allowed {
		t.Fatalf("clean state denied: %s", d.Reason)
	}
}

func TestDailyLossDeniesRegardlessOfConfidence(t *testing.T) {
	m := NewManager(testConfig())
	recordLoss(m, -0.50, tradingTime)

	d := m.Authorize(0.99, tradingTime.Add(time.Minute))
	if d.Allowed {
		t.Fatal("daily loss at exact limit must deny")
	}
	if d.Reason != ReasonDailyLoss {
		t.Fatalf("reason = %s, want %s", d.Reason, ReasonDailyLoss)
	}
}

func TestDrawdownGate(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDailyLoss = 100 // keep the higher-priority gate out of the way
	m := NewManager(cfg)
	recordLoss(m, -1.00, tradingTime)

	d := m.Authorize(0.99, tradingTime.Add(time.Minute))
	if d.Allowed || d.Reason != ReasonDrawdown {
		t.Fatalf("got %+v, want drawdown denial", d)
	}
}

func TestLossStreakDeniesUntilReset(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDailyLoss = 100
	cfg.MaxDrawdown = 100
	m := NewManager(cfg)

	for i := 0; i < 5; i++ {
		recordLoss(m, -0.10, tradingTime.Add(time.Duration(i)*time.Minute))
	}
	d := m.Authorize(0.99, tradingTime.Add(10*time.Minute))
	if d.Allowed || d.Reason != ReasonLossStreak {
		t.Fatalf("got %+v, want streak denial after 5 losses", d)
	}

	m.Record("EURUSD", 0.10, models.DirectionCall, models.OutcomeWin, 0.092, 0.7, tradingTime.Add(11*time.Minute))
	if d := m.Authorize(0.99, tradingTime.Add(12*time.Minute)); !d.Allowed {
		t.Fatalf("win did not clear the streak: %s", d.Reason)
	}
}

func TestConfidenceGate(t *testing.T) {
	m := NewManager(testConfig())
	d := m.Authorize(0.64, tradingTime)
	if d.Allowed || d.Reason != ReasonConfidence {
		t.Fatalf("got %+v, want confidence denial", d)
	}
}

func TestDailyCapGate(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDailyTrades = 2
	m := NewManager(cfg)
	m.Record("EURUSD", 0.10, models.DirectionCall, models.OutcomeWin, 0.092, 0.7, tradingTime)
	m.Record("EURUSD", 0.10, models.DirectionPut, models.OutcomeWin, 0.092, 0.7, tradingTime)

	d := m.Authorize(0.99, tradingTime.Add(time.Minute))
	if d.Allowed || d.Reason != ReasonDailyCap {
		t.Fatalf("got %+v, want daily cap denial", d)
	}
}

func TestTradingHoursGate(t *testing.T) {
	m := NewManager(testConfig())
	cases := []struct {
		hour, minute int
		want         bool
	}{
		{8, 59, false},
		{9, 0, true},
		{17, 0, true},
		{17, 1, false},
	}
	for _, tc := range cases {
		now := time.Date(2025, 3, 12, tc.hour, tc.minute, 0, 0, time.UTC)
		d := m.Authorize(0.99, now)
		if d.Allowed != tc.want {
			t.Fatalf("at %02d:%02d allowed = %v, want %v", tc.hour, tc.minute, d.Allowed, tc.want)
		}
		if !tc.want && d.Reason != ReasonOffHours {
			t.Fatalf("at %02d:%02d reason = %s, want %s", tc.hour, tc.minute, d.Reason, ReasonOffHours)
		}
	}
}

func TestDayRolloverResetsCounters(t *testing.T) {
	m := NewManager(testConfig())
	for i := 0; i < 5; i++ {
		recordLoss(m, -0.10, tradingTime)
	}
	if d := m.Authorize(0.99, tradingTime); d.Allowed {
		t.Fatal("same-day authorize should deny after limit losses")
	}

	nextDay := tradingTime.Add(24 * time.Hour)
	d := m.Authorize(0.99, nextDay)
	if !d.Allowed {
		t.Fatalf("next-day authorize denied: %s", d.Reason)
	}
	s := m.Stats()
	if s.DailyProfit != 0 || s.DailyTrades != 0 || s.ConsecutiveLosses != 0 {
		t.Fatalf("daily counters not reset: %+v", s)
	}
	if s.Balance != 9.5 {
		t.Fatalf("rollover touched balance: %v", s.Balance)
	}
}

func TestRecordIsBalanceAdditive(t *testing.T) {
	m := NewManager(testConfig())
	profits := []float64{0.092, -0.10, 0.092, -0.10, -0.10}
	var sum float64
	for i, p := range profits {
		outcome := models.OutcomeWin
		if p < 0 {
			outcome = models.OutcomeLoss
		}
		rec := m.Record("EURUSD", 0.10, models.DirectionCall, outcome, p, 0.7, tradingTime.Add(time.Duration(i)*time.Minute))
		sum += p
		if got, want := rec.Balance, 10.0+sum; got != want {
			t.Fatalf("trade %d balance = %v, want %v", i, got, want)
		}
	}
	if got := len(m.History(0)); got != len(profits) {
		t.Fatalf("ledger length = %d, want %d", got, len(profits))
	}
	if got, want := m.Balance(), 10.0+sum; got != want {
		t.Fatalf("final balance = %v, want %v", got, want)
	}
}

func TestStatsOnEmptyLedger(t *testing.T) {
	m := NewManager(testConfig())
	s := m.Stats()
	if s.TotalTrades != 0 || s.WinRate != 0 || s.TotalProfit != 0 || s.ROI != 0 {
		t.Fatalf("empty ledger stats not zero: %+v", s)
	}
	if s.Balance != 10.0 {
		t.Fatalf("empty ledger balance = %v, want initial", s.Balance)
	}
}

func TestStatsDerivation(t *testing.T) {
	m := NewManager(testConfig())
	m.Record("EURUSD", 0.10, models.DirectionCall, models.OutcomeWin, 0.092, 0.7, tradingTime)
	m.Record("EURUSD", 0.10, models.DirectionPut, models.OutcomeLoss, -0.10, 0.7, tradingTime)
	m.Record("EURUSD", 0.10, models.DirectionCall, models.OutcomeWin, 0.092, 0.7, tradingTime)
	m.Record("EURUSD", 0.10, models.DirectionCall, models.OutcomeLoss, -0.10, 0.7, tradingTime)

	s := m.Stats()
	if s.WinningTrades != 2 || s.TotalTrades != 4 {
		t.Fatalf("counts wrong: %+v", s)
	}
	if s.WinRate != 50 {
		t.Fatalf("win rate = %v, want 50", s.WinRate)
	}
	wantProfit := 0.092 - 0.10 + 0.092 - 0.10
	if diff := s.TotalProfit - wantProfit; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("total profit = %v, want %v", s.TotalProfit, wantProfit)
	}
	if s.ConsecutiveLosses != 1 {
		t.Fatalf("streak = %d, want 1", s.ConsecutiveLosses)
	}
}

func TestHistoryReturnsMostRecent(t *testing.T) {
	m := NewManager(testConfig())
	for i := 0; i < 10; i++ {
		recordLoss(m, -0.01, tradingTime.Add(time.Duration(i)*time.Second))
	}
	last := m.History(3)
	if len(last) != 3 {
		t.Fatalf("History(3) returned %d entries", len(last))
	}
	if !last[2].Timestamp.After(last[0].Timestamp) {
		t.Fatal("history not in insertion order")
	}
}
