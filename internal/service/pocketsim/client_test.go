package pocketsim

import (
	"context"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/logger"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c := New([]string{"EURUSD", "BTCUSD"}, logger.Nop(), WithSeed(42), WithSettleDelay(0))
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return c
}

func TestGetCurrentPriceRequiresConnection(t *testing.T) {
	c := New([]string{"EURUSD"}, logger.Nop(), WithSeed(1))
	if _, err := c.GetCurrentPrice(context.Background(), "EURUSD"); err == nil {
		t.Fatal("expected error before Connect")
	}
}

func TestPricesWalkAndStayPositive(t *testing.T) {
	c := newTestClient(t)
	var prev float64
	for i := 0; i < 500; i++ {
		tick, err := c.GetCurrentPrice(context.Background(), "EURUSD")
		if err != nil {
			t.Fatalf("GetCurrentPrice: %v", err)
		}
		if tick.Price <= 0 {
			t.Fatalf("price went non-positive at step %d: %v", i, tick.Price)
		}
		if tick.Volume < 100 || tick.Volume >= 1000 {
			t.Fatalf("volume out of range: %d", tick.Volume)
		}
		if i > 0 && tick.Price == prev {
			continue // zero step is possible but the walk must not freeze
		}
		prev = tick.Price
	}
}

func TestPlaceTradeSettlement(t *testing.T) {
	c := newTestClient(t)
	wins, losses, errs := 0, 0, 0
	for i := 0; i < 200; i++ {
		res, err := c.PlaceTrade(context.Background(), "EURUSD", 0.10, models.DirectionCall, 60)
		if err != nil {
			t.Fatalf("PlaceTrade: %v", err)
		}
		switch {
		case !res.Success:
			errs++
			if res.Outcome != models.OutcomeError || res.Payout != 0 {
				t.Fatalf("failed trade carries settlement data: %+v", res)
			}
		case res.Outcome == models.OutcomeWin:
			wins++
			if res.Payout != 0.10*payoutRate {
				t.Fatalf("win payout = %v, want %v", res.Payout, 0.10*payoutRate)
			}
		case res.Outcome == models.OutcomeLoss:
			losses++
			if res.Payout != -0.10 {
				t.Fatalf("loss payout = %v, want -0.10", res.Payout)
			}
		}
	}
	if wins == 0 || losses == 0 {
		t.Fatalf("degenerate settlement mix: %d wins, %d losses, %d errors", wins, losses, errs)
	}
}

func TestPlaceTradeHonorsCancellation(t *testing.T) {
	c := New([]string{"EURUSD"}, logger.Nop(), WithSeed(1), WithSettleDelay(time.Minute))
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.PlaceTrade(ctx, "EURUSD", 0.10, models.DirectionPut, 60); err == nil {
		t.Fatal("expected context error on cancelled placement")
	}
}
