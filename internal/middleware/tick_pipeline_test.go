package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
)

type nopMetrics struct{}

func (nopMetrics) RecordTrade(string, models.Outcome) {}
func (nopMetrics) RecordDenial(string)                {}
func (nopMetrics) RecordBalance(float64, float64)     {}
func (nopMetrics) RecordConfidence(string, float64)   {}
func (nopMetrics) RecordLastPrice(string, float64)    {}
func (nopMetrics) RecordError(string)                 {}
func (nopMetrics) RecordLatency(string, float64)      {}

type stubProc struct {
	mu    sync.Mutex
	ticks []*models.Tick
	err   error
}

func (s *stubProc) Process(_ context.Context, t *models.Tick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.ticks = append(s.ticks, t)
	return nil
}

func (s *stubProc) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ticks)
}

func validTick(symbol string) *models.Tick {
	return &models.Tick{Symbol: symbol, Price: 1.085, Volume: 300, Timestamp: time.Now()}
}

func TestProcessRejectsInvalidTicks(t *testing.T) {
	proc := &stubProc{}
	p := NewTickPipeline(proc, nopMetrics{})

	bad := []*models.Tick{
		nil,
		{Price: 1, Volume: 1, Timestamp: time.Now()},
		{Symbol: "EURUSD", Price: 0, Volume: 1, Timestamp: time.Now()},
		{Symbol: "EURUSD", Price: 1, Volume: -1, Timestamp: time.Now()},
		{Symbol: "EURUSD", Price: 1, Volume: 1},
	}
	for i, tick := range bad {
		if err := p.Process(context.Background(), tick); err == nil {
			t.Fatalf("case %d: invalid tick accepted", i)
		}
	}
	if proc.count() != 0 {
		t.Fatalf("invalid ticks reached downstream: %d", proc.count())
	}
}

func TestProcessForwardsAndThrottles(t *testing.T) {
	proc := &stubProc{}
	p := NewTickPipeline(proc, nopMetrics{}, WithMaxRPS(1))

	if err := p.Process(context.Background(), validTick("EURUSD")); err != nil {
		t.Fatalf("first tick: %v", err)
	}
	// immediately after, the same symbol is throttled: dropped without error
	if err := p.Process(context.Background(), validTick("EURUSD")); err != nil {
		t.Fatalf("throttled tick returned error: %v", err)
	}
	// a different symbol has its own budget
	if err := p.Process(context.Background(), validTick("GBPUSD")); err != nil {
		t.Fatalf("second symbol: %v", err)
	}
	if proc.count() != 2 {
		t.Fatalf("downstream got %d ticks, want 2", proc.count())
	}
}

func TestDownstreamFailureBuffersAndFlushes(t *testing.T) {
	proc := &stubProc{err: errors.New("archive down")}
	p := NewTickPipeline(proc, nopMetrics{}, WithMaxRPS(1000), WithBufferSize(10))

	if err := p.Process(context.Background(), validTick("EURUSD")); err == nil {
		t.Fatal("expected downstream error")
	}

	// downstream recovers; the background flusher should drain the buffer
	proc.mu.Lock()
	proc.err = nil
	proc.mu.Unlock()

	p.Start(context.Background())
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if proc.count() == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("buffered tick never flushed: downstream got %d", proc.count())
}
