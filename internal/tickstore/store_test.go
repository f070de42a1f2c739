package tickstore

import (
	"errors"
	"testing"
	"time"
)

func TestAppendRejectsInvalid(t *testing.T) {
	s := New(10)
	now := time.Now()
	if err := s.Append("EURUSD", 0, 100, now); !errors.Is(err, ErrInvalidTick) {
		t.Fatalf("expected ErrInvalidTick for zero price, got %v", err)
	}
	if err := s.Append("EURUSD", -1.2, 100, now); !errors.Is(err, ErrInvalidTick) {
		t.Fatalf("expected ErrInvalidTick for negative price, got %v", err)
	}
	if err := s.Append("", 1.2, 100, now); !errors.Is(err, ErrInvalidTick) {
		t.Fatalf("expected ErrInvalidTick for empty symbol, got %v", err)
	}
	if err := s.Append("EURUSD", 1.2, -5, now); !errors.Is(err, ErrInvalidTick) {
		t.Fatalf("expected ErrInvalidTick for negative volume, got %v", err)
	}
	if s.Len("EURUSD") != 0 {
		t.Fatalf("invalid ticks must not be stored")
	}
}

func TestEvictionIsExactFIFO(t *testing.T) {
	const capacity = 50
	s := New(capacity)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < capacity+1; i++ {
		if err := s.Append("EURUSD", 1.0+float64(i), 100, base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if got := s.Len("EURUSD"); got != capacity {
		t.Fatalf("expected len %d, got %d", capacity, got)
	}
	all := s.Recent("EURUSD", capacity)
	if all[0].Price != 2.0 {
		t.Fatalf("oldest tick should have been evicted, head price=%v", all[0].Price)
	}
	if all[len(all)-1].Price != 1.0+float64(capacity) {
		t.Fatalf("newest tick missing, tail price=%v", all[len(all)-1].Price)
	}
	for i := 1; i < len(all); i++ {
		if !all[i].Timestamp.After(all[i-1].Timestamp) {
			t.Fatalf("ticks out of insertion order at %d", i)
		}
	}
}

func TestRecentReturnsFewerWhenUnavailable(t *testing.T) {
	s := New(100)
	now := time.Now()
	for i := 0; i < 3; i++ {
		if err := s.Append("BTCUSD", 50000+float64(i), 10, now); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got := s.Recent("BTCUSD", 20)
	if len(got) != 3 {
		t.Fatalf("expected 3 ticks, got %d", len(got))
	}
	if got := s.Recent("GBPUSD", 20); got != nil {
		t.Fatalf("unknown symbol should return nil, got %v", got)
	}
}

func TestSymbolsAreIsolated(t *testing.T) {
	s := New(2)
	now := time.Now()
	_ = s.Append("EURUSD", 1.1, 1, now)
	_ = s.Append("GBPUSD", 1.3, 1, now)
	_ = s.Append("EURUSD", 1.2, 1, now)
	_ = s.Append("EURUSD", 1.3, 1, now)
	if s.Len("GBPUSD") != 1 {
		t.Fatalf("GBPUSD sequence disturbed by EURUSD eviction")
	}
	if s.Len("EURUSD") != 2 {
		t.Fatalf("expected EURUSD trimmed to capacity")
	}
	latest, ok := s.Latest("EURUSD")
	if !ok || latest.Price != 1.3 {
		t.Fatalf("unexpected latest %v %v", latest, ok)
	}
}
