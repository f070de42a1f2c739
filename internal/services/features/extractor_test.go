package features

import (
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/tickstore"
)

func vecWithVelocity(v float64) models.FeatureVector {
	return models.FeatureVector{Velocity: v}
}

func fillWindow(t *testing.T, s *tickstore.Store, symbol string, prices []float64, volumes []int64) {
	t.Helper()
	base := time.Date(2025, 3, 12, 14, 30, 0, 0, time.UTC) // a Wednesday
	for i, p := range prices {
		var v int64 = 100
		if volumes != nil {
			v = volumes[i]
		}
		if err := s.Append(symbol, p, v, base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func flat(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

func TestComputeInsufficientData(t *testing.T) {
	s := tickstore.New(1000)
	ex := NewExtractor(s, 1000)
	fillWindow(t, s, "EURUSD", flat(WindowSize-1, 1.1), nil)
	if _, ok := ex.Compute("EURUSD"); ok {
		t.Fatalf("expected insufficient data below %d ticks", WindowSize)
	}
	if ex.History().Len() != 0 {
		t.Fatalf("no vector must be recorded on insufficient data")
	}
}

func TestComputeFlatWindowDefaults(t *testing.T) {
	s := tickstore.New(1000)
	ex := NewExtractor(s, 1000)
	fillWindow(t, s, "EURUSD", flat(WindowSize, 1.1), nil)

	fv, ok := ex.Compute("EURUSD")
	if !ok {
		t.Fatalf("expected a feature vector at %d ticks", WindowSize)
	}
	if fv.Velocity != 0 || fv.Acceleration != 0 {
		t.Fatalf("flat window must have zero velocity/acceleration, got %v/%v", fv.Velocity, fv.Acceleration)
	}
	if fv.Momentum != 0.5 {
		t.Fatalf("flat window momentum must default to 0.5, got %v", fv.Momentum)
	}
	if fv.PricePosition != 0.5 {
		t.Fatalf("zero-range window position must default to 0.5, got %v", fv.PricePosition)
	}
	if fv.VolumeRatio != 1.0 {
		t.Fatalf("uniform volume ratio must be 1, got %v", fv.VolumeRatio)
	}
	if ex.History().Len() != 1 {
		t.Fatalf("vector must be recorded in history")
	}
}

func TestComputeZeroVolumeWindow(t *testing.T) {
	s := tickstore.New(1000)
	ex := NewExtractor(s, 1000)
	vols := make([]int64, WindowSize)
	fillWindow(t, s, "EURUSD", flat(WindowSize, 1.1), vols)

	fv, ok := ex.Compute("EURUSD")
	if !ok {
		t.Fatalf("expected a feature vector")
	}
	if fv.VolumeRatio != 1.0 {
		t.Fatalf("zero mean volume must default ratio to 1, got %v", fv.VolumeRatio)
	}
}

func TestComputeTrendingWindow(t *testing.T) {
	s := tickstore.New(1000)
	ex := NewExtractor(s, 1000)
	prices := make([]float64, WindowSize)
	for i := range prices {
		prices[i] = 1.0 + 0.01*float64(i)
	}
	fillWindow(t, s, "EURUSD", prices, nil)

	fv, ok := ex.Compute("EURUSD")
	if !ok {
		t.Fatalf("expected a feature vector")
	}
	if fv.Velocity <= 0 {
		t.Fatalf("uptrend must have positive velocity, got %v", fv.Velocity)
	}
	if fv.Momentum != 1.0 {
		t.Fatalf("pure uptrend momentum must be 1, got %v", fv.Momentum)
	}
	if fv.PricePosition != 1.0 {
		t.Fatalf("price at window max must have position 1, got %v", fv.PricePosition)
	}
	if fv.PricePosition < 0 || fv.PricePosition > 1 {
		t.Fatalf("position out of [0,1]: %v", fv.PricePosition)
	}
}

func TestClockFieldsFromLatestTick(t *testing.T) {
	s := tickstore.New(1000)
	ex := NewExtractor(s, 1000)
	fillWindow(t, s, "EURUSD", flat(WindowSize, 1.1), nil)

	fv, _ := ex.Compute("EURUSD")
	// window starts 2025-03-12 14:30:00 UTC, last tick is +19s
	if fv.HourOfDay != 14 || fv.MinuteOfHour != 30 {
		t.Fatalf("clock fields must come from the latest tick, got %v:%v", fv.HourOfDay, fv.MinuteOfHour)
	}
	if fv.DayOfWeek != 2 { // Wednesday, Monday=0
		t.Fatalf("expected weekday 2, got %v", fv.DayOfWeek)
	}
}

func TestHistoryBounded(t *testing.T) {
	h := NewHistory(5)
	for i := 0; i < 8; i++ {
		h.Append(vecWithVelocity(float64(i)))
	}
	all := h.All()
	if len(all) != 5 {
		t.Fatalf("expected 5 vectors, got %d", len(all))
	}
	if all[0].Velocity != 3 || all[4].Velocity != 7 {
		t.Fatalf("unexpected eviction window: %v..%v", all[0].Velocity, all[4].Velocity)
	}
}

func TestTrainingPairsCommonSuffix(t *testing.T) {
	fh := NewHistory(100)
	lh := NewLabelHistory(100)
	for i := 0; i < 10; i++ {
		fh.Append(vecWithVelocity(float64(i)))
	}
	for i := 0; i < 4; i++ {
		lh.Append(1)
	}
	fs, ls := TrainingPairs(fh.All(), lh.All())
	if len(fs) != 4 || len(ls) != 4 {
		t.Fatalf("expected common suffix length 4, got %d/%d", len(fs), len(ls))
	}
	if fs[0].Velocity != 6 {
		t.Fatalf("suffix must keep the most recent features, got head %v", fs[0].Velocity)
	}

	fs, ls = TrainingPairs(nil, lh.All())
	if fs != nil || ls != nil {
		t.Fatalf("empty side must yield nil pairs")
	}
}
