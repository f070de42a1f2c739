package features

import (
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/tickstore"
)

// WindowSize is the number of ticks required before features can be computed.
const WindowSize = 20

// Extractor turns the recent tick window of a symbol into a fixed-width
// feature vector and records it in the bounded feature history for training.
type Extractor struct {
	ticks *tickstore.Store
	hist  *History
}

// NewExtractor creates an Extractor backed by the given tick store.
// historyCapacity bounds the retained feature vectors (FIFO eviction).
func NewExtractor(ticks *tickstore.Store, historyCapacity int) *Extractor {
	return &Extractor{ticks: ticks, hist: NewHistory(historyCapacity)}
}

// History exposes the recorded feature history.
func (e *Extractor) History() *History { return e.hist }

// Compute derives the feature vector from the last WindowSize ticks of a
// symbol. ok=false signals insufficient data (an absence, not an error);
// no feature vector is recorded in that case.
func (e *Extractor) Compute(symbol string) (models.FeatureVector, bool) {
	window := e.ticks.Recent(symbol, WindowSize)
	if len(window) < WindowSize {
		return models.FeatureVector{}, false
	}

	prices := make([]float64, len(window))
	for i, t := range window {
		prices[i] = t.Price
	}
	deltas := diff(prices)

	current := window[len(window)-1]
	lo, hi := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}

	position := 0.5
	if hi != lo {
		position = (current.Price - lo) / (hi - lo)
	}

	var volSum float64
	for _, t := range window {
		volSum += float64(t.Volume)
	}
	volRatio := 1.0
	if mean := volSum / float64(len(window)); mean > 0 {
		volRatio = float64(current.Volume) / mean
	}

	// clock fields come from the latest tick so vectors replay deterministically
	ts := current.Timestamp
	fv := models.FeatureVector{
		Velocity:      mean(deltas),
		Acceleration:  mean(diff(deltas)),
		Momentum:      momentum(deltas),
		VolumeRatio:   volRatio,
		PricePosition: position,
		HourOfDay:     float64(ts.Hour()),
		MinuteOfHour:  float64(ts.Minute()),
		DayOfWeek:     float64(weekday(ts)),
	}
	e.hist.Append(fv)
	return fv, true
}

// momentum computes sum(gains) / (sum(gains) + sum(|losses|)),
// defaulting to the neutral 0.5 on a flat window.
func momentum(deltas []float64) float64 {
	var gains, losses float64
	for _, d := range deltas {
		if d > 0 {
			gains += d
		} else {
			losses -= d
		}
	}
	if gains+losses == 0 {
		return 0.5
	}
	return gains / (gains + losses)
}

func diff(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out[i-1] = xs[i] - xs[i-1]
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// weekday maps Monday=0 through Sunday=6.
func weekday(ts time.Time) int {
	return (int(ts.Weekday()) + 6) % 7
}
