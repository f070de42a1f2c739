package models

import "time"

// Tick is one price/volume observation for a symbol. Immutable once stored.
type Tick struct {
	Symbol    string
	Price     float64
	Volume    int64
	Timestamp time.Time
}

// FeatureVector is the fixed 8-field numeric summary of a 20-tick window.
// Field order matters: Slice() defines the classifier's input layout.
type FeatureVector struct {
	Velocity      float64
	Acceleration  float64
	Momentum      float64 // gain share of total movement, 0.5 on a flat window
	VolumeRatio   float64 // latest volume / window mean, 1 on zero mean
	PricePosition float64 // position of current price in [window min, window max]
	HourOfDay     float64
	MinuteOfHour  float64
	DayOfWeek     float64
}

// FeatureDim is the classifier input width.
const FeatureDim = 8

// Slice returns the vector in its canonical field order.
func (f FeatureVector) Slice() []float64 {
	return []float64{
		f.Velocity,
		f.Acceleration,
		f.Momentum,
		f.VolumeRatio,
		f.PricePosition,
		f.HourOfDay,
		f.MinuteOfHour,
		f.DayOfWeek,
	}
}
