package model

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"TradePulse/internal/domain/models"
)

// ErrInsufficientData rejects training below the warm-up threshold.
var ErrInsufficientData = errors.New("insufficient training data")

const (
	// DefaultWarmup is the minimum sample count before the first train.
	DefaultWarmup = 50
	// maxBatch caps how many recent pairs a single train step consumes.
	maxBatch = 100
	// learningRate for the SGD step. Matches the source model's eta0.
	learningRate = 0.1
)

// Classifier is an incrementally trained binary classifier: a standard
// scaler fitted once on the first batch, followed by logistic regression
// updated with one SGD pass per train call. All methods are safe for
// concurrent use; Predict never observes a partially applied batch.
type Classifier struct {
	mu sync.RWMutex

	weights []float64
	bias    float64

	scalerMean   []float64
	scalerScale  []float64
	scalerFitted bool

	trained bool
	samples int
	warmup  int
}

// NewClassifier creates an untrained classifier with the given warm-up
// sample count (DefaultWarmup when <= 0).
func NewClassifier(warmup int) *Classifier {
	if warmup <= 0 {
		warmup = DefaultWarmup
	}
	return &Classifier{
		weights: make([]float64, models.FeatureDim),
		warmup:  warmup,
	}
}

// IsTrained reports whether at least one training batch has been applied.
// The transition is one-way: once trained, always trained.
func (c *Classifier) IsTrained() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.trained
}

// Info returns the read-only classifier view.
func (c *Classifier) Info() models.ModelInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return models.ModelInfo{Trained: c.trained, TrainingSamples: c.samples}
}

// Train applies one online-learning step over the most recent aligned
// feature/label pairs (at most 100). The first successful call also fits
// the scaler, which is then fixed for the lifetime of the model.
func (c *Classifier) Train(feats []models.FeatureVector, labels []float64) error {
	n := len(feats)
	if len(labels) < n {
		n = len(labels)
	}
	if n == 0 {
		return ErrInsufficientData
	}
	if n < c.warmup {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, n, c.warmup)
	}
	feats = feats[len(feats)-n:]
	labels = labels[len(labels)-n:]
	if n > maxBatch {
		feats = feats[n-maxBatch:]
		labels = labels[n-maxBatch:]
		n = maxBatch
	}

	rows := make([][]float64, n)
	for i, fv := range feats {
		rows[i] = fv.Slice()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.scalerFitted {
		c.fitScaler(rows)
	}

	for i, row := range rows {
		x := c.transform(row)
		p := sigmoid(dot(c.weights, x) + c.bias)
		// gradient of log loss: (p - y)
		g := p - labels[i]
		for j := range c.weights {
			c.weights[j] -= learningRate * g * x[j]
		}
		c.bias -= learningRate * g
	}

	c.trained = true
	c.samples += n
	return nil
}

// Predict returns the probability of a favorable outcome in [0,1].
// It never fails: untrained models and numeric breakdowns both yield the
// neutral 0.5 so a broken model degrades to "no edge".
func (c *Classifier) Predict(fv models.FeatureVector) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.trained {
		return 0.5
	}
	p := sigmoid(dot(c.weights, c.transform(fv.Slice())) + c.bias)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0.5
	}
	return p
}

// Snapshot captures the full classifier state for persistence.
func (c *Classifier) Snapshot() models.ModelSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return models.ModelSnapshot{
		Version:         models.ModelSnapshotVersion,
		Weights:         append([]float64(nil), c.weights...),
		Bias:            c.bias,
		ScalerMean:      append([]float64(nil), c.scalerMean...),
		ScalerScale:     append([]float64(nil), c.scalerScale...),
		ScalerFitted:    c.scalerFitted,
		Trained:         c.trained,
		TrainingSamples: c.samples,
	}
}

// RestoreSnapshot replaces the classifier state atomically. On validation
// failure the classifier keeps its prior state.
func (c *Classifier) RestoreSnapshot(snap models.ModelSnapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.weights = append([]float64(nil), snap.Weights...)
	c.bias = snap.Bias
	c.scalerMean = append([]float64(nil), snap.ScalerMean...)
	c.scalerScale = append([]float64(nil), snap.ScalerScale...)
	c.scalerFitted = snap.ScalerFitted
	c.trained = snap.Trained
	c.samples = snap.TrainingSamples
	return nil
}

func validateSnapshot(snap models.ModelSnapshot) error {
	if snap.Version != models.ModelSnapshotVersion {
		return fmt.Errorf("%w: schema version %d", ErrCorruptModel, snap.Version)
	}
	if len(snap.Weights) != models.FeatureDim {
		return fmt.Errorf("%w: weight dim %d", ErrCorruptModel, len(snap.Weights))
	}
	if snap.ScalerFitted && (len(snap.ScalerMean) != models.FeatureDim || len(snap.ScalerScale) != models.FeatureDim) {
		return fmt.Errorf("%w: scaler dim mismatch", ErrCorruptModel)
	}
	return nil
}

// fitScaler computes per-feature mean and standard deviation on the batch.
// Constant features get scale 1 so the transform stays finite.
func (c *Classifier) fitScaler(rows [][]float64) {
	dim := models.FeatureDim
	mean := make([]float64, dim)
	scale := make([]float64, dim)
	for _, row := range rows {
		for j := 0; j < dim; j++ {
			mean[j] += row[j]
		}
	}
	n := float64(len(rows))
	for j := 0; j < dim; j++ {
		mean[j] /= n
	}
	for _, row := range rows {
		for j := 0; j < dim; j++ {
			d := row[j] - mean[j]
			scale[j] += d * d
		}
	}
	for j := 0; j < dim; j++ {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}
	c.scalerMean = mean
	c.scalerScale = scale
	c.scalerFitted = true
}

func (c *Classifier) transform(row []float64) []float64 {
	if !c.scalerFitted {
		return row
	}
	out := make([]float64, len(row))
	for j := range row {
		out[j] = (row[j] - c.scalerMean[j]) / c.scalerScale[j]
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
