package features

import (
	"sync"

	"TradePulse/internal/domain/models"
)

// History is a capacity-bounded, FIFO-evicting sequence of feature vectors.
type History struct {
	mu       sync.Mutex
	capacity int
	vecs     []models.FeatureVector
}

// NewHistory creates a History with the given capacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1000
	}
	return &History{capacity: capacity}
}

// Append records a feature vector, evicting the oldest beyond capacity.
func (h *History) Append(fv models.FeatureVector) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.vecs = append(h.vecs, fv)
	if len(h.vecs) > h.capacity {
		copy(h.vecs, h.vecs[len(h.vecs)-h.capacity:])
		h.vecs = h.vecs[:h.capacity]
	}
}

// All returns a copy of the recorded vectors in insertion order.
func (h *History) All() []models.FeatureVector {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]models.FeatureVector, len(h.vecs))
	copy(out, h.vecs)
	return out
}

// Len returns the number of recorded vectors.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.vecs)
}

// LabelHistory is a capacity-bounded sequence of binary trade outcomes,
// positionally aligned with History by the caller: exactly one label is
// appended per feature vector whose trade was executed. The two sequences
// may differ in length; only their common suffix is used for training.
type LabelHistory struct {
	mu       sync.Mutex
	capacity int
	labels   []float64
}

// NewLabelHistory creates a LabelHistory with the given capacity.
func NewLabelHistory(capacity int) *LabelHistory {
	if capacity <= 0 {
		capacity = 1000
	}
	return &LabelHistory{capacity: capacity}
}

// Append records a binary outcome (1 success, 0 failure).
func (h *LabelHistory) Append(label float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.labels = append(h.labels, label)
	if len(h.labels) > h.capacity {
		copy(h.labels, h.labels[len(h.labels)-h.capacity:])
		h.labels = h.labels[:h.capacity]
	}
}

// All returns a copy of the recorded labels in insertion order.
func (h *LabelHistory) All() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]float64, len(h.labels))
	copy(out, h.labels)
	return out
}

// Len returns the number of recorded labels.
func (h *LabelHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.labels)
}

// TrainingPairs aligns features and labels by position and returns their
// common suffix: the last min(len(feats), len(labels)) entries of each.
func TrainingPairs(feats []models.FeatureVector, labels []float64) ([]models.FeatureVector, []float64) {
	n := len(feats)
	if len(labels) < n {
		n = len(labels)
	}
	if n == 0 {
		return nil, nil
	}
	return feats[len(feats)-n:], labels[len(labels)-n:]
}
