package tickstore

import (
	"errors"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
)

// ErrInvalidTick rejects observations that violate tick invariants.
var ErrInvalidTick = errors.New("invalid tick")

// Store holds the most recent ticks per symbol, bounded to a fixed capacity.
// Eviction is FIFO: appending beyond capacity drops the oldest entry.
type Store struct {
	mu       sync.RWMutex
	capacity int
	ticks    map[string][]models.Tick
}

// New creates a Store with the given per-symbol capacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Store{
		capacity: capacity,
		ticks:    make(map[string][]models.Tick),
	}
}

// Append validates and stores a tick, evicting the oldest entry for the
// symbol once the capacity is exceeded.
func (s *Store) Append(symbol string, price float64, volume int64, ts time.Time) error {
	if symbol == "" {
		return ErrInvalidTick
	}
	if price <= 0 {
		return ErrInvalidTick
	}
	if volume < 0 {
		return ErrInvalidTick
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := append(s.ticks[symbol], models.Tick{
		Symbol:    symbol,
		Price:     price,
		Volume:    volume,
		Timestamp: ts,
	})
	if len(seq) > s.capacity {
		// shift instead of reslice so the backing array does not pin evicted ticks
		copy(seq, seq[len(seq)-s.capacity:])
		seq = seq[:s.capacity]
	}
	s.ticks[symbol] = seq
	return nil
}

// Recent returns up to the last n ticks for a symbol in insertion order.
func (s *Store) Recent(symbol string, n int) []models.Tick {
	if n <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.ticks[symbol]
	if len(seq) == 0 {
		return nil
	}
	if n > len(seq) {
		n = len(seq)
	}
	out := make([]models.Tick, n)
	copy(out, seq[len(seq)-n:])
	return out
}

// Len returns the number of stored ticks for a symbol.
func (s *Store) Len(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ticks[symbol])
}

// Latest returns the most recent tick for a symbol, if any.
func (s *Store) Latest(symbol string) (models.Tick, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq := s.ticks[symbol]
	if len(seq) == 0 {
		return models.Tick{}, false
	}
	return seq[len(seq)-1], true
}
