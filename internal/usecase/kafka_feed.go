package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	pkgkafka "TradePulse/pkg/kafka"
)

// KafkaFeed is a PriceFeed driven by a Kafka tick topic. The consumer
// pushes decoded ticks in; the engine polls the newest one per symbol.
// Each tick is handed out once so replays and stalls read as "no data".
type KafkaFeed struct {
	topic   string
	metrics drepo.Metrics

	mu        sync.Mutex
	connected bool
	latest    map[string]*models.Tick
	consumed  map[string]bool
}

func NewKafkaFeed(topic string, metrics drepo.Metrics) *KafkaFeed {
	return &KafkaFeed{
		topic:    topic,
		metrics:  metrics,
		latest:   make(map[string]*models.Tick),
		consumed: make(map[string]bool),
	}
}

func (f *KafkaFeed) Topic() string { return f.topic }

// Handle decodes one tick message, schema {symbol, t, c, v} with t in
// epoch milliseconds (seconds tolerated for older producers).
func (f *KafkaFeed) Handle(_ context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		C      float64 `json:"c"`
		V      int64   `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		f.metrics.RecordError("feed_unmarshal")
		return err
	}
	ts := time.UnixMilli(m.T)
	if m.T < 1e11 { // seconds
		ts = time.Unix(m.T, 0)
	}
	f.metrics.RecordLatency("feed_ingest_lag", time.Since(ts).Seconds())

	f.mu.Lock()
	f.latest[m.Symbol] = &models.Tick{
		Symbol:    m.Symbol,
		Price:     m.C,
		Volume:    m.V,
		Timestamp: ts,
	}
	f.consumed[m.Symbol] = false
	f.mu.Unlock()
	return nil
}

// Connect marks the feed live; the consumer's lifecycle is owned by the
// application, not the feed.
func (f *KafkaFeed) Connect(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

// GetCurrentPrice returns the newest unconsumed tick, or (nil, nil) when
// nothing new has arrived since the last call.
func (f *KafkaFeed) GetCurrentPrice(_ context.Context, symbol string) (*models.Tick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tick := f.latest[symbol]
	if tick == nil || f.consumed[symbol] {
		return nil, nil
	}
	f.consumed[symbol] = true
	return tick, nil
}

func (f *KafkaFeed) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *KafkaFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaFeed)(nil)
var _ drepo.PriceFeed = (*KafkaFeed)(nil)
