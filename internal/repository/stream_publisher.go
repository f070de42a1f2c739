package repository

import (
	"context"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	pkgkafka "TradePulse/pkg/kafka"
)

// KafkaPublisher streams accepted ticks and settled trades to Kafka,
// keyed by symbol so per-symbol ordering survives partitioning.
type KafkaPublisher struct {
	producer   *pkgkafka.Producer
	tickTopic  string
	tradeTopic string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, tickTopic, tradeTopic string) domrepo.Publisher {
	return &KafkaPublisher{producer: producer, tickTopic: tickTopic, tradeTopic: tradeTopic}
}

func (p *KafkaPublisher) PublishTick(ctx context.Context, t *models.Tick) error {
	return p.producer.Publish(ctx, p.tickTopic, []byte(t.Symbol), map[string]interface{}{
		"symbol": t.Symbol,
		"t":      t.Timestamp.UnixMilli(),
		"c":      t.Price,
		"v":      t.Volume,
	})
}

func (p *KafkaPublisher) PublishTrade(ctx context.Context, rec *models.TradeRecord) error {
	return p.producer.Publish(ctx, p.tradeTopic, []byte(rec.Symbol), map[string]interface{}{
		"symbol":     rec.Symbol,
		"ts":         rec.Timestamp.UnixMilli(),
		"amount":     rec.Amount,
		"direction":  rec.Direction,
		"outcome":    rec.Outcome,
		"profit":     rec.Profit,
		"balance":    rec.Balance,
		"confidence": rec.Confidence,
	})
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
