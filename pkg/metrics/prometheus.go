package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"TradePulse/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	tradesTotal  *prometheus.CounterVec
	denialsTotal *prometheus.CounterVec
	balance      prometheus.Gauge
	dailyProfit  prometheus.Gauge
	confidence   *prometheus.GaugeVec
	lastPrice    *prometheus.GaugeVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		tradesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_trades_total",
				Help: "Total number of settled trades by outcome",
			},
			[]string{"symbol", "outcome"},
		),
		denialsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_denials_total",
				Help: "Total number of trade authorizations denied by the risk gate",
			},
			[]string{"reason"},
		),
		balance: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradepulse_balance",
				Help: "Current account balance",
			},
		),
		dailyProfit: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradepulse_daily_profit",
				Help: "Running profit for the current trading day",
			},
		),
		confidence: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradepulse_signal_confidence",
				Help: "Confidence of the most recent signal per symbol",
			},
			[]string{"symbol"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradepulse_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradepulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTrade records a settled trade.
func (r *Recorder) RecordTrade(symbol string, outcome models.Outcome) {
	r.tradesTotal.WithLabelValues(symbol, string(outcome)).Inc()
}

// RecordDenial records an authorization denied by the risk gate.
func (r *Recorder) RecordDenial(reason string) {
	r.denialsTotal.WithLabelValues(reason).Inc()
}

// RecordBalance records the account balance and daily running profit.
func (r *Recorder) RecordBalance(balance, dailyProfit float64) {
	r.balance.Set(balance)
	r.dailyProfit.Set(dailyProfit)
}

// RecordConfidence records the confidence of the latest signal.
func (r *Recorder) RecordConfidence(symbol string, confidence float64) {
	r.confidence.WithLabelValues(symbol).Set(confidence)
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
