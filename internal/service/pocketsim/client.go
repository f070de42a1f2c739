package pocketsim

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/logger"
)

const (
	payoutRate  = 0.92
	errorChance = 0.02
	demoWinRate = 0.65
	liveWinRate = 0.55
	settleDelay = 500 * time.Millisecond
)

// Client simulates the broker and its market feed with a per-symbol random
// walk. It stands in for the real venue during development and in tests:
// same interface, deterministic under a seeded source.
type Client struct {
	mu        sync.Mutex
	demo      bool
	connected bool
	prices    map[string]float64
	rng       *rand.Rand
	delay     time.Duration
	log       *logger.Logger
}

type Option func(*Client)

// WithSeed fixes the random source for reproducible runs.
func WithSeed(seed int64) Option {
	return func(c *Client) { c.rng = rand.New(rand.NewSource(seed)) }
}

func WithDemoMode(demo bool) Option {
	return func(c *Client) { c.demo = demo }
}

// WithSettleDelay overrides the simulated order-processing latency.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

func New(symbols []string, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		demo:   true,
		prices: make(map[string]float64, len(symbols)),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		delay:  settleDelay,
		log:    log,
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, s := range symbols {
		c.prices[s] = c.startingPrice(s)
	}
	return c
}

func (c *Client) startingPrice(symbol string) float64 {
	switch {
	case strings.Contains(symbol, "BTC"):
		return 50000 + c.rng.Float64()*10000 - 5000
	case strings.Contains(symbol, "ETH"):
		return 3000 + c.rng.Float64()*600 - 300
	case strings.Contains(symbol, "USD"):
		return 1.0 + 0.05 + c.rng.Float64()*0.25
	default:
		return 100 + c.rng.Float64()*20 - 10
	}
}

func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	c.log.Info("simulated broker connected", logger.Int("symbols", len(c.prices)))
	return nil
}

// GetCurrentPrice advances the symbol's random walk one step and returns
// the new observation. Crypto walks with 10x the volatility of forex.
func (c *Client) GetCurrentPrice(ctx context.Context, symbol string) (*models.Tick, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil, fmt.Errorf("pocketsim: not connected")
	}
	price, ok := c.prices[symbol]
	if !ok {
		price = c.startingPrice(symbol)
	}

	vol := 0.0002
	if strings.Contains(symbol, "BTC") || strings.Contains(symbol, "ETH") {
		vol = 0.002
	}
	price += c.rng.NormFloat64() * vol * price
	c.prices[symbol] = price

	return &models.Tick{
		Symbol:    symbol,
		Price:     price,
		Volume:    100 + c.rng.Int63n(900),
		Timestamp: time.Now(),
	}, nil
}

// PlaceTrade settles a simulated binary option: a short processing delay,
// a 2% venue-error chance, and a win probability that depends on the mode.
// Wins pay 92% of the stake, losses forfeit it.
func (c *Client) PlaceTrade(ctx context.Context, symbol string, amount float64, direction models.Direction, expirySeconds int) (models.TradeResult, error) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return models.TradeResult{}, fmt.Errorf("pocketsim: not connected")
	}
	errRoll := c.rng.Float64()
	winRoll := c.rng.Float64()
	demo := c.demo
	delay := c.delay
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return models.TradeResult{}, ctx.Err()
	case <-time.After(delay):
	}

	if errRoll < errorChance {
		return models.TradeResult{Success: false, Outcome: models.OutcomeError, Err: "venue timeout"}, nil
	}

	winChance := liveWinRate
	if demo {
		winChance = demoWinRate
	}
	if winRoll < winChance {
		return models.TradeResult{Success: true, Outcome: models.OutcomeWin, Payout: amount * payoutRate}, nil
	}
	return models.TradeResult{Success: true, Outcome: models.OutcomeLoss, Payout: -amount}, nil
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return nil
}
