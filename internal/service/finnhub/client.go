package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client is a PriceFeed backed by the Finnhub trade WebSocket. A background
// read loop keeps the latest trade per symbol; GetCurrentPrice hands each
// observation out once, so a stalled stream reads as "no fresh tick" rather
// than a repeated stale price.
type Client struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	latest    map[string]*models.Tick
	consumed  map[string]bool
	cancel    context.CancelFunc
}

func New(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) *Client {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
		latest:         make(map[string]*models.Tick),
		consumed:       make(map[string]bool),
	}
}

// Connect dials the stream, subscribes, and starts the read and ping loops.
// The loops reconnect on read failure until Close or context cancellation.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.dial(ctx); err != nil {
		return err
	}
	loopCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	go c.pingLoop(loopCtx)
	go c.readLoop(loopCtx)
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("finnhub connect: %w", err)
	}
	for _, s := range c.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := conn.WriteJSON(msg); err != nil {
			conn.Close()
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	c.log.Info("finnhub connected", logger.Strings("symbols", c.symbols))
	return nil
}

// GetCurrentPrice returns the newest unconsumed trade for the symbol, or
// (nil, nil) when nothing new has arrived since the last call.
func (c *Client) GetCurrentPrice(_ context.Context, symbol string) (*models.Tick, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil, fmt.Errorf("finnhub: not connected")
	}
	tick := c.latest[symbol]
	if tick == nil || c.consumed[symbol] {
		return nil, nil
	}
	c.consumed[symbol] = true
	return tick, nil
}

type fhTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type fhMessage struct {
	Type string    `json:"type"`
	Data []fhTrade `json:"data"`
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, b, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("finnhub read failed, reconnecting", logger.Error(err))
			if err := c.reconnect(ctx); err != nil {
				c.log.Error("finnhub reconnect failed", logger.Error(err))
				return
			}
			continue
		}

		var m fhMessage
		if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
			continue
		}
		c.mu.Lock()
		for _, d := range m.Data {
			c.latest[d.S] = &models.Tick{
				Symbol:    d.S,
				Price:     d.P,
				Volume:    int64(d.V),
				Timestamp: time.UnixMilli(d.T),
			}
			c.consumed[d.S] = false
		}
		c.mu.Unlock()
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()
			if conn != nil {
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}
}

func (c *Client) reconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connected = false
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}
	return c.dial(ctx)
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
