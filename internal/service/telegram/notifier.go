package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TradePulse/internal/domain/models"
	httpclient "TradePulse/pkg/http"
	"TradePulse/pkg/logger"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier posts HTML-formatted messages to Telegram chats. Every call is
// fire-and-forget: messages go through a bounded queue drained by one
// worker, and are dropped with a log line when the queue is full or the
// API rejects them. Trading state never waits on delivery.
type Notifier struct {
	apiBase   string
	botToken  string
	channelID string // signals and reports
	groupID   string // trade results and error alerts
	client    *httpclient.Client
	log       *logger.Logger

	queue chan outgoing
	done  chan struct{}
}

type outgoing struct {
	chatID string
	text   string
}

type Option func(*Notifier)

// WithAPIBase overrides the Telegram API host. For tests.
func WithAPIBase(base string) Option {
	return func(n *Notifier) { n.apiBase = strings.TrimRight(base, "/") }
}

func WithQueueSize(size int) Option {
	return func(n *Notifier) { n.queue = make(chan outgoing, size) }
}

func New(botToken, channelID, groupID string, log *logger.Logger, opts ...Option) *Notifier {
	n := &Notifier{
		apiBase:   defaultAPIBase,
		botToken:  botToken,
		channelID: channelID,
		groupID:   groupID,
		client:    httpclient.NewClient(httpclient.WithTimeout(10 * time.Second)),
		log:       log,
		queue:     make(chan outgoing, 64),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	go n.worker()
	return n
}

func (n *Notifier) worker() {
	defer close(n.done)
	for msg := range n.queue {
		n.send(msg)
	}
}

func (n *Notifier) send(msg outgoing) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	err := n.client.SendAndParse(ctx, &httpclient.RequestOptions{
		Method:  httpclient.MethodPost,
		URL:     url,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body: map[string]string{
			"chat_id":    msg.chatID,
			"text":       msg.text,
			"parse_mode": "HTML",
		},
	}, nil)
	if err != nil {
		n.log.Warn("telegram delivery failed", logger.Error(err))
	}
}

// enqueue drops the message when the bot is unconfigured or the queue is
// full; notification loss is acceptable, blocking the engine is not.
func (n *Notifier) enqueue(chatID, text string) {
	if n.botToken == "" || chatID == "" {
		return
	}
	select {
	case n.queue <- outgoing{chatID: chatID, text: text}:
	default:
		n.log.Warn("telegram queue full, dropping message")
	}
}

// Close stops accepting messages and waits for the queue to drain.
func (n *Notifier) Close() {
	close(n.queue)
	<-n.done
}

func (n *Notifier) SignalEmitted(sig models.Signal) {
	emoji := "\U0001F7E2" // green circle
	if sig.Direction == models.DirectionPut {
		emoji = "\U0001F534" // red circle
	}
	text := fmt.Sprintf(`%s <b>TRADING SIGNAL</b> %s

<b>Asset:</b> %s
<b>Direction:</b> %s
<b>Price:</b> %.5f
<b>Confidence:</b> %.2f%%
<b>Time:</b> %s

#TradingSignal #%s #%s`,
		emoji, emoji,
		sig.Symbol,
		strings.ToUpper(string(sig.Direction)),
		sig.Price,
		sig.Confidence*100,
		sig.Timestamp.Format("2006-01-02 15:04:05"),
		strings.ReplaceAll(sig.Symbol, "/", ""),
		sig.Direction,
	)
	n.enqueue(n.channelID, text)
}

func (n *Notifier) TradeSettled(tradeNumber int, rec models.TradeRecord) {
	emoji := "✅" // check mark
	if rec.Outcome != models.OutcomeWin {
		emoji = "❌" // cross mark
	}
	text := fmt.Sprintf(`%s <b>TRADE RESULT</b> %s

<b>Trade:</b> #%d
<b>Result:</b> %s
<b>Profit:</b> $%.2f
<b>Balance:</b> $%.2f
<b>Confidence:</b> %.2f%%

#TradeResult #%s`,
		emoji, emoji,
		tradeNumber,
		strings.ToUpper(string(rec.Outcome)),
		rec.Profit,
		rec.Balance,
		rec.Confidence*100,
		rec.Outcome,
	)
	n.enqueue(n.groupID, text)
}

func (n *Notifier) DailyReport(rep models.DailyReport) {
	chart := "\U0001F4CA"
	text := fmt.Sprintf(`%s <b>DAILY TRADING REPORT</b> %s

<b>Date:</b> %s
<b>Total Trades:</b> %d
<b>Winning Trades:</b> %d
<b>Win Rate:</b> %.1f%%
<b>Total Profit:</b> $%.2f
<b>Ending Balance:</b> $%.2f

#DailyReport`,
		chart, chart,
		rep.Date.Format("2006-01-02"),
		rep.TotalTrades,
		rep.WinningTrades,
		rep.WinRate,
		rep.TotalProfit,
		rep.EndingBalance,
	)
	n.enqueue(n.channelID, text)
}

func (n *Notifier) Startup(balance float64, symbols []string) {
	text := fmt.Sprintf(`%s <b>BOT STARTED</b>

<b>Balance:</b> $%.2f
<b>Assets:</b> %s`,
		"\U0001F916", balance, strings.Join(symbols, ", "))
	n.enqueue(n.channelID, text)
}

func (n *Notifier) Shutdown(stats models.Stats) {
	text := fmt.Sprintf(`%s <b>BOT STOPPED</b>

<b>Total Trades:</b> %d
<b>Win Rate:</b> %.1f%%
<b>Total Profit:</b> $%.2f
<b>Final Balance:</b> $%.2f`,
		"\U0001F6D1", stats.TotalTrades, stats.WinRate, stats.TotalProfit, stats.Balance)
	n.enqueue(n.channelID, text)
}

func (n *Notifier) ErrorAlert(msg string) {
	if len(msg) > 100 {
		msg = msg[:100] + "..."
	}
	siren := "\U0001F6A8"
	text := fmt.Sprintf(`%s <b>BOT ERROR ALERT</b> %s

<b>Time:</b> %s
<b>Error:</b> <code>%s</code>

#ErrorAlert`,
		siren, siren, time.Now().Format("2006-01-02 15:04:05"), msg)
	n.enqueue(n.groupID, text)
}
