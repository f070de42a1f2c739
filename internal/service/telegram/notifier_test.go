package telegram

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/logger"
)

type capture struct {
	mu   sync.Mutex
	reqs []map[string]string
}

func (c *capture) handler(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	c.mu.Lock()
	c.reqs = append(c.reqs, map[string]string{
		"path":       r.URL.Path,
		"chat_id":    r.PostFormValue("chat_id"),
		"text":       r.PostFormValue("text"),
		"parse_mode": r.PostFormValue("parse_mode"),
	})
	c.mu.Unlock()
	w.Write([]byte(`{"ok":true}`))
}

func (c *capture) wait(t *testing.T, n int) []map[string]string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		got := len(c.reqs)
		c.mu.Unlock()
		if got >= n {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.reqs) < n {
		t.Fatalf("got %d requests, want %d", len(c.reqs), n)
	}
	return append([]map[string]string(nil), c.reqs...)
}

func TestMessagesRouteToConfiguredChats(t *testing.T) {
	var sink capture
	srv := httptest.NewServer(http.HandlerFunc(sink.handler))
	defer srv.Close()

	n := New("token123", "chan-1", "group-1", logger.Nop(), WithAPIBase(srv.URL))
	n.SignalEmitted(models.Signal{
		Symbol: "EURUSD", Direction: models.DirectionCall,
		Confidence: 0.72, Price: 1.08450, Timestamp: time.Now(),
	})
	n.TradeSettled(3, models.TradeRecord{Outcome: models.OutcomeWin, Profit: 0.092, Balance: 10.09, Confidence: 0.72})
	n.Close()

	reqs := sink.wait(t, 2)
	if reqs[0]["path"] != "/bottoken123/sendMessage" {
		t.Fatalf("unexpected path %s", reqs[0]["path"])
	}
	if reqs[0]["chat_id"] != "chan-1" {
		t.Fatalf("signal sent to %s, want channel", reqs[0]["chat_id"])
	}
	if reqs[1]["chat_id"] != "group-1" {
		t.Fatalf("trade result sent to %s, want group", reqs[1]["chat_id"])
	}
	if reqs[0]["parse_mode"] != "HTML" {
		t.Fatalf("parse_mode = %s, want HTML", reqs[0]["parse_mode"])
	}
	if !strings.Contains(reqs[0]["text"], "TRADING SIGNAL") || !strings.Contains(reqs[0]["text"], "EURUSD") {
		t.Fatalf("signal text malformed: %q", reqs[0]["text"])
	}
	if !strings.Contains(reqs[1]["text"], "WIN") {
		t.Fatalf("trade text malformed: %q", reqs[1]["text"])
	}
}

func TestUnconfiguredTokenDropsSilently(t *testing.T) {
	var sink capture
	srv := httptest.NewServer(http.HandlerFunc(sink.handler))
	defer srv.Close()

	n := New("", "chan-1", "group-1", logger.Nop(), WithAPIBase(srv.URL))
	n.ErrorAlert("something broke")
	n.Close()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.reqs) != 0 {
		t.Fatalf("unconfigured notifier sent %d requests", len(sink.reqs))
	}
}

func TestFullQueueDoesNotBlockCaller(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	n := New("token", "chan-1", "group-1", logger.Nop(), WithAPIBase(srv.URL), WithQueueSize(1))
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			n.ErrorAlert("spam")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifier blocked the caller on a full queue")
	}
}

func TestErrorAlertTruncatesLongMessages(t *testing.T) {
	var sink capture
	srv := httptest.NewServer(http.HandlerFunc(sink.handler))
	defer srv.Close()

	n := New("token", "chan-1", "group-1", logger.Nop(), WithAPIBase(srv.URL))
	n.ErrorAlert(strings.Repeat("x", 500))
	n.Close()

	reqs := sink.wait(t, 1)
	if !strings.Contains(reqs[0]["text"], strings.Repeat("x", 100)+"...") {
		t.Fatal("long error not truncated")
	}
	if strings.Contains(reqs[0]["text"], strings.Repeat("x", 101)) {
		t.Fatal("error text exceeds the truncation limit")
	}
}
