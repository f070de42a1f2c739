package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalYAML = `
trading:
  symbols: [EURUSD, GBPUSD]
`

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Environment != "development" {
		t.Fatalf("environment = %q", c.Environment)
	}
	if c.Trading.CycleInterval != time.Second {
		t.Fatalf("cycle_interval = %v", c.Trading.CycleInterval)
	}
	if c.Trading.OffHoursSleep != 5*time.Minute {
		t.Fatalf("off_hours_sleep = %v", c.Trading.OffHoursSleep)
	}
	if c.Risk.MinConfidence != 0.65 {
		t.Fatalf("min_confidence = %v", c.Risk.MinConfidence)
	}
	if c.Feed.Mode != "sim" {
		t.Fatalf("feed.mode = %q", c.Feed.Mode)
	}
	if c.Archive.Backend != "off" {
		t.Fatalf("archive.backend = %q", c.Archive.Backend)
	}
	if c.Broker.Live {
		t.Fatalf("broker should default to demo")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, `
environment: production
trading:
  symbols: [BTCUSD]
  amount: 2.5
  hours_start: "09:00"
  hours_end: "17:00"
risk:
  initial_balance: 50.0
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Trading.Amount != 2.5 {
		t.Fatalf("amount = %v", c.Trading.Amount)
	}
	start, end, err := c.TradingHours()
	if err != nil {
		t.Fatalf("trading hours: %v", err)
	}
	if start != 540 || end != 1020 {
		t.Fatalf("hours = %d..%d", start, end)
	}
	if c.Risk.InitialBalance != 50.0 {
		t.Fatalf("initial_balance = %v", c.Risk.InitialBalance)
	}
	// untouched sections still get defaults
	if c.Model.Warmup != 50 {
		t.Fatalf("model.warmup = %v", c.Model.Warmup)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"no symbols", `environment: test`, "trading.symbols"},
		{"bad feed mode", minimalYAML + `
feed:
  mode: carrier-pigeon
`, "feed.mode"},
		{"finnhub without key", minimalYAML + `
feed:
  mode: finnhub
`, "api_key"},
		{"kafka archive without brokers", minimalYAML + `
archive:
  backend: kafka
`, "kafka.brokers"},
		{"inverted hours", `
trading:
  symbols: [EURUSD]
  hours_start: "17:00"
  hours_end: "09:00"
`, "hours_start"},
		{"bad clock time", `
trading:
  symbols: [EURUSD]
  hours_start: "25:00"
`, "clock time"},
	}
	for _, tc := range cases {
		_, err := Load(writeConfig(t, tc.yaml))
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOLS", "ETHUSD,BTCUSD")
	t.Setenv("FEED_MODE", "kafka")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")

	c, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Trading.Symbols) != 2 || c.Trading.Symbols[0] != "ETHUSD" {
		t.Fatalf("symbols = %v", c.Trading.Symbols)
	}
	if c.Feed.Mode != "kafka" {
		t.Fatalf("feed.mode = %q", c.Feed.Mode)
	}
	if len(c.Kafka.Brokers) != 2 {
		t.Fatalf("brokers = %v", c.Kafka.Brokers)
	}
	if c.Telegram.BotToken != "tok" {
		t.Fatalf("bot token = %q", c.Telegram.BotToken)
	}
	// defaults still applied after overrides
	if c.Kafka.Consumer.GroupID != "tradepulse" {
		t.Fatalf("group id = %q", c.Kafka.Consumer.GroupID)
	}
}
