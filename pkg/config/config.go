package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"TradePulse/pkg/util"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Logging     struct {
		Level  string `yaml:"level" default:"info"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Trading struct {
		Symbols         []string      `yaml:"symbols"`
		Amount          float64       `yaml:"amount" default:"0.10"`
		ExpirySeconds   int           `yaml:"expiry_seconds" default:"60"`
		CycleInterval   time.Duration `yaml:"cycle_interval" default:"1s"`
		OffHoursSleep   time.Duration `yaml:"off_hours_sleep" default:"5m"`
		RetrainInterval int           `yaml:"retrain_interval" default:"10"`
		RotateInterval  int           `yaml:"rotate_interval" default:"10"`
		ReportInterval  time.Duration `yaml:"report_interval" default:"24h"`
		HoursStart      string        `yaml:"hours_start" default:"08:00"`
		HoursEnd        string        `yaml:"hours_end" default:"20:00"`
	} `yaml:"trading"`
	Risk struct {
		InitialBalance float64 `yaml:"initial_balance" default:"10.0"`
		MaxDailyLoss   float64 `yaml:"max_daily_loss" default:"0.5"`
		MaxDrawdown    float64 `yaml:"max_drawdown" default:"1.0"`
		StreakLimit    int     `yaml:"streak_limit" default:"5"`
		MinConfidence  float64 `yaml:"min_confidence" default:"0.65"`
		MaxDailyTrades int     `yaml:"max_daily_trades" default:"50"`
	} `yaml:"risk"`
	Data struct {
		TickCapacity    int `yaml:"tick_capacity" default:"1000"`
		FeatureCapacity int `yaml:"feature_capacity" default:"5000"`
	} `yaml:"data"`
	Model struct {
		Path   string `yaml:"path" default:"data/model.json"`
		Warmup int    `yaml:"warmup" default:"50"`
	} `yaml:"model"`
	Feed struct {
		Mode    string `yaml:"mode" default:"sim"` // sim, finnhub, kafka
		Finnhub struct {
			APIKey         string        `yaml:"api_key"`
			WebSocketURL   string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
			ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
			PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
		} `yaml:"finnhub"`
	} `yaml:"feed"`
	Broker struct {
		// Live switches the simulated venue to its live-account win rate.
		// Off by default so a blank config trades on the demo profile.
		Live        bool          `yaml:"live"`
		Seed        int64         `yaml:"seed"`
		SettleDelay time.Duration `yaml:"settle_delay" default:"500ms"`
	} `yaml:"broker"`
	Telegram struct {
		BotToken  string `yaml:"bot_token"`
		ChannelID string `yaml:"channel_id"`
		GroupID   string `yaml:"group_id"`
	} `yaml:"telegram"`
	Archive struct {
		Backend string `yaml:"backend" default:"off"` // off, kafka, clickhouse, both
	} `yaml:"archive"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		TickTopic    string   `yaml:"tick_topic" default:"tradepulse.ticks"`
		TradeTopic   string   `yaml:"trade_topic" default:"tradepulse.trades"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"tradepulse"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"tradepulse"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		TickTable        string        `yaml:"tick_table" default:"ticks"`
		TradeTable       string        `yaml:"trade_table" default:"trades"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Cache struct {
		Backend string `yaml:"backend" default:"ttl"` // ttl, redis
		Redis   struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// Overrides are applied before defaults so an env value wins over both the
// file and the zero-value defaults.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Trading.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("FEED_MODE"); v != "" {
		c.Feed.Mode = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Feed.Finnhub.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHANNEL_ID"); v != "" {
		c.Telegram.ChannelID = v
	}
	if v := os.Getenv("TELEGRAM_GROUP_ID"); v != "" {
		c.Telegram.GroupID = v
	}
	if v := os.Getenv("ARCHIVE_BACKEND"); v != "" {
		c.Archive.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("BROKER_LIVE"); v != "" {
		if live, err := strconv.ParseBool(v); err == nil {
			c.Broker.Live = live
		}
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Trading.Symbols) == 0 {
		return fmt.Errorf("trading.symbols cannot be empty")
	}
	if c.Trading.Amount <= 0 {
		return fmt.Errorf("trading.amount must be positive")
	}
	start, end, err := c.TradingHours()
	if err != nil {
		return err
	}
	if start > end {
		return fmt.Errorf("trading.hours_start must not be after trading.hours_end")
	}
	if c.Risk.InitialBalance <= 0 {
		return fmt.Errorf("risk.initial_balance must be positive")
	}
	if c.Risk.MinConfidence < 0 || c.Risk.MinConfidence > 1 {
		return fmt.Errorf("risk.min_confidence must be in [0, 1]")
	}
	if c.Model.Path == "" {
		return fmt.Errorf("model.path is required")
	}

	switch c.Feed.Mode {
	case "sim":
	case "finnhub":
		if c.Feed.Finnhub.APIKey == "" {
			return fmt.Errorf("feed.finnhub.api_key is required for feed.mode 'finnhub'")
		}
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty for feed.mode 'kafka'")
		}
	default:
		return fmt.Errorf("feed.mode must be 'sim', 'finnhub' or 'kafka', got '%s'", c.Feed.Mode)
	}

	switch c.Archive.Backend {
	case "off", "clickhouse":
	case "kafka", "both":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty for archive.backend '%s'", c.Archive.Backend)
		}
	default:
		return fmt.Errorf("archive.backend must be 'off', 'kafka', 'clickhouse' or 'both', got '%s'", c.Archive.Backend)
	}

	switch c.Cache.Backend {
	case "ttl", "redis":
	default:
		return fmt.Errorf("cache.backend must be 'ttl' or 'redis', got '%s'", c.Cache.Backend)
	}

	return nil
}

// TradingHours returns the configured trading window as minutes since
// midnight, inclusive on both ends.
func (c *Config) TradingHours() (start, end int, err error) {
	start, err = util.ParseMinuteOfDay(c.Trading.HoursStart)
	if err != nil {
		return 0, 0, fmt.Errorf("trading.hours_start: %w", err)
	}
	end, err = util.ParseMinuteOfDay(c.Trading.HoursEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("trading.hours_end: %w", err)
	}
	return start, end, nil
}
