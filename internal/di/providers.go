package di

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/repository"
	"TradePulse/internal/handler/api"
	mid "TradePulse/internal/middleware"
	internalrepo "TradePulse/internal/repository"
	"TradePulse/internal/risk"
	icache "TradePulse/internal/service/cache"
	"TradePulse/internal/service/finnhub"
	"TradePulse/internal/service/pocketsim"
	"TradePulse/internal/service/ratelimit"
	"TradePulse/internal/service/telegram"
	"TradePulse/internal/services/features"
	"TradePulse/internal/services/model"
	"TradePulse/internal/tickstore"
	"TradePulse/internal/usecase"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/metrics"
	"TradePulse/pkg/server"
)

// Feed bundles the selected price source with the Kafka consumer that
// drives it. Consumer is nil unless feed.mode is "kafka".
type Feed struct {
	Source   repository.PriceFeed
	Consumer *pkgkafka.Consumer
}

// Archive bundles the optional durable side-path. All fields are nil when
// archive.backend is "off".
type Archive struct {
	Archiver *usecase.Archiver
	Pipeline *mid.TickPipeline
	Producer *pkgkafka.Producer
	Client   *pkgch.Client
	Ledger   repository.LedgerArchive
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Logging.Pretty {
		format = "console"
	}
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: format,
		Output: "stdout",
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideTickStore creates the in-memory tick window.
func ProvideTickStore(cfg *config.Config) *tickstore.Store {
	return tickstore.New(cfg.Data.TickCapacity)
}

// ProvideExtractor creates the feature extractor over the tick store.
func ProvideExtractor(cfg *config.Config, ticks *tickstore.Store) *features.Extractor {
	return features.NewExtractor(ticks, cfg.Data.FeatureCapacity)
}

// ProvideLabelHistory creates the outcome label history.
func ProvideLabelHistory(cfg *config.Config) *features.LabelHistory {
	return features.NewLabelHistory(cfg.Data.FeatureCapacity)
}

// ProvideClassifier creates the online classifier.
func ProvideClassifier(cfg *config.Config) *model.Classifier {
	return model.NewClassifier(cfg.Model.Warmup)
}

// ProvideModelStore creates the snapshot file store.
func ProvideModelStore(cfg *config.Config) repository.ModelStore {
	return model.NewFileStore(cfg.Model.Path)
}

// ProvideRiskManager creates the risk gate from config.
func ProvideRiskManager(cfg *config.Config) (*risk.Manager, error) {
	start, end, err := cfg.TradingHours()
	if err != nil {
		return nil, err
	}
	return risk.NewManager(risk.Config{
		InitialBalance: cfg.Risk.InitialBalance,
		MaxDailyLoss:   cfg.Risk.MaxDailyLoss,
		MaxDrawdown:    cfg.Risk.MaxDrawdown,
		StreakLimit:    cfg.Risk.StreakLimit,
		MinConfidence:  cfg.Risk.MinConfidence,
		MaxDailyTrades: cfg.Risk.MaxDailyTrades,
		TradingStart:   start,
		TradingEnd:     end,
	}), nil
}

// ProvideBroker creates the simulated venue client.
func ProvideBroker(cfg *config.Config, log *applogger.Logger) *pocketsim.Client {
	opts := []pocketsim.Option{
		pocketsim.WithDemoMode(!cfg.Broker.Live),
		pocketsim.WithSettleDelay(cfg.Broker.SettleDelay),
	}
	if cfg.Broker.Seed != 0 {
		opts = append(opts, pocketsim.WithSeed(cfg.Broker.Seed))
	}
	return pocketsim.New(cfg.Trading.Symbols, log, opts...)
}

// ProvideFeed selects the price source for the configured mode.
func ProvideFeed(cfg *config.Config, log *applogger.Logger, m repository.Metrics, broker *pocketsim.Client) (Feed, error) {
	switch cfg.Feed.Mode {
	case "sim":
		return Feed{Source: broker}, nil
	case "finnhub":
		fh := finnhub.New(
			cfg.Feed.Finnhub.APIKey,
			cfg.Feed.Finnhub.WebSocketURL,
			cfg.Trading.Symbols,
			cfg.Feed.Finnhub.ReconnectDelay,
			cfg.Feed.Finnhub.PingInterval,
			log,
		)
		return Feed{Source: fh}, nil
	case "kafka":
		consumer, err := pkgkafka.NewConsumer(
			pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
			pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
			pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		)
		if err != nil {
			return Feed{}, fmt.Errorf("kafka consumer: %w", err)
		}
		kf := usecase.NewKafkaFeed(cfg.Kafka.TickTopic, m)
		consumer.RegisterHandler(kf)
		return Feed{Source: kf, Consumer: consumer}, nil
	default:
		return Feed{}, fmt.Errorf("unknown feed mode %q", cfg.Feed.Mode)
	}
}

// ProvideArchive builds the durable side-path for the configured backend.
func ProvideArchive(cfg *config.Config, m repository.Metrics) (Archive, error) {
	backend := cfg.Archive.Backend
	if backend == "off" {
		return Archive{}, nil
	}

	var a Archive
	var pub repository.Publisher

	if backend == "kafka" || backend == "both" {
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
			pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
			pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
			pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
			pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
			pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return Archive{}, fmt.Errorf("kafka producer: %w", err)
		}
		a.Producer = producer
		pub = internalrepo.NewKafkaPublisher(producer, cfg.Kafka.TickTopic, cfg.Kafka.TradeTopic)
	}

	if backend == "clickhouse" || backend == "both" {
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return Archive{}, fmt.Errorf("clickhouse client: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		stmts := append(
			[]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database},
			internalrepo.SchemaStatements(cfg.ClickHouse.TickTable, cfg.ClickHouse.TradeTable)...,
		)
		if err := client.InitSchema(ctx, stmts); err != nil {
			_ = client.Close()
			return Archive{}, fmt.Errorf("clickhouse schema: %w", err)
		}

		a.Client = client
		a.Ledger = internalrepo.NewClickHouseArchive(client.DB(), cfg.ClickHouse.TickTable, cfg.ClickHouse.TradeTable)
	}

	a.Archiver = usecase.NewArchiver(pub, a.Ledger, m, backend)
	a.Pipeline = mid.NewTickPipeline(a.Archiver, m,
		mid.WithMaxRPS(20),
		mid.WithBufferSize(1000),
	)
	return a, nil
}

// ProvideNotifier creates the Telegram notifier. With no bot token it
// becomes a no-op sink.
func ProvideNotifier(cfg *config.Config, log *applogger.Logger) *telegram.Notifier {
	return telegram.New(cfg.Telegram.BotToken, cfg.Telegram.ChannelID, cfg.Telegram.GroupID, log)
}

// ProvideEngine assembles the trading engine.
func ProvideEngine(
	cfg *config.Config,
	log *applogger.Logger,
	m repository.Metrics,
	feed Feed,
	broker *pocketsim.Client,
	notifier *telegram.Notifier,
	ticks *tickstore.Store,
	extractor *features.Extractor,
	labels *features.LabelHistory,
	classifier *model.Classifier,
	modelStore repository.ModelStore,
	riskMgr *risk.Manager,
	archive Archive,
) (*usecase.Engine, error) {
	start, end, err := cfg.TradingHours()
	if err != nil {
		return nil, err
	}
	return usecase.NewEngine(
		usecase.EngineConfig{
			Symbols:         cfg.Trading.Symbols,
			TradeAmount:     cfg.Trading.Amount,
			ExpirySeconds:   cfg.Trading.ExpirySeconds,
			CycleInterval:   cfg.Trading.CycleInterval,
			OffHoursSleep:   cfg.Trading.OffHoursSleep,
			RetrainInterval: cfg.Trading.RetrainInterval,
			RotateInterval:  cfg.Trading.RotateInterval,
			ReportInterval:  cfg.Trading.ReportInterval,
			TradingStart:    start,
			TradingEnd:      end,
		},
		usecase.EngineDeps{
			Feed:       feed.Source,
			Broker:     broker,
			Notifier:   notifier,
			Ticks:      ticks,
			Extractor:  extractor,
			Labels:     labels,
			Classifier: classifier,
			ModelStore: modelStore,
			Risk:       riskMgr,
			Pipeline:   archive.Pipeline,
			Archiver:   archive.Archiver,
			Metrics:    m,
			Log:        log,
		},
	), nil
}

// ProvideCache selects the API response cache backend.
func ProvideCache(cfg *config.Config) icache.BytesCache {
	if cfg.Cache.Backend == "redis" {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideLimiter creates the per-client rate limiter for the API.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideHTTPHandler creates the operational API handler.
func ProvideHTTPHandler(
	log *applogger.Logger,
	riskMgr *risk.Manager,
	ticks *tickstore.Store,
	classifier *model.Classifier,
	archive Archive,
	bytesCache icache.BytesCache,
	limiter *ratelimit.Limiter,
) xhttp.Handler {
	return api.NewStatusEchoHandler(log, riskMgr, ticks, classifier, archive.Ledger, bytesCache, limiter)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	engine *usecase.Engine,
	feed Feed,
	broker *pocketsim.Client,
	archive Archive,
	notifier *telegram.Notifier,
	handler xhttp.Handler,
) *server.App {
	// error logs ride the archive producer when one exists
	if archive.Producer != nil {
		log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "tradepulse.logs",
			Publisher:      archive.Producer,
		})
	}
	return server.New(cfg, log, engine, feed.Source, broker, feed.Consumer, archive.Pipeline, archive.Archiver, archive.Client, notifier, handler)
}
