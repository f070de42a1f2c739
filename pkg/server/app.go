package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "TradePulse/internal/domain/repository"
	mid "TradePulse/internal/middleware"
	"TradePulse/internal/service/pocketsim"
	"TradePulse/internal/service/telegram"
	"TradePulse/internal/usecase"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
)

// App encapsulates the entire application lifecycle: the trading engine,
// the price feed, the optional archive side-path and the HTTP API.
type App struct {
	cfg      *config.Config
	log      *applogger.Logger
	engine   *usecase.Engine
	feed     domrepo.PriceFeed
	broker   *pocketsim.Client
	consumer *pkgkafka.Consumer
	pipeline *mid.TickPipeline
	archiver *usecase.Archiver
	chClient *pkgch.Client
	notifier *telegram.Notifier

	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	engine *usecase.Engine,
	feed domrepo.PriceFeed,
	broker *pocketsim.Client,
	consumer *pkgkafka.Consumer,
	pipeline *mid.TickPipeline,
	archiver *usecase.Archiver,
	chClient *pkgch.Client,
	notifier *telegram.Notifier,
	httpHandler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		engine:      engine,
		feed:        feed,
		broker:      broker,
		consumer:    consumer,
		pipeline:    pipeline,
		archiver:    archiver,
		chClient:    chClient,
		notifier:    notifier,
		httpHandler: httpHandler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.broker.Connect(ctx); err != nil {
		return err
	}
	if err := a.feed.Connect(ctx); err != nil {
		return err
	}
	a.log.Info("feed connected", applogger.String("mode", a.cfg.Feed.Mode))

	if a.pipeline != nil {
		a.pipeline.Start(ctx)
	}

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.Strings("brokers", a.cfg.Kafka.Brokers))
	}

	// The engine owns model persistence and the final report, so its Run
	// must be allowed to return before anything it depends on is closed.
	engineDone := make(chan error, 1)
	go func() {
		engineDone <- a.engine.Run(ctx)
	}()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()

	select {
	case err := <-engineDone:
		if err != nil {
			a.log.Warn("engine stopped with error", applogger.Error(err))
		}
	case <-time.After(a.cfg.Server.ShutdownTimeout):
		a.log.Warn("engine did not stop within shutdown timeout")
	}

	return a.shutdown()
}

// shutdown gracefully stops all services. The engine has already stopped
// and persisted its model by the time this runs.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.pipeline != nil {
		a.pipeline.Stop()
	}

	// flush any aggregated error logs before the producer goes away
	a.log.RemoveCollector()

	if a.archiver != nil {
		a.archiver.Close()
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if err := a.feed.Close(); err != nil {
		a.log.Warn("feed close error", applogger.Error(err))
	}
	_ = a.broker.Close() // same client as the feed in sim mode; Close is idempotent
	if a.notifier != nil {
		a.notifier.Close()
	}

	a.log.Info("shutdown complete")
	return nil
}
