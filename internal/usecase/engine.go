package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/middleware"
	"TradePulse/internal/risk"
	"TradePulse/internal/services/features"
	"TradePulse/internal/services/model"
	"TradePulse/internal/tickstore"
	"TradePulse/pkg/logger"
)

// errorPause is how long the loop backs off after a failed cycle.
const errorPause = 5 * time.Second

// EngineConfig is the orchestration policy, fixed at construction.
type EngineConfig struct {
	Symbols         []string
	TradeAmount     float64
	ExpirySeconds   int
	CycleInterval   time.Duration
	OffHoursSleep   time.Duration
	RetrainInterval int // trades between training passes
	RotateInterval  int // trades between symbol rotations
	ReportInterval  time.Duration
	TradingStart    int // minutes since midnight, inclusive
	TradingEnd      int // minutes since midnight, inclusive
}

// EngineDeps bundles the engine's collaborators.
type EngineDeps struct {
	Feed       drepo.PriceFeed
	Broker     drepo.Broker
	Notifier   drepo.Notifier
	Ticks      *tickstore.Store
	Extractor  *features.Extractor
	Labels     *features.LabelHistory
	Classifier *model.Classifier
	ModelStore drepo.ModelStore
	Risk       *risk.Manager
	Pipeline   *middleware.TickPipeline // optional archive side-path
	Archiver   *Archiver                // optional trade mirror
	Metrics    drepo.Metrics
	Log        *logger.Logger
}

// Engine drives one decision cycle per interval: poll the feed, extract
// features, predict, authorize, execute, record. The broker call is the
// only step allowed to block, and it runs with no engine locks held.
type Engine struct {
	cfg EngineConfig
	EngineDeps

	now func() time.Time
	rng *rand.Rand

	tradeCount    int
	currentSymbol string
	lastReport    time.Time
}

func NewEngine(cfg EngineConfig, deps EngineDeps) *Engine {
	if cfg.CycleInterval <= 0 {
		cfg.CycleInterval = time.Second
	}
	if cfg.OffHoursSleep <= 0 {
		cfg.OffHoursSleep = 5 * time.Minute
	}
	if cfg.RotateInterval <= 0 {
		cfg.RotateInterval = 10
	}
	if cfg.RetrainInterval <= 0 {
		cfg.RetrainInterval = 10
	}
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = 24 * time.Hour
	}
	return &Engine{
		cfg:           cfg,
		EngineDeps:    deps,
		now:           time.Now,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		currentSymbol: cfg.Symbols[0],
	}
}

// Run executes the trading loop until the context is cancelled. Shutdown
// always persists the classifier and emits a final report; this cleanup is
// mandatory, not best-effort.
func (e *Engine) Run(ctx context.Context) error {
	e.restoreModel()

	e.Notifier.Startup(e.Risk.Balance(), e.cfg.Symbols)
	e.lastReport = e.now()
	e.Log.Info("engine started",
		logger.Strings("symbols", e.cfg.Symbols),
		logger.Float64("balance", e.Risk.Balance()),
	)

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return ctx.Err()
		default:
		}

		now := e.now()
		if !e.withinHours(now) {
			e.Log.Debug("outside trading hours, sleeping")
			if !sleepCtx(ctx, e.cfg.OffHoursSleep) {
				e.shutdown()
				return ctx.Err()
			}
			continue
		}

		if err := e.Cycle(ctx); err != nil {
			e.Log.Error("cycle failed", logger.Error(err))
			e.Notifier.ErrorAlert(err.Error())
			e.Metrics.RecordError("cycle")
			if !sleepCtx(ctx, errorPause) {
				e.shutdown()
				return ctx.Err()
			}
			continue
		}

		if now.Sub(e.lastReport) >= e.cfg.ReportInterval {
			e.emitDailyReport(now)
			e.lastReport = now
		}

		if !sleepCtx(ctx, e.cfg.CycleInterval) {
			e.shutdown()
			return ctx.Err()
		}
	}
}

// Cycle runs one decision pass for the current symbol.
func (e *Engine) Cycle(ctx context.Context) error {
	if e.tradeCount%e.cfg.RotateInterval == 0 {
		e.currentSymbol = e.cfg.Symbols[e.rng.Intn(len(e.cfg.Symbols))]
	}
	symbol := e.currentSymbol

	tick, err := e.Feed.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return fmt.Errorf("price feed: %w", err)
	}
	if tick == nil {
		return nil // no fresh tick this cycle
	}

	if err := e.Ticks.Append(tick.Symbol, tick.Price, tick.Volume, tick.Timestamp); err != nil {
		return fmt.Errorf("tick store: %w", err)
	}
	e.Metrics.RecordLastPrice(symbol, tick.Price)

	// archive side-path; failures are logged, never fatal to the decision
	if e.Pipeline != nil {
		if err := e.Pipeline.Process(ctx, tick); err != nil {
			e.Log.Debug("tick archive failed", logger.Error(err))
		}
	}

	fv, ok := e.Extractor.Compute(symbol)
	if !ok {
		return nil // window still filling
	}

	p := e.Classifier.Predict(fv)
	direction := models.DirectionCall
	if p <= 0.5 {
		direction = models.DirectionPut
	}
	// confidence is the probability of the predicted direction
	confidence := p
	if direction == models.DirectionPut {
		confidence = 1 - p
	}
	e.Metrics.RecordConfidence(symbol, confidence)

	now := e.now()
	decision := e.Risk.Authorize(confidence, now)
	if !decision.Allowed {
		e.Metrics.RecordDenial(decision.Reason)
		e.Log.Debug("trade denied",
			logger.String("symbol", symbol),
			logger.String("reason", decision.Reason),
			logger.Float64("confidence", confidence),
		)
		return nil
	}

	e.Notifier.SignalEmitted(models.Signal{
		Symbol:     symbol,
		Direction:  direction,
		Confidence: confidence,
		Price:      tick.Price,
		Timestamp:  now,
	})

	// the broker call may block; no engine state is held across it
	result, err := e.Broker.PlaceTrade(ctx, symbol, e.cfg.TradeAmount, direction, e.cfg.ExpirySeconds)
	if err != nil {
		return fmt.Errorf("place trade: %w", err)
	}
	if !result.Success {
		// the order never reached the book: no record, no label
		e.Metrics.RecordError("trade_rejected")
		e.Log.Warn("trade rejected by broker",
			logger.String("symbol", symbol),
			logger.String("reason", result.Err),
		)
		return nil
	}

	e.tradeCount++
	rec := e.Risk.Record(symbol, e.cfg.TradeAmount, direction, result.Outcome, result.Payout, confidence, e.now())

	label := 0.0
	if result.Outcome == models.OutcomeWin {
		label = 1.0
	}
	e.Labels.Append(label)

	e.Metrics.RecordTrade(symbol, result.Outcome)
	e.Metrics.RecordBalance(rec.Balance, rec.DailyProfit)
	e.Notifier.TradeSettled(e.tradeCount, rec)
	e.Log.Info("trade settled",
		logger.Int("trade", e.tradeCount),
		logger.String("symbol", symbol),
		logger.String("outcome", string(result.Outcome)),
		logger.Float64("profit", rec.Profit),
		logger.Float64("balance", rec.Balance),
	)

	if e.Archiver != nil {
		if err := e.Archiver.ArchiveTrade(ctx, &rec); err != nil {
			e.Log.Debug("trade archive failed", logger.Error(err))
		}
	}

	if e.tradeCount%e.cfg.RetrainInterval == 0 {
		e.retrain()
	}
	return nil
}

func (e *Engine) retrain() {
	feats, labels := features.TrainingPairs(e.Extractor.History().All(), e.Labels.All())
	err := e.Classifier.Train(feats, labels)
	switch {
	case errors.Is(err, model.ErrInsufficientData):
		e.Log.Debug("not enough samples to train", logger.Int("samples", len(labels)))
		return
	case err != nil:
		e.Log.Error("training failed", logger.Error(err))
		e.Metrics.RecordError("train")
		return
	}
	e.Log.Info("model retrained", logger.Any("info", e.Classifier.Info()))

	// checkpoint after every successful training pass
	if err := e.ModelStore.Save(e.Classifier.Snapshot()); err != nil {
		e.Log.Error("model checkpoint failed", logger.Error(err))
		e.Metrics.RecordError("model_save")
	}
}

func (e *Engine) restoreModel() {
	snap, err := e.ModelStore.Load()
	switch {
	case err == nil:
		if err := e.Classifier.RestoreSnapshot(snap); err != nil {
			e.Log.Warn("stored model rejected, starting untrained", logger.Error(err))
		} else {
			e.Log.Info("model restored", logger.Any("info", e.Classifier.Info()))
		}
	case errors.Is(err, os.ErrNotExist):
		e.Log.Info("no stored model, starting untrained")
	default:
		e.Log.Warn("model load failed, starting untrained", logger.Error(err))
	}
}

func (e *Engine) shutdown() {
	if err := e.ModelStore.Save(e.Classifier.Snapshot()); err != nil {
		e.Log.Error("model persist on shutdown failed", logger.Error(err))
	}
	stats := e.Risk.Stats()
	e.Notifier.Shutdown(stats)
	e.Log.Info("engine stopped",
		logger.Int("trades", stats.TotalTrades),
		logger.Float64("win_rate", stats.WinRate),
		logger.Float64("total_profit", stats.TotalProfit),
		logger.Float64("balance", stats.Balance),
	)
}

// emitDailyReport summarizes the current calendar day's trades.
func (e *Engine) emitDailyReport(now time.Time) {
	var trades []models.TradeRecord
	y, m, d := now.Date()
	for _, rec := range e.Risk.History(0) {
		ry, rm, rd := rec.Timestamp.Date()
		if ry == y && rm == m && rd == d {
			trades = append(trades, rec)
		}
	}
	if len(trades) == 0 {
		return
	}

	rep := models.DailyReport{
		Date:          now,
		TotalTrades:   len(trades),
		EndingBalance: e.Risk.Balance(),
	}
	for _, rec := range trades {
		if rec.Outcome == models.OutcomeWin {
			rep.WinningTrades++
		}
		rep.TotalProfit += rec.Profit
	}
	rep.WinRate = float64(rep.WinningTrades) / float64(rep.TotalTrades) * 100
	e.Notifier.DailyReport(rep)
}

func (e *Engine) withinHours(now time.Time) bool {
	minute := now.Hour()*60 + now.Minute()
	return minute >= e.cfg.TradingStart && minute <= e.cfg.TradingEnd
}

// sleepCtx sleeps for d, returning false if the context was cancelled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
