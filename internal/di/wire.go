//go:build wireinject
// +build wireinject

package di

import (
	"TradePulse/pkg/config"
	"TradePulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Market data and decision state
		ProvideTickStore,
		ProvideExtractor,
		ProvideLabelHistory,
		ProvideClassifier,
		ProvideModelStore,
		ProvideRiskManager,

		// External services
		ProvideBroker,
		ProvideFeed,
		ProvideArchive,
		ProvideNotifier,

		// Orchestration
		ProvideEngine,

		// HTTP API
		ProvideCache,
		ProvideLimiter,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
