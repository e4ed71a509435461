//go:build wireinject
// +build wireinject

package di

import (
	"RegimeShift/internal/usecase"
	"RegimeShift/pkg/config"
	applogger "RegimeShift/pkg/logger"
	"RegimeShift/pkg/server"

	"github.com/google/wire"
)

var analysisSet = wire.NewSet(
	// Metrics
	ProvideMetrics,

	// Infrastructure clients
	ProvideCache,
	ProvideKafkaProducer,

	// Repositories
	ProvideEstimateCache,
	ProvideRunStore,
	ProvideRunPublisher,

	// Use cases
	ProvideEngine,
	ProvideAnalysisConfig,
	ProvideAnalysisService,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config, l *applogger.Logger) (*server.App, func(), error) {
	wire.Build(
		analysisSet,

		// Transport
		ProvideKafkaConsumer,
		ProvideRerunHandler,
		ProvideScheduler,
		ProvideHub,
		ProvideAnalysisHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil, nil
}

// InitializeAnalysis wires the analysis service alone for one-shot commands.
func InitializeAnalysis(cfg *config.Config, l *applogger.Logger) (*usecase.AnalysisService, func(), error) {
	wire.Build(analysisSet)
	return nil, nil, nil
}
