//go:build wireinject
// +build wireinject

package di

import (
	"SignalDesk/pkg/config"
	"SignalDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application with its cleanup.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Upstream services
		ProvideInference,
		ProvideResolver,
		ProvideQuotes,

		// Repositories
		ProvideAuditStore,
		ProvideReportPublisher,
		ProvideDiagnostics,

		// Use cases
		ProvidePipeline,
		ProvideReportService,
		ProvideRequestsHandler,

		// Transport
		ProvideHub,
		ProvideRateLimiter,
		ProvideReportsHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		ProvideApp,
	)
	return nil, nil, nil
}
