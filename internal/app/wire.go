//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"JobScraper/internal/api"
	"JobScraper/internal/callback"
	"JobScraper/internal/config"
	"JobScraper/internal/orchestrator"
	"JobScraper/pkg/logging"
)

// Initialize builds the App from configuration
func Initialize(ctx context.Context, cfg config.Config, log *logging.Logger) (*App, error) {
	wire.Build(
		// Infrastructure - Neo4j
		provideNeo4jConfig,
		provideNeo4jClient,
		provideSink,

		// Site and callbacks
		provideSite,
		provideCallbackClient,
		wire.Bind(new(orchestrator.Notifier), new(*callback.Client)),

		// Jobs
		provideRunnerOptions,
		orchestrator.NewRunner,
		wire.Bind(new(orchestrator.JobRunner), new(*orchestrator.Runner)),
		provideDispatcher,
		wire.Bind(new(api.Submitter), new(*orchestrator.Dispatcher)),

		// HTTP
		provideAPIConfig,
		api.NewServer,

		newApp,
	)

	return &App{}, nil
}
