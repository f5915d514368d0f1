// Package app wires the server process together.
package app

import (
	"context"
	"time"

	"JobScraper/internal/api"
	"JobScraper/internal/callback"
	"JobScraper/internal/config"
	"JobScraper/internal/orchestrator"
	"JobScraper/internal/site"
	"JobScraper/pkg/logging"
	"JobScraper/pkg/shutdown"

	storage "JobScraper/internal/storage/neo4j"
	n4j "JobScraper/pkg/neo4j"
)

// App is the assembled server process
type App struct {
	Server     *api.Server
	Dispatcher *orchestrator.Dispatcher
	Neo4j      *n4j.Client
}

// Stoppables lists what graceful shutdown stops, in order: stop accepting requests,
// let running jobs finish, then close storage.
func (a *App) Stoppables() []shutdown.Stoppable {
	out := []shutdown.Stoppable{a.Server, a.Dispatcher}
	if a.Neo4j != nil {
		out = append(out, a.Neo4j)
	}
	return out
}

func newApp(server *api.Server, dispatcher *orchestrator.Dispatcher, neo4jClient *n4j.Client) *App {
	return &App{Server: server, Dispatcher: dispatcher, Neo4j: neo4jClient}
}

// provideSite loads the selector table, overlaid by SELECTORS_FILE when set
func provideSite(cfg config.Config) (*site.Site, error) {
	return site.Load(cfg.SelectorsFile)
}

func provideNeo4jConfig(cfg config.Config) n4j.Config {
	return n4j.Config{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Password: cfg.Neo4j.Password,
	}
}

// provideNeo4jClient returns nil when no database is configured
func provideNeo4jClient(ctx context.Context, cfg n4j.Config, log *logging.Logger) (*n4j.Client, error) {
	if !cfg.Enabled() {
		log.Info("neo4j not configured, results are not persisted")
		return nil, nil
	}
	return n4j.NewClient(ctx, cfg)
}

func provideSink(client *n4j.Client) orchestrator.Sink {
	if client == nil {
		return nil
	}
	return storage.NewJobStore(client)
}

func provideCallbackClient(cfg config.Config) *callback.Client {
	return callback.NewClient(nil, cfg.CallbackTimeout)
}

func provideRunnerOptions(cfg config.Config) orchestrator.Options {
	return orchestrator.Options{
		SearchLimit:   cfg.SearchLimit,
		ScreenshotDir: cfg.ScreenshotDir,
		Timeouts:      cfg.Timeouts,
	}
}

func provideDispatcher(runner orchestrator.JobRunner, cfg config.Config, log *logging.Logger) *orchestrator.Dispatcher {
	return orchestrator.NewDispatcher(runner, cfg.MaxConcurrentJobs, log)
}

func provideAPIConfig(cfg config.Config) api.Config {
	return api.Config{Addr: cfg.Addr(), AllowedOrigin: cfg.DispatcherURL}
}

// ShutdownTimeout is how long running jobs get to finish on a signal
const ShutdownTimeout = 2 * time.Minute
