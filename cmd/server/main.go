package main

import (
	"context"
	"log"
	"os"
	"syscall"

	"JobScraper/internal/app"
	"JobScraper/internal/config"
	"JobScraper/pkg/logging"
	"JobScraper/pkg/shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	a, err := app.Initialize(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize server", "err", err)
		os.Exit(1)
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		shutdown.Graceful(
			[]os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP},
			app.ShutdownTimeout,
			logger,
			a.Stoppables()...,
		)
	}()

	logger.Info("job scraper starting",
		"addr", cfg.Addr(),
		"max_concurrent_jobs", cfg.MaxConcurrentJobs,
		"persistence", cfg.Neo4j.URI != "",
	)

	if err := a.Server.Run(); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}

	// running jobs finish before the process exits
	<-stopped
	logger.Info("server stopped")
}
