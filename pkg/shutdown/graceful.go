package shutdown

import (
	"context"
	"os"
	"os/signal"
	"time"

	"JobScraper/pkg/logging"
)

type Stoppable interface {
	Shutdown(ctx context.Context) error
}

// Graceful blocks until one of signals arrives, then stops every Stoppable in order
// sharing a single timeout budget.
func Graceful(signals []os.Signal, timeout time.Duration, log *logging.Logger, targets ...Stoppable) {
	sigCtx, stop := signal.NotifyContext(context.Background(), signals...)
	defer stop()

	<-sigCtx.Done()
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	failed := false
	for _, s := range targets {
		if err := s.Shutdown(ctx); err != nil {
			failed = true
			log.Warn("graceful shutdown step completed with error", "err", err)
		}
	}

	if failed {
		log.Warn("graceful shutdown completed with errors")
	} else {
		log.Info("graceful shutdown completed successfully")
	}
}
