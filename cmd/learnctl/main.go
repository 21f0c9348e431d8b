// Command learnctl is a terminal client for the course platform. It keeps a
// local snapshot of what it has loaded and reuses it while the cache is fresh.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"swiss-hub/internal/config"
	"swiss-hub/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(cfg, logger).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
