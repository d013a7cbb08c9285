package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"simplefilehost/internal/adapters/eventbroker/nats"
	"simplefilehost/internal/adapters/eventsink"
	"simplefilehost/internal/config"
	"syscall"
)

// sfhwatch follows the session events other simplefilehost processes publish to nats
func main() {

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.NATS.URL == "" {
		logger.Error("NATS_URL is not set")
		os.Exit(2)
	}

	subscriber, err := nats.NewNATSSubscriber(cfg.NATS, logger)
	if err != nil {
		logger.Error("failed to create NATS subscriber", "error", err)
		os.Exit(3)
	}
	defer func() {
		if err := subscriber.Close(); err != nil {
			logger.Error("failed to close NATS subscriber", "error", err)
		}
	}()

	if err := subscriber.Subscribe(ctx, eventsink.NewLogSink(logger)); err != nil {
		logger.Error("failed to subscribe to NATS", "error", err)
		return
	}
	logger.Info("watching session events", "subject", cfg.NATS.Subject, "stream", cfg.NATS.Stream)

	<-ctx.Done()
	logger.Info("event watcher stopped")
}
