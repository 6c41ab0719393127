package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"

	"tradeJournal/config"
	"tradeJournal/internal/bootstrap"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Wire logger, repository, journal and optional market data
	app, err := bootstrap.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize trade journal: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.Logger.Error(context.Background(), err, "Error closing trade journal")
		}
	}()

	// 3. Handle shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Serve the API (and the trigger watcher when market data is enabled)
	if err := app.Serve(ctx, cfg.HTTPAddr, true); err != nil {
		app.Logger.Error(context.Background(), err, "Trade journal server stopped with error")
		stop()
		os.Exit(1)
	}
	app.Logger.Info(context.Background(), "Trade journal stopped gracefully")
}
