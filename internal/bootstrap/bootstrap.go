// Package bootstrap wires configuration, adapters and services into a runnable journal.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tradeJournal/config"
	"tradeJournal/internal/adapters/binanceclient"
	"tradeJournal/internal/adapters/httpapi"
	"tradeJournal/internal/adapters/logger"
	"tradeJournal/internal/adapters/sqlite"
	"tradeJournal/internal/app"
	"tradeJournal/internal/ledger"
)

const shutdownTimeout = 5 * time.Second

// App holds the wired components. Market and Watcher are nil when market data is disabled.
type App struct {
	Config  *config.Config
	Logger  *logger.StdLogger
	Repo    *sqlite.Repository
	Journal *app.JournalService
	Market  *app.MarketService
	Watcher *app.TriggerWatcher
}

// New builds every component from cfg. The caller must Close the returned App.
func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	// 1. Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Debug(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 2. Repository
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "Failed to initialize database repository")
		return nil, fmt.Errorf("failed to initialize database repository: %w", err)
	}

	a := &App{Config: cfg, Logger: appLogger, Repo: repo}

	// 3. Fee calculator
	schedule, err := ledger.NewFeeSchedule(ledger.StandardTiers, cfg.DefaultFeeTier)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to build fee schedule: %w", err)
	}
	calc, err := ledger.NewCalculator(schedule, appLogger)
	if err != nil {
		a.Close()
		return nil, err
	}

	// 4. Journal service
	a.Journal, err = app.NewJournalService(appLogger, repo, calc)
	if err != nil {
		a.Close()
		return nil, err
	}

	// 5. Market data and trigger watcher
	if cfg.MarketDataEnabled {
		client, err := binanceclient.New(binanceclient.Config{
			APIKey:     cfg.APIKey,
			SecretKey:  cfg.SecretKey,
			UseTestnet: cfg.IsTestnet,
			QuoteAsset: cfg.MarketQuoteAsset,
			Logger:     appLogger,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize Binance client: %w", err)
		}
		a.Market, err = app.NewMarketService(client, appLogger, cfg.MarketDataTimeout)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Watcher, err = app.NewTriggerWatcher(a.Journal, a.Market, appLogger)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	appLogger.Info(ctx, "Journal initialized", map[string]interface{}{
		"dbPath": cfg.DBPath, "defaultTier": schedule.DefaultTier(), "marketData": cfg.MarketDataEnabled,
	})
	return a, nil
}

// Close releases the database.
func (a *App) Close() error {
	if a.Repo == nil {
		return nil
	}
	if err := a.Repo.Close(); err != nil {
		a.Logger.Error(context.Background(), err, "Error closing database repository")
		return err
	}
	return nil
}

// Router builds the HTTP router for the journal.
func (a *App) Router() (*gin.Engine, error) {
	h, err := httpapi.NewHandler(httpapi.Config{
		Journal:     a.Journal,
		Market:      a.Market,
		Logger:      a.Logger,
		DayLocation: a.Config.DayLocation,
		Health:      a.Repo.Ping,
	})
	if err != nil {
		return nil, err
	}
	return httpapi.NewRouter(h), nil
}

// Serve runs the HTTP API, plus the trigger watcher when withWatcher is set,
// until ctx is cancelled, then shuts the server down gracefully.
func (a *App) Serve(ctx context.Context, addr string, withWatcher bool) error {
	if a.Logger.Level() > logger.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := a.Router()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if withWatcher && a.Watcher != nil {
		go func() {
			if err := a.Watcher.Run(ctx, a.Config.TriggerPollInterval); err != nil {
				a.Logger.Error(ctx, err, "Trigger watcher exited")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info(context.Background(), "Shutting down HTTP server")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}
