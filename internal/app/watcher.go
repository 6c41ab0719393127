package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tradeJournal/internal/domain"
	"tradeJournal/internal/ports"
)

// TriggerWatcher closes open trades whose take-profit or stop-loss level has been crossed.
type TriggerWatcher struct {
	journal *JournalService
	market  *MarketService
	logger  ports.Logger
}

// NewTriggerWatcher creates a watcher.
func NewTriggerWatcher(journal *JournalService, market *MarketService, logger ports.Logger) (*TriggerWatcher, error) {
	if journal == nil || market == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for TriggerWatcher")
	}
	return &TriggerWatcher{journal: journal, market: market, logger: logger}, nil
}

// CrossedLevel reports the trigger level crossed by price, if any.
// Long: price >= take-profit or price <= stop-loss. Short: the mirror image.
// The stop-loss wins when both are crossed.
func CrossedLevel(t *domain.Trade, price float64) (float64, bool) {
	var slHit, tpHit bool
	switch t.Side {
	case domain.SideLong:
		slHit = t.StopLoss != nil && price <= *t.StopLoss
		tpHit = t.TakeProfit != nil && price >= *t.TakeProfit
	case domain.SideShort:
		slHit = t.StopLoss != nil && price >= *t.StopLoss
		tpHit = t.TakeProfit != nil && price <= *t.TakeProfit
	default:
		return 0, false
	}
	switch {
	case slHit:
		return *t.StopLoss, true
	case tpHit:
		return *t.TakeProfit, true
	}
	return 0, false
}

// CheckOnce looks up prices for open trades carrying triggers and closes those that crossed.
// It returns the trades it closed.
func (w *TriggerWatcher) CheckOnce(ctx context.Context) ([]*domain.Trade, error) {
	open, err := w.journal.ListOpenTrades(ctx)
	if err != nil {
		return nil, err
	}

	watched := make([]*domain.Trade, 0, len(open))
	ids := make([]string, 0, len(open))
	for _, t := range open {
		if t.Side == "" || (t.TakeProfit == nil && t.StopLoss == nil) {
			continue
		}
		watched = append(watched, t)
		ids = append(ids, strings.ToLower(t.Symbol))
	}
	if len(watched) == 0 {
		return nil, nil
	}

	quotes, err := w.market.Lookup(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("trigger check skipped: %w", err)
	}

	var closed []*domain.Trade
	for _, t := range watched {
		q, ok := quotes[strings.ToLower(t.Symbol)]
		if !ok {
			w.logger.Debug(ctx, "No price for watched symbol", map[string]interface{}{"symbol": t.Symbol})
			continue
		}
		level, hit := CrossedLevel(t, q.Price)
		if !hit {
			continue
		}
		res, err := w.journal.TriggerClose(ctx, t.ID, level)
		if err != nil {
			if errors.Is(err, ports.ErrAlreadyClosed) {
				continue
			}
			w.logger.Error(ctx, err, "Failed to close triggered trade", map[string]interface{}{"tradeID": t.ID})
			continue
		}
		w.logger.Info(ctx, "Trigger level crossed", map[string]interface{}{
			"tradeID": t.ID, "symbol": t.Symbol, "price": q.Price, "level": level,
		})
		closed = append(closed, res)
	}
	return closed, nil
}

// Run calls CheckOnce every interval until ctx is cancelled. Check failures are logged and skipped.
func (w *TriggerWatcher) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("trigger poll interval must be positive: %w", ports.ErrConfigurationError)
	}
	w.logger.Info(ctx, "Trigger watcher started", map[string]interface{}{"interval": interval.String()})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.CheckOnce(ctx); err != nil {
			w.logger.Warn(ctx, "Trigger check failed", map[string]interface{}{"error": err.Error()})
		}
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Trigger watcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}
