package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tradeJournal/internal/analytics"
	"tradeJournal/internal/domain"
	"tradeJournal/internal/ports"
)

// Dashboard queries below never fail: a read error is logged and the zero value returned.

// TotalVolume returns the lifetime volume counter, initialising it to zero on first read.
func (s *JournalService) TotalVolume(ctx context.Context) float64 {
	var volume float64
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.LedgerTx) error {
		v, ok, err := tx.GetCounter(ctx, ports.TotalVolumeKey)
		if err != nil {
			return err
		}
		if !ok {
			if err := tx.SetCounter(ctx, ports.TotalVolumeKey, 0); err != nil {
				return err
			}
		}
		volume = v
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, err, "Failed to read total volume")
		return 0
	}
	return volume
}

func (s *JournalService) tradesFor(ctx context.Context, filter ports.TradeFilter, query string) ([]*domain.Trade, bool) {
	trades, err := s.store.ListTrades(ctx, filter)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to load trades for aggregate", map[string]interface{}{"query": query})
		return nil, false
	}
	return trades, true
}

// DailyPNL sums realized PnL of trades closed on the calendar date of day.
func (s *JournalService) DailyPNL(ctx context.Context, day time.Time) float64 {
	trades, ok := s.tradesFor(ctx, ports.TradeFilter{Status: domain.StatusClosed}, "daily_pnl")
	if !ok {
		return 0
	}
	return analytics.DailyPNL(trades, day)
}

// DailyFees sums fees of trades closed on the calendar date of day.
func (s *JournalService) DailyFees(ctx context.Context, day time.Time) float64 {
	trades, ok := s.tradesFor(ctx, ports.TradeFilter{Status: domain.StatusClosed}, "daily_fees")
	if !ok {
		return 0
	}
	return analytics.DailyFees(trades, day)
}

// SymbolPNL returns PnL per symbol over all trades.
func (s *JournalService) SymbolPNL(ctx context.Context) map[string]float64 {
	trades, ok := s.tradesFor(ctx, ports.TradeFilter{}, "symbol_pnl")
	if !ok {
		return map[string]float64{}
	}
	return analytics.SymbolPNL(trades)
}

// Statistics summarises the whole journal.
func (s *JournalService) Statistics(ctx context.Context) *domain.Statistics {
	trades, ok := s.tradesFor(ctx, ports.TradeFilter{}, "statistics")
	if !ok {
		return domain.EmptyStatistics()
	}
	// Oldest first, so ties on best/worst trade go to the earlier trade.
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].OpenedAt.Before(trades[j].OpenedAt)
	})
	return analytics.ComputeStatistics(trades)
}

// DailyHistory returns net PnL per close date, newest first.
func (s *JournalService) DailyHistory(ctx context.Context) []domain.DailyNetPnL {
	trades, ok := s.tradesFor(ctx, ports.TradeFilter{Status: domain.StatusClosed}, "daily_history")
	if !ok {
		return []domain.DailyNetPnL{}
	}
	return analytics.DailyHistory(trades)
}

// ReconcileVolume overwrites the volume counter with the sum of stored trade contributions.
// It is a repair operation; normal mutations keep the counter current incrementally.
func (s *JournalService) ReconcileVolume(ctx context.Context) (before, after float64, err error) {
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.LedgerTx) error {
		current, _, err := tx.GetCounter(ctx, ports.TotalVolumeKey)
		if err != nil {
			return err
		}
		trades, err := tx.ListTrades(ctx, ports.TradeFilter{})
		if err != nil {
			return err
		}
		before = current
		after = analytics.TotalContribution(trades)
		return tx.SetCounter(ctx, ports.TotalVolumeKey, after)
	})
	if err != nil {
		s.logger.Error(ctx, err, "Failed to reconcile total volume")
		return 0, 0, fmt.Errorf("failed to reconcile total volume: %w", err)
	}

	fields := map[string]interface{}{"before": before, "after": after}
	if before != after {
		s.logger.Warn(ctx, "Total volume counter drifted and was repaired", fields)
	} else {
		s.logger.Info(ctx, "Total volume counter is consistent", fields)
	}
	return before, after, nil
}

// TradesOpenedOn counts trades opened on the calendar date of day.
func (s *JournalService) TradesOpenedOn(ctx context.Context, day time.Time) int {
	trades, ok := s.tradesFor(ctx, ports.TradeFilter{}, "trades_opened_on")
	if !ok {
		return 0
	}
	start, end := analytics.DayBounds(day)
	n := 0
	for _, t := range trades {
		if !t.OpenedAt.Before(start) && !t.OpenedAt.After(end) {
			n++
		}
	}
	return n
}
