package analytics

import (
	"sort"
	"time"

	"tradeJournal/internal/domain"
	"tradeJournal/internal/ledger"
)

const dateLayout = "2006-01-02"

func valueOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// ComputeStatistics summarises all trades, open and closed.
// Absent PnL counts as zero; fees are summed over closed trades only.
func ComputeStatistics(trades []*domain.Trade) *domain.Statistics {
	stats := domain.EmptyStatistics()
	if len(trades) == 0 {
		return stats
	}

	var totalPNL, totalFees float64
	best, worst := trades[0], trades[0]
	for _, t := range trades {
		pnl := valueOrZero(t.PNL)
		totalPNL += pnl
		if pnl > 0 {
			stats.WinningTradesCount++
		} else if pnl < 0 {
			stats.LosingTradesCount++
		}
		if pnl > valueOrZero(best.PNL) {
			best = t
		}
		if pnl < valueOrZero(worst.PNL) {
			worst = t
		}
		if t.IsClosed() {
			totalFees += t.CalculatedFee
		}
	}

	bySymbol := SymbolPNL(trades)
	symbols := make([]string, 0, len(bySymbol))
	for s := range bySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	bestSymbol, worstSymbol := symbols[0], symbols[0]
	for _, s := range symbols[1:] {
		if bySymbol[s] > bySymbol[bestSymbol] {
			bestSymbol = s
		}
		if bySymbol[s] < bySymbol[worstSymbol] {
			worstSymbol = s
		}
	}

	stats.TotalPNL = ledger.Round(totalPNL, ledger.ReportPlaces)
	stats.TotalFees = ledger.Round(totalFees, ledger.ReportPlaces)
	stats.TotalTrades = len(trades)
	stats.BestTrade = domain.TradeExtreme{PNL: ledger.Round(valueOrZero(best.PNL), ledger.ReportPlaces), Symbol: symbolOrPlaceholder(best.Symbol)}
	stats.WorstTrade = domain.TradeExtreme{PNL: ledger.Round(valueOrZero(worst.PNL), ledger.ReportPlaces), Symbol: symbolOrPlaceholder(worst.Symbol)}
	stats.BestSymbolPNL = ledger.Round(bySymbol[bestSymbol], ledger.ReportPlaces)
	stats.WorstSymbolPNL = ledger.Round(bySymbol[worstSymbol], ledger.ReportPlaces)
	// A symbol only qualifies as best/worst when its aggregate is non-zero.
	if bySymbol[bestSymbol] != 0 {
		stats.BestSymbol = bestSymbol
	}
	if bySymbol[worstSymbol] != 0 {
		stats.WorstSymbol = worstSymbol
	}
	for s, v := range bySymbol {
		stats.SymbolPNL[s] = ledger.Round(v, ledger.ReportPlaces)
	}
	return stats
}

func symbolOrPlaceholder(s string) string {
	if s == "" {
		return domain.NoSymbol
	}
	return s
}

// SymbolPNL sums PnL per symbol over all trades; open trades contribute zero.
func SymbolPNL(trades []*domain.Trade) map[string]float64 {
	out := make(map[string]float64)
	for _, t := range trades {
		out[symbolOrPlaceholder(t.Symbol)] += valueOrZero(t.PNL)
	}
	return out
}

// DayBounds returns the inclusive UTC range covering the calendar date of day.
// The date is read in day's own location, then compared against UTC close times.
func DayBounds(day time.Time) (start, end time.Time) {
	y, m, d := day.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	end = start.Add(24*time.Hour - time.Nanosecond)
	return start, end
}

func closedWithin(t *domain.Trade, start, end time.Time) bool {
	return t.ClosedAt != nil && !t.ClosedAt.Before(start) && !t.ClosedAt.After(end)
}

// DailyPNL sums realized PnL of trades closed on day, rounded to two places.
func DailyPNL(trades []*domain.Trade, day time.Time) float64 {
	start, end := DayBounds(day)
	var sum float64
	for _, t := range trades {
		if closedWithin(t, start, end) && t.PNL != nil {
			sum += *t.PNL
		}
	}
	return ledger.Round(sum, ledger.ReportPlaces)
}

// DailyFees sums fees of trades closed on day, rounded to two places.
func DailyFees(trades []*domain.Trade, day time.Time) float64 {
	start, end := DayBounds(day)
	var sum float64
	for _, t := range trades {
		if closedWithin(t, start, end) {
			sum += t.CalculatedFee
		}
	}
	return ledger.Round(sum, ledger.ReportPlaces)
}

// DailyHistory groups closed trades carrying PnL by UTC close date and returns
// PnL net of fees per date, newest date first.
func DailyHistory(trades []*domain.Trade) []domain.DailyNetPnL {
	type bucket struct{ pnl, fees float64 }
	byDate := make(map[string]*bucket)
	for _, t := range trades {
		if t.ClosedAt == nil || t.PNL == nil {
			continue
		}
		key := t.ClosedAt.UTC().Format(dateLayout)
		b, ok := byDate[key]
		if !ok {
			b = &bucket{}
			byDate[key] = b
		}
		b.pnl += *t.PNL
		b.fees += t.CalculatedFee
	}

	history := make([]domain.DailyNetPnL, 0, len(byDate))
	for date, b := range byDate {
		history = append(history, domain.DailyNetPnL{
			Date:   date,
			NetPNL: ledger.Round(b.pnl-b.fees, ledger.ReportPlaces),
		})
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].Date > history[j].Date
	})
	return history
}

// TotalContribution sums stored volume contributions; used to reconcile the volume counter.
func TotalContribution(trades []*domain.Trade) float64 {
	var sum float64
	for _, t := range trades {
		sum += t.VolumeContribution
	}
	return ledger.Round(sum, ledger.AmountPlaces)
}
