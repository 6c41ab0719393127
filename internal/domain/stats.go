package domain

// TradeExtreme identifies the single best or worst trade by PnL.
type TradeExtreme struct {
	PNL    float64 `json:"pnl"`
	Symbol string  `json:"symbol"`
}

// Statistics summarises the whole trade set for the dashboard.
type Statistics struct {
	TotalPNL           float64            `json:"total_pnl"`
	BestTrade          TradeExtreme       `json:"best_trade"`
	WorstTrade         TradeExtreme       `json:"worst_trade"`
	BestSymbol         string             `json:"best_symbol"`
	BestSymbolPNL      float64            `json:"best_symbol_pnl"`
	WorstSymbol        string             `json:"worst_symbol"`
	WorstSymbolPNL     float64            `json:"worst_symbol_pnl"`
	TotalTrades        int                `json:"total_trades"`
	SymbolPNL          map[string]float64 `json:"symbol_pnl"`
	TotalFees          float64            `json:"total_fees"` // Closed trades only
	WinningTradesCount int                `json:"winning_trades_count"`
	LosingTradesCount  int                `json:"losing_trades_count"`
}

// NoSymbol is the placeholder used when no best/worst symbol exists.
const NoSymbol = "-"

// EmptyStatistics returns the zero/placeholder result used for an empty trade set.
func EmptyStatistics() *Statistics {
	return &Statistics{
		BestTrade:   TradeExtreme{Symbol: NoSymbol},
		WorstTrade:  TradeExtreme{Symbol: NoSymbol},
		BestSymbol:  NoSymbol,
		WorstSymbol: NoSymbol,
		SymbolPNL:   map[string]float64{},
	}
}

// DailyNetPnL is one row of the daily history: realized PnL minus fees for a calendar date.
type DailyNetPnL struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	NetPNL float64 `json:"net_pnl"`
}
