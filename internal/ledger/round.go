package ledger

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// AmountPlaces is the precision of fees, volume and PnL stored on a trade.
	AmountPlaces int32 = 4
	// ReportPlaces is the precision of dashboard aggregates.
	ReportPlaces int32 = 2
)

// Round rounds v half away from zero to the given number of decimal places.
// Halves are judged on the shortest decimal form of v, so Round(2.675, 2) is 2.68
// even though the nearest binary double lies just below 2.675.
// Non-finite input is returned unchanged.
func Round(v float64, places int32) float64 {
	if !isFinite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Add returns a+b computed in decimal, avoiding binary drift on repeated balance updates.
func Add(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).InexactFloat64()
}
