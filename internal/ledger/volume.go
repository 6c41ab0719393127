package ledger

import "math"

// ComputeVolume returns the trade's contribution to lifetime volume: both legs of the
// entry notional, rounded to four places. Missing input or a non-finite result yields 0.
func ComputeVolume(entry, size *float64) float64 {
	if entry == nil || size == nil {
		return 0
	}
	v := math.Abs(*entry * *size * 2)
	if !isFinite(v) {
		return 0
	}
	return Round(v, AmountPlaces)
}
