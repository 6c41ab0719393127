package ledger

import "tradeJournal/internal/domain"

// RealizedPNL computes the profit of closing a position at exit, rounded to four places.
// It returns nil when side is absent or any price/size is missing.
func RealizedPNL(side domain.Side, entry, size, exit *float64) *float64 {
	if entry == nil || size == nil || exit == nil {
		return nil
	}
	diff := *exit - *entry
	var pnl float64
	switch side {
	case domain.SideLong:
		pnl = diff * *size
	case domain.SideShort:
		pnl = -diff * *size
	default:
		return nil
	}
	if !isFinite(pnl) {
		return nil
	}
	return Float(Round(pnl, AmountPlaces))
}
