package domain

import "time"

// Trade represents a manually journaled position.
// Optional numeric fields are nil when the value is absent.
type Trade struct {
	ID       string     `json:"id"`        // Opaque identifier assigned at creation
	OpenedAt time.Time  `json:"opened_at"` // UTC creation time, immutable
	ClosedAt *time.Time `json:"closed_at"` // Set iff ExitPrice is set
	Symbol   string     `json:"symbol"`    // Upper-case ticker (e.g., "BTC")
	Side     Side       `json:"side,omitempty"`

	Size       *float64 `json:"size"`
	EntryPrice *float64 `json:"entry_price"`
	ExitPrice  *float64 `json:"exit_price"`
	PNL        *float64 `json:"pnl"`
	TakeProfit *float64 `json:"take_profit"`
	StopLoss   *float64 `json:"stop_loss"`

	Tier               string  `json:"tier"`                // Fee tier code fixed at creation
	CalculatedFee      float64 `json:"calculated_fee"`      // Maker on entry plus taker on exit
	VolumeContribution float64 `json:"volume_contribution"` // Counted notional added to total volume
}

// IsClosed reports whether the trade has an exit price.
func (t *Trade) IsClosed() bool {
	return t.ExitPrice != nil
}

// Status returns the lifecycle state derived from the exit price.
func (t *Trade) Status() TradeStatus {
	if t.IsClosed() {
		return StatusClosed
	}
	return StatusOpen
}

// Clone returns a deep copy so callers can mutate a trade without touching the original.
func (t *Trade) Clone() *Trade {
	c := *t
	c.ClosedAt = cloneTime(t.ClosedAt)
	c.Size = cloneFloat(t.Size)
	c.EntryPrice = cloneFloat(t.EntryPrice)
	c.ExitPrice = cloneFloat(t.ExitPrice)
	c.PNL = cloneFloat(t.PNL)
	c.TakeProfit = cloneFloat(t.TakeProfit)
	c.StopLoss = cloneFloat(t.StopLoss)
	return &c
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
