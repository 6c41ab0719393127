package ledger

import (
	"context"
	"fmt"

	"tradeJournal/internal/ports"
)

// Calculator applies the fee schedule and volume rules, logging whenever a result degrades.
type Calculator struct {
	schedule *FeeSchedule
	logger   ports.Logger
}

// NewCalculator creates a Calculator.
func NewCalculator(schedule *FeeSchedule, logger ports.Logger) (*Calculator, error) {
	if schedule == nil || logger == nil {
		return nil, fmt.Errorf("fee schedule and logger are required for Calculator")
	}
	return &Calculator{schedule: schedule, logger: logger}, nil
}

// Schedule returns the fee schedule in use.
func (c *Calculator) Schedule() *FeeSchedule {
	return c.schedule
}

// Fee computes the trade fee for the given tier and prices.
func (c *Calculator) Fee(ctx context.Context, tier string, entry, exit, size *float64) float64 {
	rates, known := c.schedule.Rates(tier)
	if !known {
		c.logger.Warn(ctx, "Unknown fee tier, using default rates", map[string]interface{}{"tier": tier, "defaultTier": c.schedule.DefaultTier()})
	}
	if entry == nil || size == nil {
		c.logger.Warn(ctx, "Entry price or size missing, fee set to zero", map[string]interface{}{"tier": tier})
		return 0
	}
	return ComputeFee(rates, entry, exit, size)
}

// Volume computes the trade's volume contribution.
func (c *Calculator) Volume(ctx context.Context, entry, size *float64) float64 {
	if entry == nil || size == nil {
		c.logger.Warn(ctx, "Entry price or size missing, volume contribution set to zero")
		return 0
	}
	return ComputeVolume(entry, size)
}
