package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFee(t *testing.T) {
	schedule := StandardSchedule()
	tier1, _ := schedule.Rates("1")
	vip5, _ := schedule.Rates("VIP5")

	tests := []struct {
		name  string
		rates FeeTier
		entry *float64
		exit  *float64
		size  *float64
		want  float64
	}{
		{name: "entry only", rates: tier1, entry: Float(100), size: Float(2), want: 0.1},
		{name: "entry and exit", rates: tier1, entry: Float(100), exit: Float(110), size: Float(2), want: 0.21},
		{name: "negative size uses magnitude", rates: tier1, entry: Float(100), size: Float(-2), want: 0.1},
		{name: "missing entry", rates: tier1, exit: Float(110), size: Float(2), want: 0},
		{name: "missing size", rates: tier1, entry: Float(100), exit: Float(110), want: 0},
		{name: "vip tier", rates: vip5, entry: Float(1000), size: Float(1), want: 0.18},
		{name: "rounded to four places", rates: tier1, entry: Float(1.23456), size: Float(1), want: 0.0006},
		{name: "infinite notional degrades to zero", rates: tier1, entry: Float(math.Inf(1)), size: Float(1), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeFee(tt.rates, tt.entry, tt.exit, tt.size))
		})
	}
}

func TestFeeSchedule_Rates(t *testing.T) {
	schedule := StandardSchedule()

	tier, known := schedule.Rates("vip2")
	assert.True(t, known)
	assert.Equal(t, "VIP2", tier.Code)
	assert.Equal(t, 0.00024, tier.Maker)

	tier, known = schedule.Rates("platinum")
	assert.False(t, known)
	assert.Equal(t, "1", tier.Code, "unknown tier falls back to default")

	assert.True(t, schedule.Has(" 3 "))
	assert.False(t, schedule.Has(""))
	assert.Len(t, schedule.Codes(), len(StandardTiers))
}

func TestNewFeeSchedule_Validation(t *testing.T) {
	_, err := NewFeeSchedule(nil, "1")
	assert.Error(t, err)

	_, err = NewFeeSchedule(StandardTiers, "VIP9")
	assert.Error(t, err)

	_, err = NewFeeSchedule([]FeeTier{{Code: "A", Maker: -0.1}}, "A")
	assert.Error(t, err)

	s, err := NewFeeSchedule(StandardTiers, "vip1")
	require.NoError(t, err)
	assert.Equal(t, "VIP1", s.DefaultTier())
}

func TestComputeVolume(t *testing.T) {
	tests := []struct {
		name  string
		entry *float64
		size  *float64
		want  float64
	}{
		{name: "both legs", entry: Float(100), size: Float(2), want: 400},
		{name: "short size magnitude", entry: Float(150), size: Float(-2), want: 600},
		{name: "missing entry", size: Float(2), want: 0},
		{name: "missing size", entry: Float(100), want: 0},
		{name: "rounded", entry: Float(0.123456), size: Float(1), want: 0.2469},
		{name: "overflow degrades to zero", entry: Float(math.MaxFloat64), size: Float(10), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeVolume(tt.entry, tt.size))
		})
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.1235, Round(0.12345, 4))
	assert.Equal(t, -0.1235, Round(-0.12345, 4))
	assert.Equal(t, 2.68, Round(2.675, 2))
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
}

func TestAdd(t *testing.T) {
	assert.Equal(t, 0.3, Add(0.1, 0.2))
	assert.Equal(t, 1.0, Add(1.5, -0.5))
}
