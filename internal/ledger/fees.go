package ledger

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultTier is the fee tier used when none is configured.
const DefaultTier = "1"

// FeeTier holds the maker and taker rates of one exchange fee tier.
type FeeTier struct {
	Code  string
	Maker float64 // Charged on entry
	Taker float64 // Charged on exit
}

// StandardTiers is the exchange fee schedule the journal models.
var StandardTiers = []FeeTier{
	{Code: "1", Maker: 0.00050, Taker: 0.00050},
	{Code: "2", Maker: 0.00045, Taker: 0.00045},
	{Code: "3", Maker: 0.00040, Taker: 0.00040},
	{Code: "4", Maker: 0.00035, Taker: 0.00035},
	{Code: "5", Maker: 0.00030, Taker: 0.00030},
	{Code: "6", Maker: 0.00028, Taker: 0.00028},
	{Code: "VIP1", Maker: 0.00026, Taker: 0.00026},
	{Code: "VIP2", Maker: 0.00024, Taker: 0.00024},
	{Code: "VIP3", Maker: 0.00022, Taker: 0.00022},
	{Code: "VIP4", Maker: 0.00020, Taker: 0.00020},
	{Code: "VIP5", Maker: 0.00018, Taker: 0.00018},
}

// FeeSchedule resolves tier codes to rates, falling back to a default tier.
type FeeSchedule struct {
	tiers       map[string]FeeTier
	defaultTier string
}

// NewFeeSchedule builds a schedule. defaultTier must be one of tiers.
func NewFeeSchedule(tiers []FeeTier, defaultTier string) (*FeeSchedule, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("fee schedule requires at least one tier")
	}
	byCode := make(map[string]FeeTier, len(tiers))
	for _, t := range tiers {
		code := NormalizeTier(t.Code)
		if code == "" {
			return nil, fmt.Errorf("fee tier code cannot be empty")
		}
		if t.Maker < 0 || t.Taker < 0 {
			return nil, fmt.Errorf("fee tier %s has a negative rate", code)
		}
		t.Code = code
		byCode[code] = t
	}
	def := NormalizeTier(defaultTier)
	if _, ok := byCode[def]; !ok {
		return nil, fmt.Errorf("default fee tier %q is not in the schedule", defaultTier)
	}
	return &FeeSchedule{tiers: byCode, defaultTier: def}, nil
}

// StandardSchedule returns the standard tiers with tier "1" as default.
func StandardSchedule() *FeeSchedule {
	s, err := NewFeeSchedule(StandardTiers, DefaultTier)
	if err != nil {
		panic(err) // static table
	}
	return s
}

// NormalizeTier trims and upper-cases a tier code.
func NormalizeTier(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DefaultTier returns the fallback tier code.
func (s *FeeSchedule) DefaultTier() string {
	return s.defaultTier
}

// Has reports whether code names a tier in the schedule.
func (s *FeeSchedule) Has(code string) bool {
	_, ok := s.tiers[NormalizeTier(code)]
	return ok
}

// Codes returns the known tier codes sorted alphabetically.
func (s *FeeSchedule) Codes() []string {
	codes := make([]string, 0, len(s.tiers))
	for c := range s.tiers {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Rates returns the tier for code, or the default tier with known=false when code is unknown.
func (s *FeeSchedule) Rates(code string) (tier FeeTier, known bool) {
	if t, ok := s.tiers[NormalizeTier(code)]; ok {
		return t, true
	}
	return s.tiers[s.defaultTier], false
}

// ComputeFee returns the maker fee on entry plus, when exit is present, the taker fee on exit,
// rounded to four places. Missing entry or size yields 0, as does any non-finite result.
func ComputeFee(rates FeeTier, entry, exit, size *float64) float64 {
	if entry == nil || size == nil {
		return 0
	}
	fee := math.Abs(*entry**size) * rates.Maker
	if exit != nil {
		fee += math.Abs(*exit**size) * rates.Taker
	}
	if !isFinite(fee) {
		return 0
	}
	return Round(fee, AmountPlaces)
}
