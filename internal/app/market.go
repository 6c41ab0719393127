package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"tradeJournal/internal/domain"
	"tradeJournal/internal/ports"
)

// MarketService performs display-only price lookups with a bounded timeout.
// It never touches ledger state.
type MarketService struct {
	provider ports.MarketDataProvider
	logger   ports.Logger
	timeout  time.Duration
}

// NewMarketService creates a market data service.
func NewMarketService(provider ports.MarketDataProvider, logger ports.Logger, timeout time.Duration) (*MarketService, error) {
	if provider == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for MarketService")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("market data timeout must be positive: %w", ports.ErrConfigurationError)
	}
	return &MarketService{provider: provider, logger: logger, timeout: timeout}, nil
}

// NormalizeCoinIDs trims, lower-cases, de-duplicates and sorts ids, dropping blanks.
func NormalizeCoinIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		for _, part := range strings.Split(raw, ",") {
			id := strings.ToLower(strings.TrimSpace(part))
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Lookup returns quotes keyed by normalised id. Ids the provider does not know are omitted.
func (m *MarketService) Lookup(ctx context.Context, ids []string) (map[string]domain.Quote, error) {
	norm := NormalizeCoinIDs(ids)
	if len(norm) == 0 {
		return nil, fmt.Errorf("at least one coin id is required: %w", ports.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	quotes, err := m.provider.Lookup(ctx, norm)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			err = fmt.Errorf("market data lookup exceeded %s: %w: %w", m.timeout, ports.ErrTimeout, err)
		case errors.Is(err, ports.ErrMarketDataUnavailable), errors.Is(err, ports.ErrRateLimited), errors.Is(err, ports.ErrTimeout):
		default:
			err = fmt.Errorf("%w: %w", ports.ErrMarketDataUnavailable, err)
		}
		m.logger.Warn(ctx, "Market data lookup failed", map[string]interface{}{"ids": strings.Join(norm, ","), "error": err.Error()})
		return nil, err
	}
	if quotes == nil {
		quotes = map[string]domain.Quote{}
	}
	m.logger.Debug(ctx, "Market data fetched", map[string]interface{}{"requested": len(norm), "found": len(quotes)})
	return quotes, nil
}
