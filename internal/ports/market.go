package ports

import (
	"context"

	"tradeJournal/internal/domain"
)

// MarketDataProvider looks up display prices for coin ids such as "btc".
// Results are keyed by the ids as passed in; unknown ids are omitted.
type MarketDataProvider interface {
	Lookup(ctx context.Context, ids []string) (map[string]domain.Quote, error)
}
