package ports

import (
	"context"

	"tradeJournal/internal/domain"
)

// TotalVolumeKey is the counter key holding lifetime traded volume.
const TotalVolumeKey = "total_volume"

// TradeFilter narrows ListTrades. The zero value matches every trade.
type TradeFilter struct {
	Status domain.TradeStatus // "" for any status
	Symbol string             // "" for any symbol
}

// TradeRepository defines storage for journaled trades.
type TradeRepository interface {
	// GetTrade retrieves a trade by id. Returns nil, nil if not found.
	GetTrade(ctx context.Context, id string) (*domain.Trade, error)
	// ListTrades returns trades matching the filter ordered by opened time descending.
	ListTrades(ctx context.Context, filter TradeFilter) ([]*domain.Trade, error)
	// InsertTrade stores a new trade. Returns ErrDuplicateEntry if the id already exists.
	InsertTrade(ctx context.Context, trade *domain.Trade) error
	// UpdateTrade overwrites every mutable column of an existing trade.
	UpdateTrade(ctx context.Context, trade *domain.Trade) error
	// DeleteTrade removes a trade. Returns ErrNotFound if no row was deleted.
	DeleteTrade(ctx context.Context, id string) error
}

// BalanceRepository defines storage for per-symbol balances.
type BalanceRepository interface {
	// GetBalance retrieves the balance for a symbol. Returns nil, nil if none exists.
	GetBalance(ctx context.Context, symbol string) (*domain.Balance, error)
	// SaveBalance creates or replaces the balance row for bal.Symbol.
	SaveBalance(ctx context.Context, bal *domain.Balance) error
	// ListBalances returns every balance row.
	ListBalances(ctx context.Context) ([]*domain.Balance, error)
}

// CounterRepository defines storage for named scalar counters.
type CounterRepository interface {
	// GetCounter returns the stored value and whether the key exists.
	GetCounter(ctx context.Context, key string) (float64, bool, error)
	// SetCounter creates or replaces the value for key.
	SetCounter(ctx context.Context, key string, value float64) error
}

// LedgerTx groups the repositories usable inside one transaction.
type LedgerTx interface {
	TradeRepository
	BalanceRepository
	CounterRepository
}

// LedgerStore is the persistence capability consumed by the journal service.
// Reads outside WithinTx run in autocommit mode.
type LedgerStore interface {
	LedgerTx
	// WithinTx runs fn in a transaction. The transaction commits if fn returns nil
	// and rolls back otherwise; fn's error is returned unchanged.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}
