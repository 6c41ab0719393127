package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"tradeJournal/internal/domain"
	"tradeJournal/internal/ledger"
	"tradeJournal/internal/ports"
	"tradeJournal/internal/utils"
)

// Field carries one optional value of a partial edit.
// Present distinguishes an explicit null (Present, Value == nil) from a field that was not sent.
type Field struct {
	Present bool
	Value   any
}

// Set returns a present Field holding v.
func Set(v any) Field {
	return Field{Present: true, Value: v}
}

// UnmarshalJSON marks the field present; numbers are kept as json.Number.
func (f *Field) UnmarshalJSON(data []byte) error {
	f.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Value = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	f.Value = v
	return nil
}

// CreateTradeInput holds caller-supplied values for a new trade.
// Numeric fields accept anything ledger.Coerce understands.
type CreateTradeInput struct {
	Symbol     string
	Side       string
	Size       any
	EntryPrice any
	ExitPrice  any
	PNL        any
	TakeProfit any
	StopLoss   any
	Tier       string // Empty selects the configured default tier
}

// TradeEdit is a partial update. Tier is immutable and therefore absent.
type TradeEdit struct {
	Symbol     Field `json:"symbol"`
	Side       Field `json:"side"`
	PNL        Field `json:"pnl"`
	EntryPrice Field `json:"entry_price"`
	ExitPrice  Field `json:"exit_price"`
	Size       Field `json:"size"`
	TakeProfit Field `json:"take_profit"`
	StopLoss   Field `json:"stop_loss"`
}

// Option configures a JournalService.
type Option func(*JournalService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *JournalService) { s.now = now }
}

// WithIDGenerator overrides trade id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *JournalService) { s.newID = gen }
}

// JournalService owns the trade lifecycle, the volume counter and balances.
// Every mutation runs in one store transaction.
type JournalService struct {
	logger ports.Logger
	store  ports.LedgerStore
	calc   *ledger.Calculator
	newID  func() string
	now    func() time.Time
}

// NewJournalService creates a new journal service.
func NewJournalService(logger ports.Logger, store ports.LedgerStore, calc *ledger.Calculator, opts ...Option) (*JournalService, error) {
	if logger == nil || store == nil || calc == nil {
		return nil, fmt.Errorf("missing required dependencies for JournalService")
	}
	s := &JournalService{
		logger: logger,
		store:  store,
		calc:   calc,
		newID:  utils.NewTradeID,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DefaultTier returns the tier assigned when a create request names none.
func (s *JournalService) DefaultTier() string {
	return s.calc.Schedule().DefaultTier()
}

func (s *JournalService) coerceField(ctx context.Context, name string, value any) *float64 {
	v := ledger.Coerce(value, nil)
	if v == nil && !ledger.IsAbsentInput(value) {
		s.logger.Warn(ctx, "Invalid numeric value ignored", map[string]interface{}{"field": name, "value": fmt.Sprint(value)})
	}
	return v
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// CreateTrade records a new trade and adds its volume contribution to the counter.
func (s *JournalService) CreateTrade(ctx context.Context, in CreateTradeInput) (*domain.Trade, error) {
	symbol := normalizeSymbol(in.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required: %w", ports.ErrValidation)
	}
	if !domain.ValidSymbol(symbol) {
		return nil, fmt.Errorf("symbol %q is malformed: %w", in.Symbol, ports.ErrValidation)
	}
	side, ok := domain.ParseSide(in.Side)
	if !ok {
		return nil, fmt.Errorf("side %q must be long or short: %w", in.Side, ports.ErrValidation)
	}
	tier := ledger.NormalizeTier(in.Tier)
	if tier == "" {
		tier = s.DefaultTier()
	}

	now := s.now().UTC()
	trade := &domain.Trade{
		ID:         s.newID(),
		OpenedAt:   now,
		Symbol:     symbol,
		Side:       side,
		Size:       s.coerceField(ctx, "size", in.Size),
		EntryPrice: s.coerceField(ctx, "entry_price", in.EntryPrice),
		ExitPrice:  s.coerceField(ctx, "exit_price", in.ExitPrice),
		PNL:        s.coerceField(ctx, "pnl", in.PNL),
		TakeProfit: s.coerceField(ctx, "take_profit", in.TakeProfit),
		StopLoss:   s.coerceField(ctx, "stop_loss", in.StopLoss),
		Tier:       tier,
	}
	if trade.ExitPrice != nil {
		closedAt := now
		trade.ClosedAt = &closedAt
	}
	trade.CalculatedFee = s.calc.Fee(ctx, trade.Tier, trade.EntryPrice, trade.ExitPrice, trade.Size)
	trade.VolumeContribution = s.calc.Volume(ctx, trade.EntryPrice, trade.Size)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.LedgerTx) error {
		if err := tx.InsertTrade(ctx, trade); err != nil {
			return err
		}
		return addVolume(ctx, tx, trade.VolumeContribution)
	})
	if err != nil {
		s.logger.Error(ctx, err, "Failed to create trade", map[string]interface{}{"symbol": symbol})
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	s.logger.Info(ctx, "Trade created", map[string]interface{}{
		"tradeID": trade.ID, "symbol": trade.Symbol, "fee": trade.CalculatedFee, "volume": trade.VolumeContribution,
	})
	return trade, nil
}

// GetTrade returns the trade with the given id.
func (s *JournalService) GetTrade(ctx context.Context, id string) (*domain.Trade, error) {
	trade, err := s.store.GetTrade(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade %s: %w", id, err)
	}
	if trade == nil {
		return nil, fmt.Errorf("trade %s: %w", id, ports.ErrNotFound)
	}
	return trade, nil
}

// EditTrade applies a partial update, handles close/reopen transitions and
// moves the volume counter by the change in contribution.
func (s *JournalService) EditTrade(ctx context.Context, id string, edit TradeEdit) (*domain.Trade, error) {
	var symbol *string
	if edit.Symbol.Present {
		str, ok := edit.Symbol.Value.(string)
		if !ok || normalizeSymbol(str) == "" {
			return nil, fmt.Errorf("symbol cannot be empty: %w", ports.ErrValidation)
		}
		norm := normalizeSymbol(str)
		if !domain.ValidSymbol(norm) {
			return nil, fmt.Errorf("symbol %q is malformed: %w", str, ports.ErrValidation)
		}
		symbol = &norm
	}
	var side *domain.Side
	if edit.Side.Present {
		raw := ""
		if edit.Side.Value != nil {
			str, ok := edit.Side.Value.(string)
			if !ok {
				return nil, fmt.Errorf("side must be a string: %w", ports.ErrValidation)
			}
			raw = str
		}
		parsed, ok := domain.ParseSide(raw)
		if !ok {
			return nil, fmt.Errorf("side %q must be long or short: %w", raw, ports.ErrValidation)
		}
		side = &parsed
	}

	var updated *domain.Trade
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.LedgerTx) error {
		current, err := tx.GetTrade(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("trade %s: %w", id, ports.ErrNotFound)
		}

		t := current.Clone()
		wasOpen := !current.IsClosed()
		if symbol != nil {
			t.Symbol = *symbol
		}
		if side != nil {
			t.Side = *side
		}

		numeric := []struct {
			name  string
			field Field
			dst   **float64
		}{
			{"pnl", edit.PNL, &t.PNL},
			{"entry_price", edit.EntryPrice, &t.EntryPrice},
			{"exit_price", edit.ExitPrice, &t.ExitPrice},
			{"size", edit.Size, &t.Size},
			{"take_profit", edit.TakeProfit, &t.TakeProfit},
			{"stop_loss", edit.StopLoss, &t.StopLoss},
		}
		for _, n := range numeric {
			if !n.field.Present {
				continue
			}
			v := s.coerceField(ctx, n.name, n.field.Value)
			if !ledger.Equal(v, *n.dst) {
				*n.dst = v
			}
		}

		switch {
		case wasOpen && t.ExitPrice != nil:
			closedAt := s.now().UTC()
			t.ClosedAt = &closedAt
			if t.PNL == nil {
				s.logger.Warn(ctx, "Trade closed without PnL", map[string]interface{}{"tradeID": id})
			}
		case !wasOpen && t.ExitPrice == nil:
			t.ClosedAt = nil
			t.ExitPrice = nil
			t.PNL = nil
		}

		t.CalculatedFee = s.calc.Fee(ctx, t.Tier, t.EntryPrice, t.ExitPrice, t.Size)

		newContribution := s.calc.Volume(ctx, t.EntryPrice, t.Size)
		if delta := newContribution - current.VolumeContribution; delta != 0 {
			t.VolumeContribution = newContribution
			if err := addVolume(ctx, tx, delta); err != nil {
				return err
			}
		}

		if err := tx.UpdateTrade(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			s.logger.Error(ctx, err, "Failed to edit trade", map[string]interface{}{"tradeID": id})
		}
		return nil, fmt.Errorf("failed to edit trade: %w", err)
	}

	s.logger.Info(ctx, "Trade updated", map[string]interface{}{"tradeID": id, "status": string(updated.Status())})
	return updated, nil
}

// TriggerClose closes an open trade at price after a take-profit or stop-loss level was crossed.
// A trade that is already closed is returned unchanged together with ErrAlreadyClosed.
func (s *JournalService) TriggerClose(ctx context.Context, id string, price float64) (*domain.Trade, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, fmt.Errorf("trigger price must be a finite number: %w", ports.ErrValidation)
	}

	var result *domain.Trade
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.LedgerTx) error {
		current, err := tx.GetTrade(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("trade %s: %w", id, ports.ErrNotFound)
		}
		if current.IsClosed() {
			result = current
			return ports.ErrAlreadyClosed
		}

		t := current.Clone()
		closedAt := s.now().UTC()
		t.ExitPrice = ledger.Float(price)
		t.ClosedAt = &closedAt
		t.PNL = ledger.RealizedPNL(t.Side, t.EntryPrice, t.Size, t.ExitPrice)
		t.CalculatedFee = s.calc.Fee(ctx, t.Tier, t.EntryPrice, t.ExitPrice, t.Size)
		t.TakeProfit = nil
		t.StopLoss = nil

		if err := tx.UpdateTrade(ctx, t); err != nil {
			return err
		}
		result = t
		return nil
	})
	switch {
	case errors.Is(err, ports.ErrAlreadyClosed):
		s.logger.Warn(ctx, "Trigger close on a trade that is already closed", map[string]interface{}{"tradeID": id})
		return result, fmt.Errorf("trade %s: %w", id, ports.ErrAlreadyClosed)
	case err != nil:
		if !errors.Is(err, ports.ErrNotFound) {
			s.logger.Error(ctx, err, "Failed to trigger close", map[string]interface{}{"tradeID": id})
		}
		return nil, fmt.Errorf("failed to trigger close: %w", err)
	}

	fields := map[string]interface{}{"tradeID": id, "price": price}
	if result.PNL != nil {
		fields["pnl"] = *result.PNL
	}
	s.logger.Info(ctx, "Trade closed by trigger", fields)
	return result, nil
}

// DeleteTrade removes a trade and subtracts its contribution from the volume counter.
func (s *JournalService) DeleteTrade(ctx context.Context, id string) error {
	var removed *domain.Trade
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.LedgerTx) error {
		current, err := tx.GetTrade(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("trade %s: %w", id, ports.ErrNotFound)
		}
		if err := addVolume(ctx, tx, -current.VolumeContribution); err != nil {
			return err
		}
		removed = current
		return tx.DeleteTrade(ctx, id)
	})
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			s.logger.Error(ctx, err, "Failed to delete trade", map[string]interface{}{"tradeID": id})
		}
		return fmt.Errorf("failed to delete trade: %w", err)
	}

	s.logger.Info(ctx, "Trade deleted", map[string]interface{}{
		"tradeID": id, "symbol": removed.Symbol, "volumeSubtracted": removed.VolumeContribution,
	})
	return nil
}

// ListOpenPositions returns open trades that have an entry price and a non-zero size, newest first.
func (s *JournalService) ListOpenPositions(ctx context.Context) ([]*domain.Trade, error) {
	trades, err := s.store.ListTrades(ctx, ports.TradeFilter{Status: domain.StatusOpen})
	if err != nil {
		return nil, fmt.Errorf("failed to list open positions: %w", err)
	}
	positions := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.EntryPrice != nil && t.Size != nil && *t.Size != 0 {
			positions = append(positions, t)
		}
	}
	return positions, nil
}

// ListOpenTrades returns every open trade, newest first.
func (s *JournalService) ListOpenTrades(ctx context.Context) ([]*domain.Trade, error) {
	trades, err := s.store.ListTrades(ctx, ports.TradeFilter{Status: domain.StatusOpen})
	if err != nil {
		return nil, fmt.Errorf("failed to list open trades: %w", err)
	}
	return trades, nil
}

// ListClosedTrades returns the trade history, newest first.
func (s *JournalService) ListClosedTrades(ctx context.Context) ([]*domain.Trade, error) {
	trades, err := s.store.ListTrades(ctx, ports.TradeFilter{Status: domain.StatusClosed})
	if err != nil {
		return nil, fmt.Errorf("failed to list closed trades: %w", err)
	}
	return trades, nil
}

// ListTrades returns every trade, newest first.
func (s *JournalService) ListTrades(ctx context.Context) ([]*domain.Trade, error) {
	trades, err := s.store.ListTrades(ctx, ports.TradeFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

// addVolume moves the total volume counter by delta inside tx.
func addVolume(ctx context.Context, tx ports.LedgerTx, delta float64) error {
	if delta == 0 {
		return nil
	}
	current, _, err := tx.GetCounter(ctx, ports.TotalVolumeKey)
	if err != nil {
		return err
	}
	return tx.SetCounter(ctx, ports.TotalVolumeKey, ledger.Round(current+delta, ledger.AmountPlaces))
}
