package app

import (
	"context"
	"errors"
	"fmt"
	"math"

	"tradeJournal/internal/domain"
	"tradeJournal/internal/ledger"
	"tradeJournal/internal/ports"
)

func parseAmount(amount any) (float64, error) {
	v := ledger.Coerce(amount, nil)
	if v == nil || math.IsInf(*v, 0) || *v <= 0 {
		return 0, fmt.Errorf("amount %v: %w", amount, ports.ErrInvalidAmount)
	}
	return *v, nil
}

func balanceMap(rows []*domain.Balance) domain.Balances {
	out := make(domain.Balances, len(rows))
	for _, b := range rows {
		out[b.Symbol] = b.Amount
	}
	return out
}

// Balances returns the full symbol to amount mapping.
func (s *JournalService) Balances(ctx context.Context) (domain.Balances, error) {
	rows, err := s.store.ListBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	return balanceMap(rows), nil
}

// Deposit adds amount to the symbol's balance, creating it when absent.
func (s *JournalService) Deposit(ctx context.Context, symbol string, amount any) (domain.Balances, error) {
	return s.adjustBalance(ctx, "deposit", symbol, amount, func(bal *domain.Balance, amt float64) error {
		bal.Amount = ledger.Add(bal.Amount, amt)
		return nil
	})
}

// Withdraw subtracts amount from the symbol's balance.
// It fails with ErrInsufficientFunds when no balance exists or it is smaller than amount.
func (s *JournalService) Withdraw(ctx context.Context, symbol string, amount any) (domain.Balances, error) {
	return s.adjustBalance(ctx, "withdraw", symbol, amount, func(bal *domain.Balance, amt float64) error {
		if bal.Amount < amt {
			return fmt.Errorf("%s balance %v is below %v: %w", bal.Symbol, bal.Amount, amt, ports.ErrInsufficientFunds)
		}
		bal.Amount = ledger.Add(bal.Amount, -amt)
		return nil
	})
}

func (s *JournalService) adjustBalance(
	ctx context.Context,
	op string,
	symbol string,
	amount any,
	apply func(bal *domain.Balance, amt float64) error,
) (domain.Balances, error) {
	sym := normalizeSymbol(symbol)
	if sym == "" {
		return nil, fmt.Errorf("symbol is required: %w", ports.ErrValidation)
	}
	if !domain.ValidSymbol(sym) {
		return nil, fmt.Errorf("symbol %q is malformed: %w", symbol, ports.ErrValidation)
	}
	amt, err := parseAmount(amount)
	if err != nil {
		return nil, err
	}

	var balances domain.Balances
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.LedgerTx) error {
		bal, err := tx.GetBalance(ctx, sym)
		if err != nil {
			return err
		}
		if bal == nil {
			if op == "withdraw" {
				return fmt.Errorf("no %s balance: %w", sym, ports.ErrInsufficientFunds)
			}
			bal = &domain.Balance{Symbol: sym}
		}
		if err := apply(bal, amt); err != nil {
			return err
		}
		if err := tx.SaveBalance(ctx, bal); err != nil {
			return err
		}
		rows, err := tx.ListBalances(ctx)
		if err != nil {
			return err
		}
		balances = balanceMap(rows)
		return nil
	})
	if err != nil {
		if errors.Is(err, ports.ErrInsufficientFunds) {
			s.logger.Warn(ctx, "Withdrawal rejected", map[string]interface{}{"symbol": sym, "amount": amt})
		} else {
			s.logger.Error(ctx, err, "Failed to update balance", map[string]interface{}{"op": op, "symbol": sym})
		}
		return nil, fmt.Errorf("failed to %s %s: %w", op, sym, err)
	}

	s.logger.Info(ctx, "Balance updated", map[string]interface{}{"op": op, "symbol": sym, "amount": amt, "balance": balances[sym]})
	return balances, nil
}
