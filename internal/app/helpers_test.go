package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tradeJournal/internal/adapters/sqlite"
	"tradeJournal/internal/domain"
	"tradeJournal/internal/ledger"
	"tradeJournal/internal/ports"
)

// Mock implementations
type mockLogger struct {
	mu        sync.Mutex
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMsgs = append(m.errorMsgs, msg)
}

func (m *mockLogger) warnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.warnMsgs...)
}

func (m *mockLogger) errors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.errorMsgs...)
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("trade-%d", n)
	}
}

// faultyStore wraps a real store and injects failures into individual repository calls.
type faultyStore struct {
	ports.LedgerStore
	setCounterErr error
	updateErr     error
	listErr       error
}

func (s *faultyStore) ListTrades(ctx context.Context, filter ports.TradeFilter) ([]*domain.Trade, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.LedgerStore.ListTrades(ctx, filter)
}

func (s *faultyStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.LedgerTx) error) error {
	return s.LedgerStore.WithinTx(ctx, func(ctx context.Context, tx ports.LedgerTx) error {
		return fn(ctx, &faultyTx{LedgerTx: tx, store: s})
	})
}

type faultyTx struct {
	ports.LedgerTx
	store *faultyStore
}

func (t *faultyTx) SetCounter(ctx context.Context, key string, value float64) error {
	if t.store.setCounterErr != nil {
		return t.store.setCounterErr
	}
	return t.LedgerTx.SetCounter(ctx, key, value)
}

func (t *faultyTx) UpdateTrade(ctx context.Context, trade *domain.Trade) error {
	if t.store.updateErr != nil {
		return t.store.updateErr
	}
	return t.LedgerTx.UpdateTrade(ctx, trade)
}

func (t *faultyTx) ListTrades(ctx context.Context, filter ports.TradeFilter) ([]*domain.Trade, error) {
	if t.store.listErr != nil {
		return nil, t.store.listErr
	}
	return t.LedgerTx.ListTrades(ctx, filter)
}

type testEnv struct {
	svc    *JournalService
	repo   *sqlite.Repository
	store  *faultyStore
	clock  *testClock
	logger *mockLogger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := &mockLogger{}
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: filepath.Join(t.TempDir(), "journal.db"),
		Logger: logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	calc, err := ledger.NewCalculator(ledger.StandardSchedule(), logger)
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2026, 5, 10, 14, 30, 0, 0, time.UTC)}
	store := &faultyStore{LedgerStore: repo}
	svc, err := NewJournalService(logger, store, calc, WithClock(clock.Now), WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)

	return &testEnv{svc: svc, repo: repo, store: store, clock: clock, logger: logger}
}

// openLong creates the reference trade used across tests: long, entry 100, size 2, tier 1.
func (e *testEnv) openLong(t *testing.T) *domain.Trade {
	t.Helper()
	trade, err := e.svc.CreateTrade(context.Background(), CreateTradeInput{
		Symbol: "btc", Side: "long", EntryPrice: 100.0, Size: 2.0, Tier: "1",
	})
	require.NoError(t, err)
	return trade
}

func (e *testEnv) counter(t *testing.T) float64 {
	t.Helper()
	v, _, err := e.repo.GetCounter(context.Background(), ports.TotalVolumeKey)
	require.NoError(t, err)
	return v
}

func f(v float64) *float64 { return &v }
