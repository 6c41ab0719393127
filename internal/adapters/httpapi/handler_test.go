package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeJournal/internal/adapters/sqlite"
	"tradeJournal/internal/app"
	"tradeJournal/internal/domain"
	"tradeJournal/internal/ledger"
	"tradeJournal/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type stubProvider struct {
	quotes map[string]domain.Quote
	err    error
}

func (p *stubProvider) Lookup(ctx context.Context, ids []string) (map[string]domain.Quote, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make(map[string]domain.Quote)
	for _, id := range ids {
		if q, ok := p.quotes[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

var testNow = time.Date(2026, 5, 10, 14, 30, 0, 0, time.UTC)

type testServer struct {
	router   *gin.Engine
	provider *stubProvider
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := &mockLogger{}
	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: filepath.Join(t.TempDir(), "api.db"), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	calc, err := ledger.NewCalculator(ledger.StandardSchedule(), logger)
	require.NoError(t, err)

	n := 0
	journal, err := app.NewJournalService(logger, repo, calc,
		app.WithClock(func() time.Time { return testNow }),
		app.WithIDGenerator(func() string { n++; return fmt.Sprintf("t%d", n) }),
	)
	require.NoError(t, err)

	provider := &stubProvider{quotes: map[string]domain.Quote{"btc": {Price: 65000}}}
	market, err := app.NewMarketService(provider, logger, time.Second)
	require.NoError(t, err)

	h, err := NewHandler(Config{
		Journal:     journal,
		Market:      market,
		Logger:      logger,
		DayLocation: time.UTC,
		Now:         func() time.Time { return testNow },
		Health:      repo.Ping,
	})
	require.NoError(t, err)

	return &testServer{router: NewRouter(h), provider: provider}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ports.ErrValidation, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", ports.ErrInvalidAmount), http.StatusBadRequest},
		{ports.ErrInsufficientFunds, http.StatusBadRequest},
		{ports.ErrNotFound, http.StatusNotFound},
		{ports.ErrDuplicateEntry, http.StatusConflict},
		{ports.ErrTimeout, http.StatusGatewayTimeout},
		{ports.ErrMarketDataUnavailable, http.StatusBadGateway},
		{ports.ErrRateLimited, http.StatusBadGateway},
		{ports.ErrPersistence, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestHealthz(t *testing.T) {
	s := setupServer(t)
	w := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestTradeLifecycleOverHTTP(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, http.MethodPost, "/api/trades", map[string]any{
		"symbol": "btc", "side": "long", "entry_price": "100", "size": 2, "take_profit": 110, "tier": "1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[domain.Trade](t, w)
	assert.Equal(t, "t1", created.ID)
	assert.Equal(t, "BTC", created.Symbol)
	assert.Equal(t, 0.1, created.CalculatedFee)
	assert.Equal(t, 400.0, created.VolumeContribution)

	w = s.do(t, http.MethodGet, "/api/total_volume", nil)
	assert.JSONEq(t, `{"total_volume":400}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/positions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Trade](t, w), 1)

	w = s.do(t, http.MethodPut, "/api/trades/t1", `{"entry_price": 150}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 600.0, decode[domain.Trade](t, w).VolumeContribution)

	w = s.do(t, http.MethodPost, "/api/trades/t1/trigger_close", map[string]any{"trigger_price": "160"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	closed := decode[domain.Trade](t, w)
	require.NotNil(t, closed.PNL)
	assert.Equal(t, 20.0, *closed.PNL)
	assert.Nil(t, closed.TakeProfit)

	// Already closed: 200 with unchanged state.
	w = s.do(t, http.MethodPost, "/api/trades/t1/trigger_close", map[string]any{"trigger_price": 999})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 160.0, *decode[domain.Trade](t, w).ExitPrice)

	w = s.do(t, http.MethodGet, "/api/trades", nil)
	assert.Len(t, decode[[]domain.Trade](t, w), 1)

	w = s.do(t, http.MethodGet, "/api/daily_pnl", nil)
	assert.JSONEq(t, `{"daily_pnl":20}`, w.Body.String())
	w = s.do(t, http.MethodGet, "/api/daily_fees?date=2026-05-10", nil)
	assert.JSONEq(t, `{"daily_fees":0.31}`, w.Body.String())
	w = s.do(t, http.MethodGet, "/api/daily_fees?date=2026-05-09", nil)
	assert.JSONEq(t, `{"daily_fees":0}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/daily_pnl_history", nil)
	assert.JSONEq(t, `[{"date":"2026-05-10","net_pnl":19.69}]`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/debug/trades_today_count", nil)
	assert.JSONEq(t, `{"trades_created_today":1}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/symbol_pnl", nil)
	assert.JSONEq(t, `{"BTC":20}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/statistics", nil)
	stats := decode[domain.Statistics](t, w)
	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, "BTC", stats.BestSymbol)

	w = s.do(t, http.MethodDelete, "/api/trades/t1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/total_volume", nil)
	assert.JSONEq(t, `{"total_volume":0}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/trades/t1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTradeRequestErrors(t *testing.T) {
	s := setupServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing symbol", http.MethodPost, "/api/trades", `{"entry_price": 1}`, http.StatusBadRequest},
		{"bad symbol", http.MethodPost, "/api/trades", `{"symbol": "BTC/USDT!"}`, http.StatusBadRequest},
		{"bad side", http.MethodPost, "/api/trades", `{"symbol": "BTC", "side": "up"}`, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/trades", `{`, http.StatusBadRequest},
		{"edit bad symbol", http.MethodPut, "/api/trades/nope", `{"symbol": "BTC/USDT!"}`, http.StatusBadRequest},
		{"edit unknown", http.MethodPut, "/api/trades/nope", `{"pnl": 1}`, http.StatusNotFound},
		{"delete unknown", http.MethodDelete, "/api/trades/nope", nil, http.StatusNotFound},
		{"trigger without price", http.MethodPost, "/api/trades/nope/trigger_close", `{}`, http.StatusBadRequest},
		{"trigger bad price", http.MethodPost, "/api/trades/nope/trigger_close", `{"trigger_price": "abc"}`, http.StatusBadRequest},
		{"trigger unknown", http.MethodPost, "/api/trades/nope/trigger_close", `{"trigger_price": 1}`, http.StatusNotFound},
		{"bad date", http.MethodGet, "/api/daily_pnl?date=10/05/2026", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestBalancesOverHTTP(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, http.MethodPost, "/api/balances/deposit", `{"symbol": "btc", "amount": "3"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"deposit recorded","balances":{"BTC":3}}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/balances/withdraw", `{"symbol": "BTC", "amount": 5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/balances/withdraw", `{"symbol": "BTC", "amount": 1}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/balances/deposit", `{"symbol": "BTC", "amount": -1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/api/balances/deposit", `{"amount": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/balances", nil)
	assert.JSONEq(t, `{"BTC":2}`, w.Body.String())
}

func TestMarketDataOverHTTP(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, http.MethodGet, "/api/market_data?ids=btc,eth", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"btc":{"usd":65000}}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/market_data", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.provider.err = ports.ErrTimeout
	w = s.do(t, http.MethodGet, "/api/market_data?ids=btc", nil)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)

	s.provider.err = errors.New("connection refused")
	w = s.do(t, http.MethodGet, "/api/market_data?ids=btc", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestReconcileVolumeOverHTTP(t *testing.T) {
	s := setupServer(t)
	w := s.do(t, http.MethodPost, "/api/trades", `{"symbol": "ETH", "entry_price": 10, "size": 5}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/api/admin/reconcile_volume", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"before":100,"after":100}`, w.Body.String())
}

func TestInfiniteInputDoesNotPoisonTradeHistory(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, http.MethodPost, "/api/trades", `{"symbol": "BTC", "side": "long", "entry_price": "Infinity", "size": 1, "exit_price": 110}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[domain.Trade](t, w)
	assert.Nil(t, created.EntryPrice)
	assert.Equal(t, 0.0, created.VolumeContribution)

	w = s.do(t, http.MethodPost, "/api/trades", `{"symbol": "ETH", "side": "long", "entry_price": 10, "size": 5, "exit_price": "-Inf"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Nil(t, decode[domain.Trade](t, w).ExitPrice)

	w = s.do(t, http.MethodPost, "/api/trades", `{"symbol": "SOL", "side": "long", "entry_price": 20, "size": 1, "exit_price": 25}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/trades", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Trade](t, w), 2)

	w = s.do(t, http.MethodGet, "/api/positions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Trade](t, w), 1)

	w = s.do(t, http.MethodPut, "/api/trades/t3", `{"entry_price": "Infinity"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, decode[domain.Trade](t, w).EntryPrice)
}
