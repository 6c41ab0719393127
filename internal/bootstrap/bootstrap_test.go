package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeJournal/config"
	"tradeJournal/internal/adapters/logger"
	"tradeJournal/internal/app"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBPath:              filepath.Join(t.TempDir(), "nested", "journal.db"),
		LogLevel:            logger.LevelError,
		HTTPAddr:            "127.0.0.1:0",
		DefaultFeeTier:      "VIP1",
		DayLocation:         time.UTC,
		MarketQuoteAsset:    "USDT",
		MarketDataTimeout:   time.Second,
		TriggerPollInterval: time.Minute,
	}
}

func TestNew_WiresJournal(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Market)
	assert.Nil(t, a.Watcher)
	assert.Equal(t, "VIP1", a.Journal.DefaultTier())

	trade, err := a.Journal.CreateTrade(context.Background(), app.CreateTradeInput{Symbol: "BTC", EntryPrice: 100, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 0.052, trade.CalculatedFee)
}

func TestNew_WithMarketData(t *testing.T) {
	cfg := testConfig(t)
	cfg.MarketDataEnabled = true
	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Market)
	assert.NotNil(t, a.Watcher)
}

func TestNew_RejectsUnknownDefaultTier(t *testing.T) {
	cfg := testConfig(t)
	cfg.DefaultFeeTier = "gold"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestRouter_Healthz(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	router, err := a.Router()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/market_data?ids=btc", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServe_StopsOnCancel(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, "127.0.0.1:0", true) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.Equal(t, gin.ReleaseMode, gin.Mode())
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
