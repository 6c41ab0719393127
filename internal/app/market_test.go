package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeJournal/internal/domain"
	"tradeJournal/internal/ports"
)

type stubProvider struct {
	mu      sync.Mutex
	quotes  map[string]domain.Quote
	err     error
	block   bool
	calls   int
	lastIDs []string
}

func (p *stubProvider) Lookup(ctx context.Context, ids []string) (map[string]domain.Quote, error) {
	p.mu.Lock()
	p.calls++
	p.lastIDs = ids
	p.mu.Unlock()

	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
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

func TestNormalizeCoinIDs(t *testing.T) {
	got := NormalizeCoinIDs([]string{" BTC ", "eth,btc", "", " , sol"})
	assert.Equal(t, []string{"btc", "eth", "sol"}, got)
	assert.Empty(t, NormalizeCoinIDs(nil))
}

func TestNewMarketService_Validation(t *testing.T) {
	_, err := NewMarketService(nil, &mockLogger{}, time.Second)
	assert.Error(t, err)
	_, err = NewMarketService(&stubProvider{}, nil, time.Second)
	assert.Error(t, err)
	_, err = NewMarketService(&stubProvider{}, &mockLogger{}, 0)
	assert.True(t, errors.Is(err, ports.ErrConfigurationError))
}

func TestMarketService_Lookup(t *testing.T) {
	provider := &stubProvider{quotes: map[string]domain.Quote{"btc": {Price: 65000}, "eth": {Price: 3200}}}
	svc, err := NewMarketService(provider, &mockLogger{}, time.Second)
	require.NoError(t, err)

	quotes, err := svc.Lookup(context.Background(), []string{"BTC", "eth", "doge"})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Quote{"btc": {Price: 65000}, "eth": {Price: 3200}}, quotes)
	assert.Equal(t, []string{"btc", "doge", "eth"}, provider.lastIDs)

	_, err = svc.Lookup(context.Background(), []string{" "})
	assert.True(t, errors.Is(err, ports.ErrValidation))
	assert.Equal(t, 1, provider.calls)
}

func TestMarketService_Timeout(t *testing.T) {
	svc, err := NewMarketService(&stubProvider{block: true}, &mockLogger{}, 20*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	_, err = svc.Lookup(context.Background(), []string{"btc"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrTimeout))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestMarketService_ProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"generic failure", errors.New("connection refused"), ports.ErrMarketDataUnavailable},
		{"rate limited kept", ports.ErrRateLimited, ports.ErrRateLimited},
		{"unavailable kept", ports.ErrMarketDataUnavailable, ports.ErrMarketDataUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &mockLogger{}
			svc, err := NewMarketService(&stubProvider{err: tt.err}, log, time.Second)
			require.NoError(t, err)

			_, err = svc.Lookup(context.Background(), []string{"btc"})
			assert.True(t, errors.Is(err, tt.want))
			assert.Contains(t, log.warnings(), "Market data lookup failed")
		})
	}
}
