package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tradeJournal/internal/domain"
	"tradeJournal/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	defaultQuoteAsset = "USDT"
)

// Client implements ports.MarketDataProvider using Binance futures ticker prices.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
	quoteAsset    string
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	BaseURL    string // Overrides the production/testnet URL when set
	QuoteAsset string // Appended to coin ids to form symbols, e.g. "USDT"
	Logger     ports.Logger
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Debug(context.Background(), "APIKey or SecretKey is empty. Client will only use public endpoints.")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using global futures.UseTestnet
	switch {
	case cfg.BaseURL != "":
		client.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	case cfg.UseTestnet:
		client.BaseURL = baseURLTestnet
	default:
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance market data client configured", map[string]interface{}{"baseURL": client.BaseURL})

	quote := strings.ToUpper(strings.TrimSpace(cfg.QuoteAsset))
	if quote == "" {
		quote = defaultQuoteAsset
	}

	return &Client{
		futuresClient: client,
		logger:        cfg.Logger,
		quoteAsset:    quote,
	}, nil
}

// SymbolFor maps a coin id such as "btc" to the exchange symbol "BTCUSDT".
func (c *Client) SymbolFor(id string) string {
	return strings.ToUpper(strings.TrimSpace(id)) + c.quoteAsset
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1121: // Invalid symbol
			mappedErr = ports.ErrValidation
		default:
			mappedErr = ports.ErrMarketDataUnavailable
		}
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrMarketDataUnavailable, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// Ping checks connectivity to the futures API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	if err := c.futuresClient.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, err, op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// Lookup fetches the latest price of every id in one ticker call.
// Ids without a listed <ID><QUOTE> symbol are omitted from the result.
func (c *Client) Lookup(ctx context.Context, ids []string) (map[string]domain.Quote, error) {
	op := "Lookup"
	wanted := make(map[string][]string, len(ids))
	for _, id := range ids {
		sym := c.SymbolFor(id)
		wanted[sym] = append(wanted[sym], id)
	}

	prices, err := c.futuresClient.NewListPricesService().Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	quotes := make(map[string]domain.Quote, len(ids))
	for _, p := range prices {
		owners, ok := wanted[p.Symbol]
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			parseErr := fmt.Errorf("could not parse price '%s' for %s: %w", p.Price, p.Symbol, err)
			return nil, c.handleError(ctx, parseErr, op)
		}
		for _, id := range owners {
			quotes[id] = domain.Quote{Price: price}
		}
	}

	if len(quotes) < len(ids) {
		c.logger.Debug(ctx, "Some ids have no futures symbol", map[string]interface{}{
			"requested": len(ids), "found": len(quotes), "quoteAsset": c.quoteAsset,
		})
	}
	return quotes, nil
}
