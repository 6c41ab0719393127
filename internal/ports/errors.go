package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these so callers can use errors.Is.
var (
	// General Errors
	ErrValidation         = errors.New("missing or malformed required field")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Ledger Errors
	ErrAlreadyClosed     = errors.New("trade is already closed")
	ErrInvalidAmount     = errors.New("amount must be a positive number")
	ErrInsufficientFunds = errors.New("insufficient funds for operation")

	// Database Errors
	ErrPersistence    = errors.New("persistence failure")
	ErrDuplicateEntry = errors.New("database record already exists")

	// Market Data Errors
	ErrMarketDataUnavailable = errors.New("market data service is unavailable")
	ErrRateLimited           = errors.New("API rate limit exceeded")
)
