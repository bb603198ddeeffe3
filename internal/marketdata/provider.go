package marketdata

import (
	"context"
	"errors"
)

// Error kinds surfaced by providers. Callers decide whether a failure is
// fatal: inside a portfolio computation a per-ticker failure excludes the
// ticker, it does not abort the whole computation.
var (
	// ErrProviderUnavailable indicates a network or upstream failure for one ticker.
	ErrProviderUnavailable = errors.New("market data provider unavailable")
	// ErrNoDataForPeriod indicates the provider returned an empty history
	// for the requested window.
	ErrNoDataForPeriod = errors.New("no data for requested period")
)

// QuoteProvider returns a current price snapshot for a ticker.
type QuoteProvider interface {
	FetchQuote(ctx context.Context, ticker string) (*Quote, error)
}

// HistoryProvider returns historical OHLCV candles for a ticker over a
// period, ascending by date with no duplicate dates. Non-trading days are
// absent, not null-filled.
type HistoryProvider interface {
	FetchHistory(ctx context.Context, ticker string, period Period) ([]Candle, error)
}

// Provider combines quote and history access.
type Provider interface {
	QuoteProvider
	HistoryProvider
}
