// Package screener filters stock snapshots against user-supplied bounds.
package screener

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aristath/stockdash/internal/marketdata"
)

// DefaultUniverse is the ticker set screened when the caller supplies none.
var DefaultUniverse = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "META", "NVDA", "NFLX"}

// Filter holds the screening constraints. A nil field means "no constraint
// on that dimension".
type Filter struct {
	MinPE            *float64 `json:"min_pe,omitempty"`
	MaxPE            *float64 `json:"max_pe,omitempty"`
	MinDividendYield *float64 `json:"min_dividend_yield,omitempty"`
	Sector           *string  `json:"sector,omitempty"`
	MinMarketCap     *float64 `json:"min_market_cap,omitempty"`
	MaxMarketCap     *float64 `json:"max_market_cap,omitempty"`
}

// Failure records a ticker that could not be screened and why.
type Failure struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// Result separates matches from fetch failures so the caller can tell
// "filtered out" apart from "could not be evaluated".
type Result struct {
	Matches  []marketdata.Quote `json:"matches"`
	Failures []Failure          `json:"failures,omitempty"`
}

// Service screens a ticker universe against a filter
type Service struct {
	quotes marketdata.QuoteProvider
	log    zerolog.Logger
}

// NewService creates a new screener service
func NewService(quotes marketdata.QuoteProvider, log zerolog.Logger) *Service {
	return &Service{
		quotes: quotes,
		log:    log.With().Str("service", "screener").Logger(),
	}
}

// Screen fetches snapshots for the given tickers (DefaultUniverse when
// empty) and returns those satisfying every supplied bound. Per-ticker
// fetch failures are collected, not fatal.
func (s *Service) Screen(ctx context.Context, tickers []string, filter Filter) (*Result, error) {
	if len(tickers) == 0 {
		tickers = DefaultUniverse
	}

	result := &Result{Matches: []marketdata.Quote{}}

	for _, ticker := range tickers {
		quote, err := s.quotes.FetchQuote(ctx, ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Skipping ticker in screen")
			result.Failures = append(result.Failures, Failure{Ticker: ticker, Reason: err.Error()})
			continue
		}

		if Passes(quote, filter) {
			result.Matches = append(result.Matches, *quote)
		}
	}

	return result, nil
}

// Passes reports whether a snapshot satisfies every supplied bound.
// A snapshot without a P/E ratio fails any P/E bound: missing is
// "unavailable", not 0, so a P/E-less stock never slips through a
// max-P/E screen.
func Passes(q *marketdata.Quote, f Filter) bool {
	if f.MinPE != nil && (q.PERatio == nil || *q.PERatio < *f.MinPE) {
		return false
	}
	if f.MaxPE != nil && (q.PERatio == nil || *q.PERatio > *f.MaxPE) {
		return false
	}
	if f.MinDividendYield != nil && q.DividendYield < *f.MinDividendYield {
		return false
	}
	if f.Sector != nil && q.Sector != *f.Sector {
		return false
	}
	if f.MinMarketCap != nil && q.MarketCap < *f.MinMarketCap {
		return false
	}
	if f.MaxMarketCap != nil && q.MarketCap > *f.MaxMarketCap {
		return false
	}
	return true
}
