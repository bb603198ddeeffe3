package screener

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/stockdash/internal/marketdata"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(s string) *string     { return &s }

func quoteWith(ticker string, pe *float64) *marketdata.Quote {
	return &marketdata.Quote{
		Ticker:        ticker,
		Price:         100,
		PERatio:       pe,
		DividendYield: 0.02,
		Sector:        "Technology",
		MarketCap:     1e12,
	}
}

func TestPassesNoConstraints(t *testing.T) {
	assert.True(t, Passes(quoteWith("AAPL", floatPtr(30)), Filter{}))
	assert.True(t, Passes(quoteWith("AAPL", nil), Filter{}))
}

func TestPassesPEBounds(t *testing.T) {
	q := quoteWith("AAPL", floatPtr(30))

	assert.True(t, Passes(q, Filter{MaxPE: floatPtr(35)}))
	assert.False(t, Passes(q, Filter{MaxPE: floatPtr(25)}))
	assert.True(t, Passes(q, Filter{MinPE: floatPtr(25)}))
	assert.False(t, Passes(q, Filter{MinPE: floatPtr(35)}))
	assert.True(t, Passes(q, Filter{MinPE: floatPtr(25), MaxPE: floatPtr(35)}))
}

func TestPassesMissingPEFailsPEBounds(t *testing.T) {
	q := quoteWith("BRK-A", nil)

	// Missing P/E is unavailable, not 0: any P/E bound rejects it
	assert.False(t, Passes(q, Filter{MaxPE: floatPtr(1000)}))
	assert.False(t, Passes(q, Filter{MinPE: floatPtr(0)}))
	assert.True(t, Passes(q, Filter{MinDividendYield: floatPtr(0.01)}))
}

func TestPassesDividendYield(t *testing.T) {
	q := quoteWith("AAPL", floatPtr(30))

	assert.True(t, Passes(q, Filter{MinDividendYield: floatPtr(0.01)}))
	assert.False(t, Passes(q, Filter{MinDividendYield: floatPtr(0.05)}))
}

func TestPassesSector(t *testing.T) {
	q := quoteWith("AAPL", floatPtr(30))

	assert.True(t, Passes(q, Filter{Sector: strPtr("Technology")}))
	assert.False(t, Passes(q, Filter{Sector: strPtr("Energy")}))
}

func TestPassesMarketCapBounds(t *testing.T) {
	q := quoteWith("AAPL", floatPtr(30))

	assert.True(t, Passes(q, Filter{MinMarketCap: floatPtr(1e11)}))
	assert.False(t, Passes(q, Filter{MinMarketCap: floatPtr(1e13)}))
	assert.True(t, Passes(q, Filter{MaxMarketCap: floatPtr(1e13)}))
	assert.False(t, Passes(q, Filter{MaxMarketCap: floatPtr(1e11)}))
}

// fakeQuotes serves canned quotes; unknown tickers fail.
type fakeQuotes struct {
	quotes map[string]*marketdata.Quote
}

func (f *fakeQuotes) FetchQuote(ctx context.Context, ticker string) (*marketdata.Quote, error) {
	q, ok := f.quotes[ticker]
	if !ok {
		return nil, marketdata.ErrProviderUnavailable
	}
	return q, nil
}

func TestScreen(t *testing.T) {
	provider := &fakeQuotes{quotes: map[string]*marketdata.Quote{
		"AAPL": quoteWith("AAPL", floatPtr(30)),
		"TSLA": quoteWith("TSLA", floatPtr(70)),
	}}
	svc := NewService(provider, zerolog.Nop())

	result, err := svc.Screen(context.Background(), []string{"AAPL", "TSLA", "FAIL"}, Filter{MaxPE: floatPtr(50)})
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	assert.Equal(t, "AAPL", result.Matches[0].Ticker)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "FAIL", result.Failures[0].Ticker)
}

func TestScreenDefaultUniverse(t *testing.T) {
	quotes := make(map[string]*marketdata.Quote, len(DefaultUniverse))
	for _, ticker := range DefaultUniverse {
		quotes[ticker] = quoteWith(ticker, floatPtr(25))
	}
	svc := NewService(&fakeQuotes{quotes: quotes}, zerolog.Nop())

	result, err := svc.Screen(context.Background(), nil, Filter{})
	require.NoError(t, err)

	assert.Len(t, result.Matches, len(DefaultUniverse))
	assert.Empty(t, result.Failures)
}

func TestScreenNoMatchesReturnsEmptySlice(t *testing.T) {
	provider := &fakeQuotes{quotes: map[string]*marketdata.Quote{
		"AAPL": quoteWith("AAPL", floatPtr(30)),
	}}
	svc := NewService(provider, zerolog.Nop())

	result, err := svc.Screen(context.Background(), []string{"AAPL"}, Filter{MaxPE: floatPtr(10)})
	require.NoError(t, err)

	assert.NotNil(t, result.Matches)
	assert.Empty(t, result.Matches)
}
