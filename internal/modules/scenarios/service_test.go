package scenarios

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/stockdash/internal/marketdata"
)

// fakeQuoteProvider serves canned quotes per ticker.
type fakeQuoteProvider struct {
	quotes map[string]*marketdata.Quote
}

func (f *fakeQuoteProvider) FetchQuote(ctx context.Context, ticker string) (*marketdata.Quote, error) {
	q, ok := f.quotes[ticker]
	if !ok {
		return nil, marketdata.ErrProviderUnavailable
	}
	return q, nil
}

func newTestService(t *testing.T, quotes map[string]*marketdata.Quote) *Service {
	t.Helper()
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	return NewService(repo, &fakeQuoteProvider{quotes: quotes}, zerolog.Nop())
}

func TestServiceCreate(t *testing.T) {
	svc := newTestService(t, nil)

	scenario, err := svc.Create("  Tech Growth  ", 25000, marketdata.Period{})
	require.NoError(t, err)

	assert.NotEmpty(t, scenario.ID)
	assert.Equal(t, "Tech Growth", scenario.Name)
	assert.Equal(t, 25000.0, scenario.InitialCapital)
	// Zero period defaults to 1y
	assert.Equal(t, marketdata.Period1Y, scenario.AnalysisPeriod)
	assert.NotNil(t, scenario.Holdings)

	got, err := svc.Get(scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, scenario.Name, got.Name)
}

func TestServiceCreateValidation(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Create("   ", 1000, marketdata.Period1Y)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create("Valid", 0, marketdata.Period1Y)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create("Valid", -5, marketdata.Period1Y)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestServiceAddHoldingNormalizesTicker(t *testing.T) {
	svc := newTestService(t, nil)

	scenario, err := svc.Create("Mix", 1000, marketdata.Period1Y)
	require.NoError(t, err)

	require.NoError(t, svc.AddHolding(scenario.ID, "  aapl ", 0.6, nil, nil))

	got, err := svc.Get(scenario.ID)
	require.NoError(t, err)
	require.Len(t, got.Holdings, 1)
	assert.Equal(t, "AAPL", got.Holdings[0].Ticker)
}

func TestServiceAddHoldingValidation(t *testing.T) {
	svc := newTestService(t, nil)

	scenario, err := svc.Create("Mix", 1000, marketdata.Period1Y)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.AddHolding(scenario.ID, "", 0.5, nil, nil), ErrInvalidInput)
	assert.ErrorIs(t, svc.AddHolding(scenario.ID, "AAPL", 0, nil, nil), ErrInvalidInput)

	badShares := -1.0
	assert.ErrorIs(t, svc.AddHolding(scenario.ID, "AAPL", 0.5, &badShares, nil), ErrInvalidInput)

	badPrice := 0.0
	assert.ErrorIs(t, svc.AddHolding(scenario.ID, "AAPL", 0.5, nil, &badPrice), ErrInvalidInput)
}

func TestServiceWeights(t *testing.T) {
	svc := newTestService(t, nil)

	scenario, err := svc.Create("Mix", 1000, marketdata.Period1Y)
	require.NoError(t, err)
	require.NoError(t, svc.AddHolding(scenario.ID, "AAPL", 60, nil, nil))
	require.NoError(t, svc.AddHolding(scenario.ID, "MSFT", 40, nil, nil))

	got, err := svc.Get(scenario.ID)
	require.NoError(t, err)

	weights := got.Weights()
	assert.Equal(t, map[string]float64{"AAPL": 60, "MSFT": 40}, weights)
}

func TestServiceSummary(t *testing.T) {
	quotes := map[string]*marketdata.Quote{
		"AAPL": {Ticker: "AAPL", Price: 200, Sector: "Technology"},
		"XOM":  {Ticker: "XOM", Price: 100, Sector: "Energy"},
	}
	svc := newTestService(t, quotes)

	scenario, err := svc.Create("Mix", 10000, marketdata.Period1Y)
	require.NoError(t, err)

	shares := 10.0
	purchase := 150.0
	require.NoError(t, svc.AddHolding(scenario.ID, "AAPL", 60, &shares, &purchase))
	require.NoError(t, svc.AddHolding(scenario.ID, "XOM", 20, nil, nil))
	require.NoError(t, svc.AddHolding(scenario.ID, "FAIL", 20, nil, nil))

	summary, err := svc.Summary(context.Background(), scenario.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.HoldingsCount)
	require.Len(t, summary.Holdings, 2)
	assert.Equal(t, []string{"FAIL"}, summary.Unpriced)

	aapl := summary.Holdings[0]
	assert.Equal(t, "AAPL", aapl.Ticker)
	assert.InDelta(t, 0.6, aapl.WeightFraction, 1e-9)
	require.NotNil(t, aapl.Value)
	assert.InDelta(t, 2000, *aapl.Value, 1e-9) // 10 shares * 200

	// Unrealized P&L: (200-150)*10 = 500, +33.33%
	require.NotNil(t, aapl.UnrealizedPnL)
	assert.InDelta(t, 500, *aapl.UnrealizedPnL, 1e-9)
	require.NotNil(t, aapl.UnrealizedPnLPct)
	assert.InDelta(t, 100.0/3, *aapl.UnrealizedPnLPct, 1e-6)

	xom := summary.Holdings[1]
	assert.InDelta(t, 0.2, xom.WeightFraction, 1e-9)
	assert.Nil(t, xom.Value)
	assert.Nil(t, xom.UnrealizedPnL)

	assert.InDelta(t, 0.6, summary.SectorAllocation["Technology"], 1e-9)
	assert.InDelta(t, 0.2, summary.SectorAllocation["Energy"], 1e-9)
}

func TestServiceSummaryNotFound(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Summary(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
