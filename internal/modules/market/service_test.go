package market

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/aristath/stockdash/internal/marketdata"
)

// fakeProvider serves canned quotes and candles; entries in errs fail.
type fakeProvider struct {
	quotes  map[string]*marketdata.Quote
	candles map[string][]marketdata.Candle
	errs    map[string]error
}

func (f *fakeProvider) FetchQuote(ctx context.Context, ticker string) (*marketdata.Quote, error) {
	if err, ok := f.errs[ticker]; ok {
		return nil, err
	}
	q, ok := f.quotes[ticker]
	if !ok {
		return nil, marketdata.ErrProviderUnavailable
	}
	return q, nil
}

func (f *fakeProvider) FetchHistory(ctx context.Context, ticker string, period marketdata.Period) ([]marketdata.Candle, error) {
	if err, ok := f.errs[ticker]; ok {
		return nil, err
	}
	c, ok := f.candles[ticker]
	if !ok {
		return nil, marketdata.ErrNoDataForPeriod
	}
	return c, nil
}

func newTestService(t *testing.T, provider *fakeProvider) *Service {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(marketdata.SnapshotSchema)
	require.NoError(t, err)

	snapshots := marketdata.NewSnapshotStore(db, zerolog.Nop())
	return NewService(provider, snapshots, zerolog.Nop())
}

func candlesOf(closes ...float64) []marketdata.Candle {
	out := make([]marketdata.Candle, 0, len(closes))
	for i, c := range closes {
		out = append(out, marketdata.Candle{
			Date:  time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		})
	}
	return out
}

func TestQuoteFreshPath(t *testing.T) {
	provider := &fakeProvider{
		quotes: map[string]*marketdata.Quote{
			"AAPL": {Ticker: "AAPL", Price: 185.5},
		},
	}
	svc := newTestService(t, provider)

	result, err := svc.Quote(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.False(t, result.Stale)
	assert.Equal(t, 185.5, result.Quote.Price)
}

func TestQuoteStaleFallback(t *testing.T) {
	provider := &fakeProvider{
		quotes: map[string]*marketdata.Quote{
			"AAPL": {Ticker: "AAPL", Price: 185.5},
		},
	}
	svc := newTestService(t, provider)

	// First call persists a snapshot
	_, err := svc.Quote(context.Background(), "AAPL")
	require.NoError(t, err)

	// Provider goes down: the persisted snapshot is served flagged stale
	provider.errs = map[string]error{"AAPL": marketdata.ErrProviderUnavailable}

	result, err := svc.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, result.Stale)
	assert.Equal(t, 185.5, result.Quote.Price)
}

func TestQuoteNoSnapshotPropagatesError(t *testing.T) {
	provider := &fakeProvider{
		errs: map[string]error{"AAPL": marketdata.ErrProviderUnavailable},
	}
	svc := newTestService(t, provider)

	_, err := svc.Quote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, marketdata.ErrProviderUnavailable)
}

func TestHistoryOverlays(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	provider := &fakeProvider{
		candles: map[string][]marketdata.Candle{"AAPL": candlesOf(closes...)},
	}
	svc := newTestService(t, provider)

	points, err := svc.History(context.Background(), "AAPL", marketdata.Period1Y)
	require.NoError(t, err)
	require.Len(t, points, 60)

	assert.Equal(t, "2024-01-01", points[0].Date)
	assert.Equal(t, 100.0, points[0].Close)

	// Warm-up entries are nil
	assert.Nil(t, points[0].SMA20)
	assert.Nil(t, points[18].SMA20)
	assert.NotNil(t, points[19].SMA20)
	assert.Nil(t, points[48].SMA50)
	assert.NotNil(t, points[49].SMA50)
	assert.Nil(t, points[13].RSI14)
	assert.NotNil(t, points[14].RSI14)
	assert.Nil(t, points[19].Volatility)
	assert.NotNil(t, points[20].Volatility)

	// SMA20 at index 19 = mean(100..119) = 109.5
	assert.InDelta(t, 109.5, *points[19].SMA20, 1e-9)
}

func TestHistoryPropagatesError(t *testing.T) {
	svc := newTestService(t, &fakeProvider{})

	_, err := svc.History(context.Background(), "NOPE", marketdata.Period1Y)
	assert.ErrorIs(t, err, marketdata.ErrNoDataForPeriod)
}

func TestOverview(t *testing.T) {
	provider := &fakeProvider{
		candles: map[string][]marketdata.Candle{
			"^GSPC": candlesOf(4000, 4040),
			"^DJI":  candlesOf(38000, 37900),
			"^IXIC": candlesOf(15000, 15150),
			"^RUT":  candlesOf(2000, 2000),
		},
	}
	svc := newTestService(t, provider)

	overview := svc.Overview(context.Background())
	require.Len(t, overview, 4)

	sp := overview[0]
	assert.Equal(t, "^GSPC", sp.Ticker)
	assert.Equal(t, "S&P 500", sp.Name)
	assert.Equal(t, 4040.0, sp.Price)
	assert.InDelta(t, 40.0, sp.Change, 1e-9)
	assert.InDelta(t, 1.0, sp.ChangePct, 1e-9)

	dow := overview[1]
	assert.InDelta(t, -100.0, dow.Change, 1e-9)
	assert.Less(t, dow.ChangePct, 0.0)

	flat := overview[3]
	assert.Equal(t, 0.0, flat.Change)
	assert.Equal(t, 0.0, flat.ChangePct)
}

func TestOverviewSkipsFailingIndices(t *testing.T) {
	provider := &fakeProvider{
		candles: map[string][]marketdata.Candle{
			"^GSPC": candlesOf(4000, 4040),
			"^DJI":  candlesOf(38000), // single close, unusable
		},
	}
	svc := newTestService(t, provider)

	overview := svc.Overview(context.Background())
	require.Len(t, overview, 1)
	assert.Equal(t, "^GSPC", overview[0].Ticker)
}
