package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/aristath/stockdash/internal/marketdata"
	"github.com/aristath/stockdash/internal/modules/market"
)

// fakeMarket serves canned quotes and candles for the handler tests.
type fakeMarket struct {
	quotes  map[string]*marketdata.Quote
	candles map[string][]marketdata.Candle
}

func (f *fakeMarket) FetchQuote(ctx context.Context, ticker string) (*marketdata.Quote, error) {
	q, ok := f.quotes[ticker]
	if !ok {
		return nil, marketdata.ErrProviderUnavailable
	}
	return q, nil
}

func (f *fakeMarket) FetchHistory(ctx context.Context, ticker string, period marketdata.Period) ([]marketdata.Candle, error) {
	c, ok := f.candles[ticker]
	if !ok {
		return nil, marketdata.ErrNoDataForPeriod
	}
	return c, nil
}

func newTestRouter(t *testing.T, provider *fakeMarket) chi.Router {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(marketdata.SnapshotSchema)
	require.NoError(t, err)

	log := zerolog.Nop()
	snapshots := marketdata.NewSnapshotStore(db, log)
	service := market.NewService(provider, snapshots, log)

	router := chi.NewRouter()
	NewHandler(service, log).RegisterRoutes(router)
	return router
}

func get(router chi.Router, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleGetQuote(t *testing.T) {
	router := newTestRouter(t, &fakeMarket{
		quotes: map[string]*marketdata.Quote{
			"AAPL": {Ticker: "AAPL", Price: 185.5},
		},
	})

	w := get(router, "/quotes/AAPL")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result market.QuoteResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.False(t, result.Stale)
	assert.Equal(t, 185.5, result.Quote.Price)
}

func TestHandleGetQuoteProviderDown(t *testing.T) {
	router := newTestRouter(t, &fakeMarket{})

	w := get(router, "/quotes/AAPL")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandleGetHistory(t *testing.T) {
	router := newTestRouter(t, &fakeMarket{
		candles: map[string][]marketdata.Candle{
			"AAPL": {
				{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: 100},
				{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 110},
			},
		},
	})

	w := get(router, "/quotes/AAPL/history?period=6mo")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Ticker string              `json:"ticker"`
		Period string              `json:"period"`
		Points []market.ChartPoint `json:"points"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "AAPL", response.Ticker)
	assert.Equal(t, "6mo", response.Period)
	require.Len(t, response.Points, 2)
	assert.Equal(t, "2024-01-01", response.Points[0].Date)
}

func TestHandleGetHistoryBadPeriod(t *testing.T) {
	router := newTestRouter(t, &fakeMarket{})

	w := get(router, "/quotes/AAPL/history?period=3y")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetHistoryNoData(t *testing.T) {
	router := newTestRouter(t, &fakeMarket{})

	w := get(router, "/quotes/NOPE/history")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetOverview(t *testing.T) {
	router := newTestRouter(t, &fakeMarket{
		candles: map[string][]marketdata.Candle{
			"^GSPC": {
				{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: 4000},
				{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 4040},
			},
		},
	})

	w := get(router, "/market/overview")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Indices []market.IndexSnapshot `json:"indices"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response.Indices, 1)
	assert.Equal(t, "^GSPC", response.Indices[0].Ticker)
	assert.InDelta(t, 1.0, response.Indices[0].ChangePct, 1e-9)
}
