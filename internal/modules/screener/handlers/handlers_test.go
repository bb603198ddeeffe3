package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/stockdash/internal/marketdata"
	"github.com/aristath/stockdash/internal/modules/screener"
)

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

func newTestRouter(quotes map[string]*marketdata.Quote) chi.Router {
	log := zerolog.Nop()
	service := screener.NewService(&fakeQuotes{quotes: quotes}, log)

	router := chi.NewRouter()
	NewHandler(service, log).RegisterRoutes(router)
	return router
}

func TestHandleScreen(t *testing.T) {
	pe := 30.0
	router := newTestRouter(map[string]*marketdata.Quote{
		"AAPL": {Ticker: "AAPL", Price: 185.5, PERatio: &pe, Sector: "Technology"},
	})

	payload, err := json.Marshal(map[string]interface{}{
		"tickers": []string{"AAPL", "FAIL"},
		"filter":  map[string]interface{}{"max_pe": 50.0},
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/screener", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result screener.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "AAPL", result.Matches[0].Ticker)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "FAIL", result.Failures[0].Ticker)
}

func TestHandleScreenBadBody(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest("POST", "/screener", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
