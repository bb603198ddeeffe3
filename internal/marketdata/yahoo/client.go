// Package yahoo provides client functionality for the Yahoo Finance HTTP API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stockdash/internal/marketdata"
)

// Client fetches quotes and historical candles from the Yahoo Finance API.
// Every call carries a bounded timeout so a slow upstream cannot block a
// whole portfolio computation.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// quoteResponse mirrors the v7 quote endpoint payload
type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"quoteResponse"`
}

type quoteResult struct {
	Symbol                     string   `json:"symbol"`
	LongName                   string   `json:"longName"`
	ShortName                  string   `json:"shortName"`
	RegularMarketPrice         float64  `json:"regularMarketPrice"`
	RegularMarketChange        float64  `json:"regularMarketChange"`
	RegularMarketChangePercent float64  `json:"regularMarketChangePercent"`
	RegularMarketVolume        int64    `json:"regularMarketVolume"`
	MarketCap                  float64  `json:"marketCap"`
	TrailingPE                 *float64 `json:"trailingPE"`
	ForwardPE                  *float64 `json:"forwardPE"`
	DividendYield              float64  `json:"trailingAnnualDividendYield"`
	FiftyTwoWeekHigh           float64  `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow            float64  `json:"fiftyTwoWeekLow"`
	AverageDailyVolume3Month   int64    `json:"averageDailyVolume3Month"`
}

// summaryResponse mirrors the v10 quoteSummary payload (assetProfile module)
type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

// chartResponse mirrors the v8 chart endpoint payload
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// FetchQuote returns a current snapshot for a ticker. Sector and industry
// come from a secondary profile lookup; its failure is tolerated because a
// quote without classification is still usable for pricing.
func (c *Client) FetchQuote(ctx context.Context, ticker string) (*marketdata.Quote, error) {
	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.baseURL, url.QueryEscape(ticker))

	var payload quoteResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("quote request for %s: %w", ticker, err)
	}

	if payload.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("quote request for %s: %s: %w",
			ticker, payload.QuoteResponse.Error.Description, marketdata.ErrProviderUnavailable)
	}
	if len(payload.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("no quote returned for %s: %w", ticker, marketdata.ErrProviderUnavailable)
	}

	r := payload.QuoteResponse.Result[0]

	name := r.LongName
	if name == "" {
		name = r.ShortName
	}
	if name == "" {
		name = ticker
	}

	// trailingPE preferred, forwardPE fallback; nil stays nil (unavailable)
	pe := r.TrailingPE
	if pe == nil {
		pe = r.ForwardPE
	}

	quote := &marketdata.Quote{
		Ticker:           ticker,
		CompanyName:      name,
		Price:            r.RegularMarketPrice,
		Change:           r.RegularMarketChange,
		ChangePct:        r.RegularMarketChangePercent,
		Volume:           r.RegularMarketVolume,
		MarketCap:        r.MarketCap,
		PERatio:          pe,
		DividendYield:    r.DividendYield,
		Sector:           "N/A",
		Industry:         "N/A",
		FiftyTwoWeekHigh: r.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:  r.FiftyTwoWeekLow,
		AvgVolume:        r.AverageDailyVolume3Month,
		LastUpdated:      time.Now().UTC(),
	}

	if sector, industry, err := c.fetchProfile(ctx, ticker); err == nil {
		if sector != "" {
			quote.Sector = sector
		}
		if industry != "" {
			quote.Industry = industry
		}
	} else {
		c.log.Debug().Err(err).Str("ticker", ticker).Msg("Profile lookup failed, keeping N/A classification")
	}

	return quote, nil
}

// fetchProfile returns sector and industry for a ticker
func (c *Client) fetchProfile(ctx context.Context, ticker string) (string, string, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile",
		c.baseURL, url.PathEscape(ticker))

	var payload summaryResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return "", "", err
	}

	if payload.QuoteSummary.Error != nil || len(payload.QuoteSummary.Result) == 0 {
		return "", "", fmt.Errorf("no profile returned for %s", ticker)
	}

	profile := payload.QuoteSummary.Result[0].AssetProfile
	return profile.Sector, profile.Industry, nil
}

// FetchHistory returns daily candles for a ticker over a period, ascending
// by date. Entries with a null close (Yahoo emits those for halted days)
// are skipped rather than zero-filled.
func (c *Client) FetchHistory(ctx context.Context, ticker string, period marketdata.Period) ([]marketdata.Candle, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		c.baseURL, url.PathEscape(ticker), period.String())

	var payload chartResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("history request for %s: %w", ticker, err)
	}

	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("history request for %s: %s: %w",
			ticker, payload.Chart.Error.Description, marketdata.ErrProviderUnavailable)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("history for %s period %s: %w", ticker, period, marketdata.ErrNoDataForPeriod)
	}

	result := payload.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("history for %s period %s: %w", ticker, period, marketdata.ErrNoDataForPeriod)
	}

	bars := result.Indicators.Quote[0]
	candles := make([]marketdata.Candle, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		if i >= len(bars.Close) || bars.Close[i] == nil {
			continue
		}

		candle := marketdata.Candle{
			// Normalize to UTC midnight so series from different exchanges
			// align on calendar dates
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close: *bars.Close[i],
		}
		if i < len(bars.Open) && bars.Open[i] != nil {
			candle.Open = *bars.Open[i]
		}
		if i < len(bars.High) && bars.High[i] != nil {
			candle.High = *bars.High[i]
		}
		if i < len(bars.Low) && bars.Low[i] != nil {
			candle.Low = *bars.Low[i]
		}
		if i < len(bars.Volume) && bars.Volume[i] != nil {
			candle.Volume = *bars.Volume[i]
		}

		candles = append(candles, candle)
	}

	if len(candles) == 0 {
		return nil, fmt.Errorf("history for %s period %s: %w", ticker, period, marketdata.ErrNoDataForPeriod)
	}

	c.log.Debug().
		Str("ticker", ticker).
		Str("period", period.String()).
		Int("candles", len(candles)).
		Msg("Fetched history")

	return candles, nil
}

// getJSON performs a GET request and decodes the JSON body
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "stockdash/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%v: %w", err, marketdata.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return marketdata.ErrNoDataForPeriod
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %w", resp.StatusCode, marketdata.ErrProviderUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
