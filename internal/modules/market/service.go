// Package market provides the dashboard's quote, chart and market-overview
// views on top of the market data provider.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stockdash/internal/marketdata"
	"github.com/aristath/stockdash/internal/modules/indicators"
)

// Major index tickers for the market overview, with display names.
var indexNames = map[string]string{
	"^GSPC": "S&P 500",
	"^DJI":  "Dow Jones Industrial Average",
	"^IXIC": "NASDAQ Composite",
	"^RUT":  "Russell 2000 Index",
}

// overviewOrder keeps the overview stable across refreshes
var overviewOrder = []string{"^GSPC", "^DJI", "^IXIC", "^RUT"}

// QuoteResult is a snapshot plus its freshness. Stale snapshots come from
// the persistent store when the provider is unavailable; the dashboard
// shows them flagged instead of showing nothing.
type QuoteResult struct {
	Quote *marketdata.Quote `json:"quote"`
	Stale bool              `json:"stale"`
}

// ChartPoint is one dated entry of the chart payload. Indicator values are
// nil during their warm-up windows.
type ChartPoint struct {
	Date       string   `json:"date"` // YYYY-MM-DD
	Open       float64  `json:"open"`
	High       float64  `json:"high"`
	Low        float64  `json:"low"`
	Close      float64  `json:"close"`
	Volume     int64    `json:"volume"`
	SMA20      *float64 `json:"sma_20,omitempty"`
	SMA50      *float64 `json:"sma_50,omitempty"`
	RSI14      *float64 `json:"rsi_14,omitempty"`
	Volatility *float64 `json:"volatility_20,omitempty"`
}

// IndexSnapshot is one index row of the market overview
type IndexSnapshot struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
}

// Service provides market data views
type Service struct {
	provider  marketdata.Provider
	snapshots *marketdata.SnapshotStore
	log       zerolog.Logger
}

// NewService creates a new market service
func NewService(provider marketdata.Provider, snapshots *marketdata.SnapshotStore, log zerolog.Logger) *Service {
	return &Service{
		provider:  provider,
		snapshots: snapshots,
		log:       log.With().Str("service", "market").Logger(),
	}
}

// Quote returns a fresh snapshot for a ticker, persisting it for later
// fallback. When the provider fails, the last persisted snapshot is
// returned flagged stale.
func (s *Service) Quote(ctx context.Context, ticker string) (*QuoteResult, error) {
	quote, err := s.provider.FetchQuote(ctx, ticker)
	if err == nil {
		if saveErr := s.snapshots.Save(quote); saveErr != nil {
			s.log.Warn().Err(saveErr).Str("ticker", ticker).Msg("Failed to persist quote snapshot")
		}
		return &QuoteResult{Quote: quote}, nil
	}

	stale, storeErr := s.snapshots.Get(ticker)
	if storeErr == nil && stale != nil {
		s.log.Warn().
			Err(err).
			Str("ticker", ticker).
			Time("snapshot_age", stale.LastUpdated).
			Msg("Provider unavailable, serving stale snapshot")
		return &QuoteResult{Quote: stale, Stale: true}, nil
	}

	return nil, err
}

// History returns daily candles with indicator overlays for charting.
func (s *Service) History(ctx context.Context, ticker string, period marketdata.Period) ([]ChartPoint, error) {
	candles, err := s.provider.FetchHistory(ctx, ticker, period)
	if err != nil {
		return nil, err
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	sma20 := indicators.SMA(closes, 20)
	sma50 := indicators.SMA(closes, 50)
	rsi14 := indicators.RSI(closes, indicators.DefaultRSIPeriod)
	vol20 := indicators.RollingVolatility(closes, 20)

	points := make([]ChartPoint, len(candles))
	for i, c := range candles {
		points[i] = ChartPoint{
			Date:       c.Date.Format("2006-01-02"),
			Open:       c.Open,
			High:       c.High,
			Low:        c.Low,
			Close:      c.Close,
			Volume:     c.Volume,
			SMA20:      sma20[i],
			SMA50:      sma50[i],
			RSI14:      rsi14[i],
			Volatility: vol20[i],
		}
	}

	return points, nil
}

// Overview returns snapshots of the major indices. The day change is
// computed from the last two closes of a short history window because
// index tickers often lack proper quote payloads. Indices that fail are
// skipped rather than failing the whole overview.
func (s *Service) Overview(ctx context.Context) []IndexSnapshot {
	overview := make([]IndexSnapshot, 0, len(overviewOrder))

	for _, ticker := range overviewOrder {
		snapshot, err := s.indexSnapshot(ctx, ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Skipping index in overview")
			continue
		}
		overview = append(overview, *snapshot)
	}

	return overview
}

// indexSnapshot derives an index row from its recent closes
func (s *Service) indexSnapshot(ctx context.Context, ticker string) (*IndexSnapshot, error) {
	candles, err := s.provider.FetchHistory(ctx, ticker, marketdata.PeriodDays(5))
	if err != nil {
		return nil, err
	}
	if len(candles) < 2 {
		return nil, fmt.Errorf("index %s: need two closes, got %d: %w",
			ticker, len(candles), marketdata.ErrNoDataForPeriod)
	}

	current := candles[len(candles)-1].Close
	previous := candles[len(candles)-2].Close

	snapshot := &IndexSnapshot{
		Ticker: ticker,
		Name:   indexNames[ticker],
		Price:  current,
		Change: current - previous,
	}
	if previous != 0 {
		snapshot.ChangePct = (current - previous) / previous * 100
	}

	return snapshot, nil
}

// WarmOverview pre-fetches index histories so the first dashboard render
// after startup hits the cache. Called by the refresh job.
func (s *Service) WarmOverview(ctx context.Context) {
	start := time.Now()
	overview := s.Overview(ctx)
	s.log.Debug().
		Int("indices", len(overview)).
		Dur("took", time.Since(start)).
		Msg("Warmed market overview")
}
