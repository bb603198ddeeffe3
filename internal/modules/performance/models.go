// Package performance implements the portfolio backtest engine: return
// alignment and weighting across holdings, and risk/performance metrics
// against an optional benchmark.
package performance

import (
	"errors"
	"time"

	"github.com/aristath/stockdash/internal/marketdata"
)

// ErrInsufficientData indicates that zero tickers produced usable data,
// so the whole computation must abort.
var ErrInsufficientData = errors.New("insufficient data: no usable tickers")

// ErrEmptyReturnSeries indicates metrics were requested for an empty series.
var ErrEmptyReturnSeries = errors.New("empty return series")

// PricePoint is one (date, close) observation.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is an ordered sequence of price points for one ticker,
// ascending by date, no duplicate dates. Non-trading days are absent.
type PriceSeries []PricePoint

// ReturnPoint is one (date, fractional return) observation.
type ReturnPoint struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}

// ReturnSeries is an ordered sequence of day-over-day fractional returns,
// one entry shorter than its source price series.
type ReturnSeries []ReturnPoint

// CumulativePoint is one (date, growth factor) observation of the
// cumulative value series. The series implicitly starts at 1.0 before the
// first dated return.
type CumulativePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Exclusion records a holding dropped from a computation and why.
type Exclusion struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// Result holds the metrics derived from a weighted return series.
// Beta and Correlation are nil when they cannot be computed (fewer than two
// overlapping benchmark dates, or zero benchmark variance) - an explicit
// "not computed" state instead of a silently wrong default.
type Result struct {
	TotalReturnPct      float64           `json:"total_return_pct"`
	AnnualizedReturnPct float64           `json:"annualized_return_pct"`
	VolatilityPct       float64           `json:"volatility_pct"`
	SharpeRatio         float64           `json:"sharpe_ratio"`
	MaxDrawdownPct      float64           `json:"max_drawdown_pct"`
	Beta                *float64          `json:"beta,omitempty"`
	Correlation         *float64          `json:"correlation,omitempty"`
	InitialCapital      float64           `json:"initial_capital"`
	FinalValue          float64           `json:"final_value"`
	AbsoluteGain        float64           `json:"absolute_gain"`
	Observations        int               `json:"observations"`
	CumulativeSeries    []CumulativePoint `json:"cumulative_series"`
}

// Analysis is the full outcome of a portfolio computation: the metrics plus
// the holdings that were excluded (with reasons) so partial results are
// never silently presented as complete.
type Analysis struct {
	Result   Result      `json:"result"`
	Excluded []Exclusion `json:"excluded,omitempty"`
}

// BenchmarkComparison contrasts a portfolio with a benchmark index run
// through the same pipeline.
type BenchmarkComparison struct {
	Portfolio                  Result  `json:"portfolio"`
	Benchmark                  Result  `json:"benchmark"`
	BenchmarkTicker            string  `json:"benchmark_ticker"`
	OutperformancePct          float64 `json:"outperformance_pct"`
	RiskAdjustedOutperformance float64 `json:"risk_adjusted_outperformance"`

	Excluded []Exclusion `json:"excluded,omitempty"`
}

// SeriesFromCandles extracts the (date, close) series from provider candles.
func SeriesFromCandles(candles []marketdata.Candle) PriceSeries {
	series := make(PriceSeries, 0, len(candles))
	for _, c := range candles {
		series = append(series, PricePoint{Date: c.Date, Close: c.Close})
	}
	return series
}

// Closes returns the close values of the series.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, p := range s {
		closes[i] = p.Close
	}
	return closes
}
