package performance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stockdash/internal/marketdata"
)

// DefaultBenchmarkTicker is the index used for benchmark comparisons.
const DefaultBenchmarkTicker = "^GSPC"

// Service orchestrates a portfolio computation: fetch per-ticker histories,
// align and weight the returns, derive metrics. Per-ticker provider
// failures are absorbed here (the ticker is excluded and logged); only
// whole-computation failures propagate.
type Service struct {
	history marketdata.HistoryProvider
	aligner *Aligner
	metrics *MetricsEngine
	timeout time.Duration // per-ticker fetch timeout
	log     zerolog.Logger
}

// NewService creates a new performance service
func NewService(history marketdata.HistoryProvider, timeout time.Duration, log zerolog.Logger) *Service {
	return &Service{
		history: history,
		aligner: NewAligner(log),
		metrics: NewMetricsEngine(log),
		timeout: timeout,
		log:     log.With().Str("service", "performance").Logger(),
	}
}

// Analyze backtests a weighted set of tickers over a period. Weights must
// be positive and are normalized over the tickers that produce data.
func (s *Service) Analyze(ctx context.Context, weights map[string]float64, initialCapital float64, period marketdata.Period) (*Analysis, error) {
	returns, excluded, err := s.weightedReturns(ctx, weights, period)
	if err != nil {
		return nil, err
	}

	result, err := s.metrics.Compute(returns, nil, initialCapital)
	if err != nil {
		return nil, err
	}

	return &Analysis{Result: *result, Excluded: excluded}, nil
}

// CompareWithBenchmark backtests the portfolio and a benchmark index over
// the same period. The benchmark runs through the same pipeline as a
// single-ticker portfolio with weight 1.0, and the portfolio result carries
// beta and correlation against it.
func (s *Service) CompareWithBenchmark(ctx context.Context, weights map[string]float64, initialCapital float64, period marketdata.Period, benchmarkTicker string) (*BenchmarkComparison, error) {
	if benchmarkTicker == "" {
		benchmarkTicker = DefaultBenchmarkTicker
	}

	portfolioReturns, excluded, err := s.weightedReturns(ctx, weights, period)
	if err != nil {
		return nil, err
	}

	benchmarkReturns, _, err := s.weightedReturns(ctx, map[string]float64{benchmarkTicker: 1.0}, period)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", benchmarkTicker, err)
	}

	portfolioResult, err := s.metrics.Compute(portfolioReturns, benchmarkReturns, initialCapital)
	if err != nil {
		return nil, err
	}

	benchmarkResult, err := s.metrics.Compute(benchmarkReturns, nil, initialCapital)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", benchmarkTicker, err)
	}

	return &BenchmarkComparison{
		Portfolio:                  *portfolioResult,
		Benchmark:                  *benchmarkResult,
		BenchmarkTicker:            benchmarkTicker,
		OutperformancePct:          portfolioResult.TotalReturnPct - benchmarkResult.TotalReturnPct,
		RiskAdjustedOutperformance: portfolioResult.SharpeRatio - benchmarkResult.SharpeRatio,
		Excluded:                   excluded,
	}, nil
}

// weightedReturns fetches all per-ticker histories concurrently and merges
// them only after every fetch completes - no partial-portfolio metrics from
// a subset of holdings. Each computation owns its own intermediate maps.
func (s *Service) weightedReturns(ctx context.Context, weights map[string]float64, period marketdata.Period) (ReturnSeries, []Exclusion, error) {
	prices, fetchExclusions := s.fetchAll(ctx, weights, period)

	returns, alignExclusions, err := s.aligner.WeightedReturns(prices, weights)
	if err != nil {
		return nil, nil, err
	}

	return returns, append(fetchExclusions, alignExclusions...), nil
}

// fetchAll runs one bounded-timeout fetch per ticker. Failing tickers are
// collected as exclusions, not errors.
func (s *Service) fetchAll(ctx context.Context, weights map[string]float64, period marketdata.Period) (map[string]PriceSeries, []Exclusion) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		prices   = make(map[string]PriceSeries, len(weights))
		excluded []Exclusion
	)

	for ticker := range weights {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			candles, err := s.history.FetchHistory(fetchCtx, ticker, period)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				s.log.Warn().
					Err(err).
					Str("ticker", ticker).
					Str("period", period.String()).
					Msg("Excluding ticker: history fetch failed")
				excluded = append(excluded, Exclusion{Ticker: ticker, Reason: err.Error()})
				return
			}

			prices[ticker] = SeriesFromCandles(candles)
		}(ticker)
	}

	wg.Wait()
	return prices, excluded
}
