package performance

import (
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization base for daily return series.
const TradingDaysPerYear = 252.0

// MetricsEngine derives risk and performance metrics from a weighted
// return series, optionally against a benchmark return series.
type MetricsEngine struct {
	log zerolog.Logger
}

// NewMetricsEngine creates a new metrics engine
func NewMetricsEngine(log zerolog.Logger) *MetricsEngine {
	return &MetricsEngine{
		log: log.With().Str("component", "metrics").Logger(),
	}
}

// Compute produces a Result from a portfolio return series. benchmark may
// be nil; when present, beta and correlation are computed over the inner
// join of the two series' dates.
//
// Returns ErrEmptyReturnSeries for an empty input: the annualization
// exponent divides by the observation count, so the caller must not invoke
// this with no observations.
func (m *MetricsEngine) Compute(returns ReturnSeries, benchmark ReturnSeries, initialCapital float64) (*Result, error) {
	n := len(returns)
	if n == 0 {
		return nil, ErrEmptyReturnSeries
	}

	cumulative := CumulativeSeries(returns)
	cumLast := cumulative[len(cumulative)-1].Value

	totalReturnPct := (cumLast - 1) * 100

	// ((1 + total)^(252/n) - 1), with total as a fraction
	annualizedReturnPct := (math.Pow(1+totalReturnPct/100, TradingDaysPerYear/float64(n)) - 1) * 100

	values := make([]float64, n)
	for i, r := range returns {
		values[i] = r.Return
	}

	// Sample standard deviation (n-1 divisor); a single observation has no
	// spread, so volatility is 0 rather than NaN.
	var volatilityPct float64
	if n > 1 {
		volatilityPct = stat.StdDev(values, nil) * math.Sqrt(TradingDaysPerYear) * 100
	}

	// Saturating policy: zero volatility means Sharpe 0, not NaN, so
	// downstream display stays sane.
	var sharpe float64
	if volatilityPct > 0 {
		sharpe = (annualizedReturnPct / 100) / (volatilityPct / 100)
	}

	result := &Result{
		TotalReturnPct:      totalReturnPct,
		AnnualizedReturnPct: annualizedReturnPct,
		VolatilityPct:       volatilityPct,
		SharpeRatio:         sharpe,
		MaxDrawdownPct:      maxDrawdownPct(cumulative),
		InitialCapital:      initialCapital,
		FinalValue:          initialCapital * cumLast,
		AbsoluteGain:        initialCapital * (cumLast - 1),
		Observations:        n,
		CumulativeSeries:    cumulative,
	}

	if benchmark != nil {
		beta, corr := m.betaAndCorrelation(returns, benchmark)
		result.Beta = beta
		result.Correlation = corr
	}

	return result, nil
}

// CumulativeSeries computes cum[i] = prod(1 + r[0..i]). The series starts
// implicitly at 1.0 before the first dated return.
func CumulativeSeries(returns ReturnSeries) []CumulativePoint {
	cumulative := make([]CumulativePoint, 0, len(returns))
	value := 1.0
	for _, r := range returns {
		value *= 1 + r.Return
		cumulative = append(cumulative, CumulativePoint{Date: r.Date, Value: value})
	}
	return cumulative
}

// maxDrawdownPct returns the most negative peak-to-trough decline of the
// cumulative series, as a percentage. Always <= 0; exactly 0 only for a
// monotonically non-decreasing series.
func maxDrawdownPct(cumulative []CumulativePoint) float64 {
	var maxDrawdown float64
	runningMax := math.Inf(-1)

	for _, p := range cumulative {
		if p.Value > runningMax {
			runningMax = p.Value
		}
		drawdown := (p.Value - runningMax) / runningMax
		if drawdown < maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown * 100
}

// betaAndCorrelation aligns portfolio and benchmark returns on their common
// dates (inner join: only dates present in both contribute) and computes
// beta = cov(p, b) / var(b) and the Pearson correlation.
//
// With fewer than 2 common dates, or zero benchmark variance, both are nil.
// The degenerate case is reported as unavailable, never defaulted to 1.
func (m *MetricsEngine) betaAndCorrelation(portfolio, benchmark ReturnSeries) (*float64, *float64) {
	benchByDate := make(map[time.Time]float64, len(benchmark))
	for _, r := range benchmark {
		benchByDate[r.Date] = r.Return
	}

	var p, b []float64
	for _, r := range portfolio {
		if br, ok := benchByDate[r.Date]; ok {
			p = append(p, r.Return)
			b = append(b, br)
		}
	}

	if len(p) < 2 {
		m.log.Debug().
			Int("common_dates", len(p)).
			Msg("Beta/correlation unavailable: fewer than 2 overlapping dates")
		return nil, nil
	}

	benchVariance := stat.Variance(b, nil)
	if benchVariance == 0 {
		m.log.Debug().Msg("Beta/correlation unavailable: zero benchmark variance")
		return nil, nil
	}

	beta := stat.Covariance(p, b, nil) / benchVariance

	// Pearson correlation also divides by the portfolio's spread; a
	// constant portfolio has a defined beta (0) but no correlation.
	if stat.Variance(p, nil) == 0 {
		m.log.Debug().Msg("Correlation unavailable: zero portfolio variance")
		return &beta, nil
	}
	corr := stat.Correlation(p, b, nil)

	return &beta, &corr
}
