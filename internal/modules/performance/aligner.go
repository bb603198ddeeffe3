package performance

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// Aligner joins per-ticker return series that may cover different
// trading-day sets into a single weighted portfolio return series.
type Aligner struct {
	log zerolog.Logger
}

// NewAligner creates a new return aligner
func NewAligner(log zerolog.Logger) *Aligner {
	return &Aligner{
		log: log.With().Str("component", "aligner").Logger(),
	}
}

// Returns derives the day-over-day fractional return series from a price
// series. The result is one entry shorter: the first date has no return.
func Returns(prices PriceSeries) ReturnSeries {
	if len(prices) < 2 {
		return ReturnSeries{}
	}

	returns := make(ReturnSeries, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1].Close == 0 {
			// A zero close is bad data; carry a zero return for the day
			// rather than dividing by it.
			returns = append(returns, ReturnPoint{Date: prices[i].Date})
			continue
		}
		returns = append(returns, ReturnPoint{
			Date:   prices[i].Date,
			Return: (prices[i].Close - prices[i-1].Close) / prices[i-1].Close,
		})
	}
	return returns
}

// WeightedReturns aligns the per-ticker price series on the union of their
// return dates and produces a single weighted return series.
//
// Weights must be positive and need not pre-sum to 1: they are normalized
// over the tickers that produced usable data (at least two price points).
// A ticker missing a date that other tickers traded contributes a 0.0
// return on that date. This keeps the sample from shrinking to the date
// intersection, at the cost of slightly understating cross-asset volatility
// on partial-coverage days - a deliberate, documented bias.
//
// Returns ErrInsufficientData when zero tickers are usable.
func (a *Aligner) WeightedReturns(prices map[string]PriceSeries, weights map[string]float64) (ReturnSeries, []Exclusion, error) {
	perTicker := make(map[string]map[time.Time]float64)
	var excluded []Exclusion

	for ticker, series := range prices {
		returns := Returns(series)
		if len(returns) == 0 {
			excluded = append(excluded, Exclusion{
				Ticker: ticker,
				Reason: "fewer than two price points in window",
			})
			continue
		}

		byDate := make(map[time.Time]float64, len(returns))
		for _, r := range returns {
			byDate[r.Date] = r.Return
		}
		perTicker[ticker] = byDate
	}

	if len(perTicker) == 0 {
		return nil, excluded, ErrInsufficientData
	}

	normalized, err := NormalizeWeights(weights, perTicker)
	if err != nil {
		return nil, excluded, err
	}

	// Union of all return dates. The overall first price date never appears
	// here: no ticker has a return defined on it.
	dateSet := make(map[time.Time]struct{})
	for _, byDate := range perTicker {
		for d := range byDate {
			dateSet[d] = struct{}{}
		}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	weighted := make(ReturnSeries, 0, len(dates))
	for _, d := range dates {
		var sum float64
		for ticker, byDate := range perTicker {
			// Missing entry contributes 0.0 for that asset on that date
			sum += normalized[ticker] * byDate[d]
		}
		weighted = append(weighted, ReturnPoint{Date: d, Return: sum})
	}

	if len(excluded) > 0 {
		a.log.Warn().
			Int("excluded", len(excluded)).
			Int("usable", len(perTicker)).
			Msg("Excluded holdings from weighted return computation")
	}

	return weighted, excluded, nil
}

// NormalizeWeights divides each weight by the sum of weights over tickers
// that produced usable data, so the survivors always sum to 1.
func NormalizeWeights(weights map[string]float64, usable map[string]map[time.Time]float64) (map[string]float64, error) {
	var total float64
	for ticker := range usable {
		w := weights[ticker]
		if w > 0 {
			total += w
		}
	}

	if total <= 0 || math.IsNaN(total) {
		return nil, ErrInsufficientData
	}

	normalized := make(map[string]float64, len(usable))
	for ticker := range usable {
		if w := weights[ticker]; w > 0 {
			normalized[ticker] = w / total
		}
	}
	return normalized, nil
}
