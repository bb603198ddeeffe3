// Package indicators provides pure technical-indicator transforms over
// closing price series. All series functions return values aligned to the
// input: entries before the indicator's warm-up window are nil ("not yet
// available"), never zero-filled, so consumers cannot mistake a warm-up
// gap for a real value.
package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// DefaultRSIPeriod is the conventional RSI lookback.
const DefaultRSIPeriod = 14

// SMA computes the simple moving average over a window.
// The first window-1 entries are nil.
func SMA(closes []float64, window int) []*float64 {
	if window <= 0 || len(closes) < window {
		return make([]*float64, len(closes))
	}

	raw := talib.Sma(closes, window)
	return withWarmup(raw, window-1)
}

// EMA computes the exponential moving average over a window.
// The first window-1 entries are nil.
func EMA(closes []float64, window int) []*float64 {
	if window <= 0 || len(closes) < window {
		return make([]*float64, len(closes))
	}

	raw := talib.Ema(closes, window)
	return withWarmup(raw, window-1)
}

// RSI computes the Relative Strength Index using Wilder smoothing.
// The first period entries are nil (the oscillator needs period deltas).
func RSI(closes []float64, period int) []*float64 {
	if period <= 0 || len(closes) <= period {
		return make([]*float64, len(closes))
	}

	raw := talib.Rsi(closes, period)
	return withWarmup(raw, period)
}

// RollingVolatility computes the rolling sample standard deviation of
// day-over-day fractional returns over a window. Output is aligned to the
// closes: index i covers the window of returns ending at closes[i], and the
// first window entries are nil (one extra slot because the first close has
// no return).
func RollingVolatility(closes []float64, window int) []*float64 {
	out := make([]*float64, len(closes))
	if window <= 1 || len(closes) <= window {
		return out
	}

	returns := dailyReturns(closes)

	for i := window; i < len(closes); i++ {
		// returns[i-window : i] are the window returns ending at closes[i]
		windowReturns := returns[i-window : i]
		sd := stat.StdDev(windowReturns, nil)
		v := sd
		out[i] = &v
	}

	return out
}

// BollingerBands represents Bollinger Bands values at the latest point
type BollingerBands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Bollinger computes current Bollinger Bands (SMA middle band, bands at
// stdDevMultiplier standard deviations). Returns nil with insufficient data.
func Bollinger(closes []float64, window int, stdDevMultiplier float64) *BollingerBands {
	if window <= 0 || len(closes) < window {
		return nil
	}

	upper, middle, lower := talib.BBands(closes, window, stdDevMultiplier, stdDevMultiplier, 0)

	last := len(upper) - 1
	if last < 0 || math.IsNaN(upper[last]) {
		return nil
	}

	return &BollingerBands{
		Upper:  upper[last],
		Middle: middle[last],
		Lower:  lower[last],
	}
}

// LatestSMA returns the current SMA value, or nil with insufficient data.
func LatestSMA(closes []float64, window int) *float64 {
	series := SMA(closes, window)
	if len(series) == 0 {
		return nil
	}
	return series[len(series)-1]
}

// LatestRSI returns the current RSI value, or nil with insufficient data.
func LatestRSI(closes []float64, period int) *float64 {
	series := RSI(closes, period)
	if len(series) == 0 {
		return nil
	}
	return series[len(series)-1]
}

// dailyReturns converts closes to fractional day-over-day returns,
// one entry shorter than the input.
func dailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			returns[i-1] = (closes[i] - closes[i-1]) / closes[i-1]
		}
	}
	return returns
}

// withWarmup converts a talib output slice (zero-padded during warm-up)
// into a nil-bearing series with the first warmup entries absent.
func withWarmup(raw []float64, warmup int) []*float64 {
	out := make([]*float64, len(raw))
	for i := warmup; i < len(raw); i++ {
		if math.IsNaN(raw[i]) {
			continue
		}
		v := raw[i]
		out[i] = &v
	}
	return out
}
