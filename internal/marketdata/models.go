// Package marketdata provides access to quote and historical price data
// for equities, with a bounded TTL cache in front of the upstream provider.
package marketdata

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Quote represents a current price snapshot for a single ticker.
// PERatio is a pointer because a missing P/E is "unavailable", not 0 -
// screening must be able to tell the two apart.
type Quote struct {
	Ticker           string    `json:"ticker"`
	CompanyName      string    `json:"company_name"`
	Price            float64   `json:"price"`
	Change           float64   `json:"change"`
	ChangePct        float64   `json:"change_pct"`
	Volume           int64     `json:"volume"`
	MarketCap        float64   `json:"market_cap"`
	PERatio          *float64  `json:"pe_ratio,omitempty"`
	DividendYield    float64   `json:"dividend_yield"`
	Sector           string    `json:"sector"`
	Industry         string    `json:"industry"`
	FiftyTwoWeekHigh float64   `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  float64   `json:"fifty_two_week_low"`
	AvgVolume        int64     `json:"avg_volume"`
	LastUpdated      time.Time `json:"last_updated"`
}

// Candle represents a daily OHLCV price point
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Period is a historical lookback window. The fixed set covers the
// dashboard's analysis periods; arbitrary day-count windows are supported
// via PeriodDays.
type Period struct {
	code string
	days int
}

var (
	Period6M = Period{code: "6mo", days: 182}
	Period1Y = Period{code: "1y", days: 365}
	Period2Y = Period{code: "2y", days: 730}
	Period5Y = Period{code: "5y", days: 1825}
)

// PeriodDays returns a period covering an arbitrary number of calendar days.
func PeriodDays(days int) Period {
	return Period{code: fmt.Sprintf("%dd", days), days: days}
}

// ParsePeriod parses a period string ("6mo", "1y", "2y", "5y" or "<n>d").
func ParsePeriod(s string) (Period, error) {
	switch s {
	case "6mo":
		return Period6M, nil
	case "1y":
		return Period1Y, nil
	case "2y":
		return Period2Y, nil
	case "5y":
		return Period5Y, nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err == nil && days > 0 {
			return PeriodDays(days), nil
		}
	}

	return Period{}, fmt.Errorf("invalid period: %q (must be 6mo, 1y, 2y, 5y or <n>d)", s)
}

// String returns the wire representation of the period.
func (p Period) String() string {
	return p.code
}

// Days returns the approximate number of calendar days covered.
func (p Period) Days() int {
	return p.days
}

// IsZero reports whether the period is the zero value.
func (p Period) IsZero() bool {
	return p.code == ""
}

// MarshalJSON encodes the period as its wire string.
func (p Period) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.code)), nil
}

// UnmarshalJSON decodes a period from its wire string.
func (p *Period) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("invalid period value: %w", err)
	}
	parsed, err := ParsePeriod(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
