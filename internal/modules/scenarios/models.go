// Package scenarios manages named hypothetical portfolios: holdings,
// capital allocation and lifecycle. The store backs the backtest engine,
// which only reads {ticker, weight} pairs and the initial capital.
package scenarios

import (
	"errors"
	"time"

	"github.com/aristath/stockdash/internal/marketdata"
)

var (
	// ErrNotFound indicates the scenario does not exist.
	ErrNotFound = errors.New("scenario not found")
	// ErrDuplicateName indicates a scenario with the same name already exists.
	ErrDuplicateName = errors.New("scenario name already exists")
	// ErrDuplicateHolding indicates the ticker is already held in the scenario.
	ErrDuplicateHolding = errors.New("holding already exists for ticker")
	// ErrHoldingNotFound indicates the ticker is not held in the scenario.
	ErrHoldingNotFound = errors.New("holding not found")
	// ErrInvalidInput indicates a validation failure on user input.
	ErrInvalidInput = errors.New("invalid input")
)

// Holding is one position inside a scenario. Allocation is a raw positive
// weight (points, percent, currency - any positive scale); it is normalized
// to a fraction at analysis time. Shares and purchase price are optional
// and only used for unrealized P&L display.
type Holding struct {
	Ticker        string    `json:"ticker"`
	Allocation    float64   `json:"allocation"`
	Shares        *float64  `json:"shares,omitempty"`
	PurchasePrice *float64  `json:"purchase_price,omitempty"`
	AddedAt       time.Time `json:"added_at"`
}

// Scenario is a named hypothetical portfolio.
type Scenario struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	InitialCapital float64           `json:"initial_capital"`
	AnalysisPeriod marketdata.Period `json:"analysis_period"`
	Holdings       []Holding         `json:"holdings"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Weights returns the scenario's ticker-to-allocation map. Raw allocations
// are handed to the performance engine, which normalizes over the tickers
// that produce usable data.
func (s *Scenario) Weights() map[string]float64 {
	weights := make(map[string]float64, len(s.Holdings))
	for _, h := range s.Holdings {
		weights[h.Ticker] = h.Allocation
	}
	return weights
}

// HoldingValue is the live valuation of one holding for the summary view.
type HoldingValue struct {
	Ticker           string   `json:"ticker"`
	Sector           string   `json:"sector"`
	CurrentPrice     float64  `json:"current_price"`
	WeightFraction   float64  `json:"weight_fraction"`
	Shares           *float64 `json:"shares,omitempty"`
	Value            *float64 `json:"value,omitempty"`
	UnrealizedPnL    *float64 `json:"unrealized_pnl,omitempty"`
	UnrealizedPnLPct *float64 `json:"unrealized_pnl_pct,omitempty"`
}

// Summary is the live dashboard view of a scenario.
type Summary struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	InitialCapital   float64            `json:"initial_capital"`
	HoldingsCount    int                `json:"holdings_count"`
	Holdings         []HoldingValue     `json:"holdings"`
	SectorAllocation map[string]float64 `json:"sector_allocation"`
	Unpriced         []string           `json:"unpriced,omitempty"`
	LastUpdated      time.Time          `json:"last_updated"`
}
