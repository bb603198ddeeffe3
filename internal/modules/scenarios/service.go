package scenarios

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/stockdash/internal/marketdata"
)

// Service validates and orchestrates scenario operations. Live valuations
// go through the quote provider; the provider is expected to be the cached
// decorator so repeated summary calls stay cheap.
type Service struct {
	repo   *Repository
	quotes marketdata.QuoteProvider
	log    zerolog.Logger
}

// NewService creates a new scenario service
func NewService(repo *Repository, quotes marketdata.QuoteProvider, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		quotes: quotes,
		log:    log.With().Str("service", "scenarios").Logger(),
	}
}

// Create validates and stores a new scenario
func (s *Service) Create(name string, initialCapital float64, period marketdata.Period) (*Scenario, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("scenario name is required: %w", ErrInvalidInput)
	}
	if initialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %.2f: %w", initialCapital, ErrInvalidInput)
	}
	if period.IsZero() {
		period = marketdata.Period1Y
	}

	now := time.Now().UTC()
	scenario := &Scenario{
		ID:             uuid.New().String(),
		Name:           name,
		InitialCapital: initialCapital,
		AnalysisPeriod: period,
		Holdings:       []Holding{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(scenario); err != nil {
		return nil, err
	}

	return scenario, nil
}

// Get fetches a scenario by ID
func (s *Service) Get(id string) (*Scenario, error) {
	return s.repo.Get(id)
}

// List returns all scenarios
func (s *Service) List() ([]Scenario, error) {
	return s.repo.List()
}

// Delete removes a scenario
func (s *Service) Delete(id string) error {
	return s.repo.Delete(id)
}

// AddHolding validates and adds a holding to a scenario
func (s *Service) AddHolding(id, ticker string, allocation float64, shares, purchasePrice *float64) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return fmt.Errorf("ticker is required: %w", ErrInvalidInput)
	}
	if allocation <= 0 {
		return fmt.Errorf("allocation must be positive, got %.4f: %w", allocation, ErrInvalidInput)
	}
	if shares != nil && *shares <= 0 {
		return fmt.Errorf("shares must be positive when provided: %w", ErrInvalidInput)
	}
	if purchasePrice != nil && *purchasePrice <= 0 {
		return fmt.Errorf("purchase price must be positive when provided: %w", ErrInvalidInput)
	}

	return s.repo.AddHolding(id, Holding{
		Ticker:        ticker,
		Allocation:    allocation,
		Shares:        shares,
		PurchasePrice: purchasePrice,
		AddedAt:       time.Now().UTC(),
	})
}

// RemoveHolding removes a holding from a scenario
func (s *Service) RemoveHolding(id, ticker string) error {
	return s.repo.RemoveHolding(id, strings.ToUpper(strings.TrimSpace(ticker)))
}

// Summary values a scenario's holdings with live quotes: per-holding value
// and unrealized P&L (when shares are recorded), plus sector allocation by
// normalized weight. Holdings whose quotes fail are listed as unpriced
// rather than silently dropped.
func (s *Service) Summary(ctx context.Context, id string) (*Summary, error) {
	scenario, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}

	var totalAllocation float64
	for _, h := range scenario.Holdings {
		totalAllocation += h.Allocation
	}

	summary := &Summary{
		ID:               scenario.ID,
		Name:             scenario.Name,
		InitialCapital:   scenario.InitialCapital,
		HoldingsCount:    len(scenario.Holdings),
		Holdings:         make([]HoldingValue, 0, len(scenario.Holdings)),
		SectorAllocation: make(map[string]float64),
		LastUpdated:      time.Now().UTC(),
	}

	for _, h := range scenario.Holdings {
		quote, err := s.quotes.FetchQuote(ctx, h.Ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", h.Ticker).Msg("Quote unavailable for summary")
			summary.Unpriced = append(summary.Unpriced, h.Ticker)
			continue
		}

		hv := HoldingValue{
			Ticker:       h.Ticker,
			Sector:       quote.Sector,
			CurrentPrice: quote.Price,
			Shares:       h.Shares,
		}
		if totalAllocation > 0 {
			hv.WeightFraction = h.Allocation / totalAllocation
		}

		if h.Shares != nil {
			value := *h.Shares * quote.Price
			hv.Value = &value

			if h.PurchasePrice != nil && *h.PurchasePrice > 0 {
				pnl := (quote.Price - *h.PurchasePrice) * *h.Shares
				pnlPct := (quote.Price - *h.PurchasePrice) / *h.PurchasePrice * 100
				hv.UnrealizedPnL = &pnl
				hv.UnrealizedPnLPct = &pnlPct
			}
		}

		summary.SectorAllocation[quote.Sector] += hv.WeightFraction
		summary.Holdings = append(summary.Holdings, hv)
	}

	return summary, nil
}
