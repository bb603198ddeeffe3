package scenarios

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stockdash/internal/database"
	"github.com/aristath/stockdash/internal/marketdata"
)

// Schema is the scenarios database schema.
const Schema = `
CREATE TABLE IF NOT EXISTS scenarios (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL UNIQUE,
	initial_capital REAL NOT NULL CHECK (initial_capital > 0),
	analysis_period TEXT NOT NULL DEFAULT '1y',
	created_at      INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS holdings (
	scenario_id    TEXT NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
	ticker         TEXT NOT NULL,
	allocation     REAL NOT NULL CHECK (allocation > 0),
	shares         REAL,
	purchase_price REAL,
	added_at       INTEGER NOT NULL,
	PRIMARY KEY (scenario_id, ticker)
);
`

// Repository provides access to stored portfolio scenarios
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new scenario repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "scenario_repository").Logger(),
	}
}

// Create inserts a new scenario (without holdings)
func (r *Repository) Create(s *Scenario) error {
	_, err := r.db.Exec(`
		INSERT INTO scenarios (id, name, initial_capital, analysis_period, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, s.Name, s.InitialCapital, s.AnalysisPeriod.String(), s.CreatedAt.Unix(), s.UpdatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("scenario %q: %w", s.Name, ErrDuplicateName)
		}
		return fmt.Errorf("failed to insert scenario: %w", err)
	}

	r.log.Info().Str("id", s.ID).Str("name", s.Name).Msg("Created scenario")
	return nil
}

// Get fetches a scenario with its holdings
func (r *Repository) Get(id string) (*Scenario, error) {
	var (
		s          Scenario
		periodCode string
		createdAt  int64
		updatedAt  int64
	)

	err := r.db.QueryRow(`
		SELECT id, name, initial_capital, analysis_period, created_at, updated_at
		FROM scenarios WHERE id = ?
	`, id).Scan(&s.ID, &s.Name, &s.InitialCapital, &periodCode, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scenario: %w", err)
	}

	period, err := marketdata.ParsePeriod(periodCode)
	if err != nil {
		return nil, fmt.Errorf("stored scenario %s has bad period: %w", id, err)
	}
	s.AnalysisPeriod = period
	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	s.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	holdings, err := r.getHoldings(id)
	if err != nil {
		return nil, err
	}
	s.Holdings = holdings

	return &s, nil
}

// List returns all scenarios with their holdings, newest first
func (r *Repository) List() ([]Scenario, error) {
	rows, err := r.db.Query(`
		SELECT id FROM scenarios ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan scenario id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scenarios: %w", err)
	}

	scenarios := make([]Scenario, 0, len(ids))
	for _, id := range ids {
		s, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, *s)
	}

	return scenarios, nil
}

// Delete removes a scenario and (via cascade) its holdings
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM scenarios WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}

	r.log.Info().Str("id", id).Msg("Deleted scenario")
	return nil
}

// AddHolding inserts a holding and bumps the scenario's updated_at
func (r *Repository) AddHolding(scenarioID string, h Holding) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRow("SELECT COUNT(*) FROM scenarios WHERE id = ?", scenarioID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check scenario: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}

		shares := sql.NullFloat64{}
		if h.Shares != nil {
			shares = sql.NullFloat64{Float64: *h.Shares, Valid: true}
		}
		purchasePrice := sql.NullFloat64{}
		if h.PurchasePrice != nil {
			purchasePrice = sql.NullFloat64{Float64: *h.PurchasePrice, Valid: true}
		}

		_, err := tx.Exec(`
			INSERT INTO holdings (scenario_id, ticker, allocation, shares, purchase_price, added_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, scenarioID, h.Ticker, h.Allocation, shares, purchasePrice, h.AddedAt.Unix())
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("ticker %s: %w", h.Ticker, ErrDuplicateHolding)
			}
			return fmt.Errorf("failed to insert holding: %w", err)
		}

		if _, err := tx.Exec("UPDATE scenarios SET updated_at = ? WHERE id = ?", time.Now().Unix(), scenarioID); err != nil {
			return fmt.Errorf("failed to touch scenario: %w", err)
		}

		return nil
	})
}

// RemoveHolding deletes a holding and bumps the scenario's updated_at
func (r *Repository) RemoveHolding(scenarioID, ticker string) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			"DELETE FROM holdings WHERE scenario_id = ? AND ticker = ?", scenarioID, ticker)
		if err != nil {
			return fmt.Errorf("failed to delete holding: %w", err)
		}

		affected, _ := result.RowsAffected()
		if affected == 0 {
			return ErrHoldingNotFound
		}

		if _, err := tx.Exec("UPDATE scenarios SET updated_at = ? WHERE id = ?", time.Now().Unix(), scenarioID); err != nil {
			return fmt.Errorf("failed to touch scenario: %w", err)
		}

		return nil
	})
}

// getHoldings fetches all holdings for a scenario, oldest first
func (r *Repository) getHoldings(scenarioID string) ([]Holding, error) {
	rows, err := r.db.Query(`
		SELECT ticker, allocation, shares, purchase_price, added_at
		FROM holdings
		WHERE scenario_id = ?
		ORDER BY added_at ASC, ticker ASC
	`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []Holding
	for rows.Next() {
		var (
			h             Holding
			shares        sql.NullFloat64
			purchasePrice sql.NullFloat64
			addedAt       int64
		)
		if err := rows.Scan(&h.Ticker, &h.Allocation, &shares, &purchasePrice, &addedAt); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		if shares.Valid {
			h.Shares = &shares.Float64
		}
		if purchasePrice.Valid {
			h.PurchasePrice = &purchasePrice.Float64
		}
		h.AddedAt = time.Unix(addedAt, 0).UTC()
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// isUniqueViolation reports whether an error is a SQLite unique/primary-key
// constraint failure. Matched on message text because both drivers in use
// surface constraint errors differently.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint violation")
}
