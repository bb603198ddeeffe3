package marketdata

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotSchema is the cache.db schema for persisted quote snapshots.
const SnapshotSchema = `
CREATE TABLE IF NOT EXISTS quote_snapshots (
	ticker    TEXT PRIMARY KEY,
	payload   BLOB NOT NULL,
	stored_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_quote_snapshots_stored_at ON quote_snapshots(stored_at);
`

// SnapshotStore persists quote snapshots in cache.db so the dashboard can
// show last-known prices across restarts and while the provider is rate
// limited. Values are msgpack-encoded blobs.
type SnapshotStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSnapshotStore creates a new snapshot store
func NewSnapshotStore(db *sql.DB, log zerolog.Logger) *SnapshotStore {
	return &SnapshotStore{
		db:  db,
		log: log.With().Str("component", "snapshot_store").Logger(),
	}
}

// Save inserts or replaces the snapshot for a ticker
func (s *SnapshotStore) Save(quote *Quote) error {
	payload, err := msgpack.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for %s: %w", quote.Ticker, err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO quote_snapshots (ticker, payload, stored_at)
		VALUES (?, ?, ?)
	`, quote.Ticker, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store snapshot for %s: %w", quote.Ticker, err)
	}

	s.log.Debug().Str("ticker", quote.Ticker).Msg("Stored quote snapshot")
	return nil
}

// Get fetches the last stored snapshot for a ticker.
// Returns nil if no snapshot exists (not an error).
func (s *SnapshotStore) Get(ticker string) (*Quote, error) {
	var payload []byte
	err := s.db.QueryRow(
		"SELECT payload FROM quote_snapshots WHERE ticker = ?", ticker,
	).Scan(&payload)

	if err == sql.ErrNoRows {
		return nil, nil // Not found (not an error)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot for %s: %w", ticker, err)
	}

	var quote Quote
	if err := msgpack.Unmarshal(payload, &quote); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for %s: %w", ticker, err)
	}

	return &quote, nil
}

// DeleteStale removes snapshots stored before the given time.
// Used by maintenance jobs to prevent unbounded table growth.
func (s *SnapshotStore) DeleteStale(olderThan time.Time) error {
	result, err := s.db.Exec("DELETE FROM quote_snapshots WHERE stored_at < ?", olderThan.Unix())
	if err != nil {
		return fmt.Errorf("failed to delete stale snapshots: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		s.log.Info().
			Int64("rows_deleted", rowsAffected).
			Time("older_than", olderThan).
			Msg("Deleted stale quote snapshots")
	}

	return nil
}
