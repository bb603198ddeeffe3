package marketdata

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSnapshotStore(t *testing.T) *SnapshotStore {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(SnapshotSchema)
	require.NoError(t, err)

	return NewSnapshotStore(db, zerolog.Nop())
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	store := setupSnapshotStore(t)

	pe := 30.5
	quote := &Quote{
		Ticker:      "AAPL",
		CompanyName: "Apple Inc.",
		Price:       185.5,
		PERatio:     &pe,
		Sector:      "Technology",
		LastUpdated: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.Save(quote))

	got, err := store.Get("AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "AAPL", got.Ticker)
	assert.Equal(t, 185.5, got.Price)
	require.NotNil(t, got.PERatio)
	assert.Equal(t, 30.5, *got.PERatio)
	assert.True(t, quote.LastUpdated.Equal(got.LastUpdated))
}

func TestSnapshotStoreGetMissing(t *testing.T) {
	store := setupSnapshotStore(t)

	got, err := store.Get("NOPE")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotStoreSaveReplaces(t *testing.T) {
	store := setupSnapshotStore(t)

	require.NoError(t, store.Save(&Quote{Ticker: "AAPL", Price: 100}))
	require.NoError(t, store.Save(&Quote{Ticker: "AAPL", Price: 200}))

	got, err := store.Get("AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 200.0, got.Price)
}

func TestSnapshotStoreDeleteStale(t *testing.T) {
	store := setupSnapshotStore(t)

	require.NoError(t, store.Save(&Quote{Ticker: "AAPL", Price: 100}))

	// Cutoff in the past keeps the fresh row
	require.NoError(t, store.DeleteStale(time.Now().Add(-time.Hour)))
	got, err := store.Get("AAPL")
	require.NoError(t, err)
	assert.NotNil(t, got)

	// Cutoff in the future removes it
	require.NoError(t, store.DeleteStale(time.Now().Add(time.Hour)))
	got, err = store.Get("AAPL")
	require.NoError(t, err)
	assert.Nil(t, got)
}
