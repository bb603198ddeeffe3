package jobs

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stockdash/internal/marketdata"
)

// CleanupSnapshotsJob prunes quote snapshots older than the retention
// window. Stale snapshots only exist to bridge provider outages, so a few
// days of retention is plenty.
type CleanupSnapshotsJob struct {
	store     *marketdata.SnapshotStore
	retention time.Duration
	log       zerolog.Logger
}

// NewCleanupSnapshotsJob creates a new snapshot cleanup job
func NewCleanupSnapshotsJob(store *marketdata.SnapshotStore, retention time.Duration, log zerolog.Logger) *CleanupSnapshotsJob {
	return &CleanupSnapshotsJob{
		store:     store,
		retention: retention,
		log:       log.With().Str("job", "cleanup_snapshots").Logger(),
	}
}

// Name returns the job name
func (j *CleanupSnapshotsJob) Name() string {
	return "cleanup_snapshots"
}

// Run deletes snapshots past the retention window
func (j *CleanupSnapshotsJob) Run() error {
	cutoff := time.Now().UTC().Add(-j.retention)
	if err := j.store.DeleteStale(cutoff); err != nil {
		return err
	}

	j.log.Debug().Time("cutoff", cutoff).Msg("Pruned stale snapshots")
	return nil
}
