package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stockdash/internal/modules/market"
)

// RefreshOverviewJob re-fetches the major index histories on a schedule so
// the market overview renders from cache instead of blocking on the
// provider.
type RefreshOverviewJob struct {
	service *market.Service
	timeout time.Duration
	log     zerolog.Logger
}

// NewRefreshOverviewJob creates a new overview refresh job
func NewRefreshOverviewJob(service *market.Service, timeout time.Duration, log zerolog.Logger) *RefreshOverviewJob {
	return &RefreshOverviewJob{
		service: service,
		timeout: timeout,
		log:     log.With().Str("job", "refresh_overview").Logger(),
	}
}

// Name returns the job name
func (j *RefreshOverviewJob) Name() string {
	return "refresh_overview"
}

// Run warms the market overview
func (j *RefreshOverviewJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.service.WarmOverview(ctx)
	return nil
}
