package source

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/swot-monitor-service/internal/domain"
	"github.com/couchcryptid/swot-monitor-service/internal/observability"
)

// FallbackSource is the single decision point between real and simulated
// retrieval: real is tried when credentials were present at construction, and
// any remote failure (missing data, exhausted retries, auth rejection) falls
// back to the simulator. Fetch only fails on context cancellation.
type FallbackSource struct {
	real      Source // nil when credentials are absent
	simulated Source
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New wires the source stack. Pass a nil api or hasCredentials=false to run
// purely simulated.
func New(api SeriesAPI, hasCredentials bool, retry RetryPolicy, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *FallbackSource {
	f := &FallbackSource{
		simulated: NewSimulatedSource(logger),
		logger:    logger,
		metrics:   metrics,
	}
	if api != nil && hasCredentials {
		f.real = NewRealSource(api, retry, clock, logger, metrics)
	} else {
		logger.Info("earthdata credentials absent, running in simulated mode")
	}
	return f
}

// Fetch implements Source.
func (f *FallbackSource) Fetch(ctx context.Context, site domain.Site, dr domain.DateRange) (Result, error) {
	if f.real != nil {
		res, err := f.real.Fetch(ctx, site, dr)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		f.metrics.Fallbacks.Inc()
		f.logger.Info("falling back to simulated data",
			"site", site.ID, "reason", err)
	}
	return f.simulated.Fetch(ctx, site, dr)
}
