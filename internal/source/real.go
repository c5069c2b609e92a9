package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/swot-monitor-service/internal/domain"
	"github.com/couchcryptid/swot-monitor-service/internal/observability"
)

// RealSource fetches observations from the remote product with bounded
// retries. Exhausting the retry budget surfaces the last error; the fallback
// selector turns that into a simulated series rather than a failure.
type RealSource struct {
	api     SeriesAPI
	retry   RetryPolicy
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRealSource creates a remote-backed source.
func NewRealSource(api SeriesAPI, retry RetryPolicy, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *RealSource {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &RealSource{
		api:     api,
		retry:   retry,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch retrieves and normalizes the remote series for one site.
func (s *RealSource) Fetch(ctx context.Context, site domain.Site, dr domain.DateRange) (Result, error) {
	var lastErr error

	for attempt := 0; attempt < s.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			if !sleepWithContext(ctx, s.clock, s.retry.Delay(attempt-1)) {
				return Result{}, ctx.Err()
			}
		}

		raw, malformed, err := s.api.FetchSeries(ctx, site, dr)
		if err != nil {
			s.metrics.FetchAttempts.WithLabelValues("error").Inc()
			s.logger.Warn("remote fetch attempt failed",
				"site", site.ID, "attempt", attempt+1, "error", err)
			lastErr = err
			continue
		}
		s.metrics.FetchAttempts.WithLabelValues("success").Inc()

		series, invalid := domain.NormalizeSeries(site.ID, raw)
		dropped := malformed + invalid
		if dropped > 0 {
			s.metrics.ObservationsDropped.Add(float64(dropped))
			s.logger.Warn("dropped observations failing sanity checks",
				"site", site.ID, "dropped", dropped)
		}

		return Result{Series: series, Mode: domain.ModeReal, Dropped: dropped}, nil
	}

	return Result{}, fmt.Errorf("remote fetch for %s exhausted %d attempts: %w",
		site.ID, s.retry.MaxAttempts, lastErr)
}
