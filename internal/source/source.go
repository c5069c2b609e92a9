// Package source provides the observation sources feeding the pipeline: the
// real Earthdata-backed source, the deterministic simulator, and the fallback
// selector that chooses between them.
package source

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/swot-monitor-service/internal/domain"
)

// Result is the outcome of one per-site fetch.
type Result struct {
	Series  domain.TimeSeries
	Mode    domain.SourceMode
	Dropped int // raw records discarded by sanity checks
}

// Source produces the observation series for one site and date range.
type Source interface {
	Fetch(ctx context.Context, site domain.Site, dr domain.DateRange) (Result, error)
}

// SeriesAPI is the transport abstraction behind the real source, satisfied by
// the earthdata client. Tests substitute a fake to exercise retry behavior
// without network calls.
type SeriesAPI interface {
	FetchSeries(ctx context.Context, site domain.Site, dr domain.DateRange) ([]domain.Observation, int, error)
}

// RetryPolicy bounds remote retries. Backoff doubles per attempt from Initial
// up to Max.
type RetryPolicy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
}

// Delay returns the backoff before the given zero-based retry attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.Initial
	for i := 0; i < attempt; i++ {
		d *= 2
		if p.Max > 0 && d > p.Max {
			return p.Max
		}
	}
	return d
}

// sleepWithContext waits for d on the given clock. Returns false if the
// context was cancelled first.
func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-clock.After(d):
		return true
	}
}
