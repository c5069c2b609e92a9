package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/swot-monitor-service/internal/domain"
	"github.com/couchcryptid/swot-monitor-service/internal/observability"
)

// fakeAPI scripts SeriesAPI responses per call.
type fakeAPI struct {
	calls   int
	failFor int // fail this many calls before succeeding
	err     error
	obs     []domain.Observation
}

func (f *fakeAPI) FetchSeries(_ context.Context, _ domain.Site, _ domain.DateRange) ([]domain.Observation, int, error) {
	f.calls++
	if f.calls <= f.failFor {
		return nil, 0, f.err
	}
	return f.obs, 0, nil
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func quickRetry(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, Initial: time.Millisecond, Max: 10 * time.Millisecond}
}

var site = domain.Site{ID: "LakeA", Lat: 46.5, Lon: 6.6}

func remoteObs(n int) []domain.Observation {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]domain.Observation, 0, n)
	for i := 0; i < n; i++ {
		obs = append(obs, domain.Observation{
			SiteID:     site.ID,
			Timestamp:  base.AddDate(0, 0, 21*i),
			Lat:        site.Lat,
			Lon:        site.Lon,
			ElevationM: 371 + float64(i)*0.1,
			AreaKm2:    12,
			Quality:    domain.QualityGood,
		})
	}
	return obs
}

func TestRealSource_RetriesThenSucceeds(t *testing.T) {
	api := &fakeAPI{failFor: 2, err: errors.New("connection refused"), obs: remoteObs(3)}
	src := NewRealSource(api, quickRetry(3), clockwork.NewRealClock(), testLogger(), newTestMetrics())

	res, err := src.Fetch(context.Background(), site, testRange)
	require.NoError(t, err)

	assert.Equal(t, 3, api.calls)
	assert.Equal(t, domain.ModeReal, res.Mode)
	assert.Len(t, res.Series.Observations, 3)
}

func TestRealSource_ExhaustsRetries(t *testing.T) {
	api := &fakeAPI{failFor: 100, err: errors.New("503 from upstream")}
	src := NewRealSource(api, quickRetry(3), clockwork.NewRealClock(), testLogger(), newTestMetrics())

	_, err := src.Fetch(context.Background(), site, testRange)
	require.Error(t, err)
	assert.Equal(t, 3, api.calls)
	assert.Contains(t, err.Error(), "exhausted 3 attempts")
}

func TestRealSource_DropsInsaneRecords(t *testing.T) {
	obs := remoteObs(10)
	obs[4].Lat = 200 // malformed
	api := &fakeAPI{obs: obs}
	src := NewRealSource(api, quickRetry(1), clockwork.NewRealClock(), testLogger(), newTestMetrics())

	res, err := src.Fetch(context.Background(), site, testRange)
	require.NoError(t, err)

	assert.Len(t, res.Series.Observations, 9)
	assert.Equal(t, 1, res.Dropped)
}

func TestRealSource_ContextCancelledDuringBackoff(t *testing.T) {
	api := &fakeAPI{failFor: 100, err: errors.New("timeout")}
	src := NewRealSource(api,
		RetryPolicy{MaxAttempts: 5, Initial: time.Hour, Max: time.Hour},
		clockwork.NewRealClock(), testLogger(), newTestMetrics())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := src.Fetch(ctx, site, testRange)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFallback_UsesRealWhenAvailable(t *testing.T) {
	api := &fakeAPI{obs: remoteObs(2)}
	src := New(api, true, quickRetry(1), clockwork.NewRealClock(), testLogger(), newTestMetrics())

	res, err := src.Fetch(context.Background(), site, testRange)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeReal, res.Mode)
}

func TestFallback_SimulatedOnRemoteFailure(t *testing.T) {
	api := &fakeAPI{failFor: 100, err: errors.New("network unreachable")}
	src := New(api, true, quickRetry(2), clockwork.NewRealClock(), testLogger(), newTestMetrics())

	res, err := src.Fetch(context.Background(), site, testRange)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeSimulated, res.Mode)
	assert.NotEmpty(t, res.Series.Observations)
	assert.Equal(t, 2, api.calls)
}

func TestFallback_SimulatedWithoutCredentials(t *testing.T) {
	api := &fakeAPI{obs: remoteObs(2)}
	src := New(api, false, quickRetry(1), clockwork.NewRealClock(), testLogger(), newTestMetrics())

	res, err := src.Fetch(context.Background(), site, testRange)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeSimulated, res.Mode)
	assert.Zero(t, api.calls)
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{Initial: 200 * time.Millisecond, Max: time.Second}

	assert.Equal(t, 200*time.Millisecond, p.Delay(0))
	assert.Equal(t, 400*time.Millisecond, p.Delay(1))
	assert.Equal(t, 800*time.Millisecond, p.Delay(2))
	assert.Equal(t, time.Second, p.Delay(3))
	assert.Equal(t, time.Second, p.Delay(10))
}
