package source

import (
	"context"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"time"

	"github.com/couchcryptid/swot-monitor-service/internal/domain"
)

// Simulated product constants. The SWOT repeat cycle is just under 21 days;
// the simulator emits one observation per cycle over the requested range.
const (
	repeatCycle = 21 * 24 * time.Hour

	// Bounded noise and drift for the synthetic series. Nothing downstream
	// depends on the exact shape beyond "smooth baseline + bounded noise +
	// slow drift"; these magnitudes are picked to look like a real lake.
	noiseAmplitudeM = 0.15  // uniform elevation noise, +/- meters
	maxDriftMPerDay = 0.004 // absolute bound on injected linear drift
	suspectFraction = 0.05  // share of observations flagged suspect
	areaJitter      = 0.02  // fractional area noise
)

// SimulatedSource generates a deterministic synthetic series. All randomness
// derives from a seed computed from (site_id, date_range), so identical inputs
// always produce byte-identical output. There is no hidden global state.
type SimulatedSource struct {
	logger *slog.Logger
}

// NewSimulatedSource creates the fallback generator.
func NewSimulatedSource(logger *slog.Logger) *SimulatedSource {
	return &SimulatedSource{logger: logger}
}

// Fetch generates the simulated series for one site. It never fails.
func (s *SimulatedSource) Fetch(_ context.Context, site domain.Site, dr domain.DateRange) (Result, error) {
	rng := rand.New(rand.NewSource(seedFor(site.ID, dr)))

	// Site-specific smooth baseline: elevation in [5, 405) m, area in
	// [0.5, 80.5) km². Drawn first so the per-observation draws below stay
	// aligned regardless of range length.
	baseElevation := 5 + rng.Float64()*400
	baseArea := 0.5 + rng.Float64()*80
	drift := (rng.Float64()*2 - 1) * maxDriftMPerDay

	var obs []domain.Observation
	for t := dr.Start.UTC(); !t.After(dr.End.UTC()); t = t.Add(repeatCycle) {
		elapsedDays := t.Sub(dr.Start.UTC()).Hours() / 24
		noise := (rng.Float64()*2 - 1) * noiseAmplitudeM

		quality := domain.QualityGood
		if rng.Float64() < suspectFraction {
			quality = domain.QualitySuspect
		}

		area := baseArea * (1 + (rng.Float64()*2-1)*areaJitter)
		if area < 0 {
			area = 0
		}

		obs = append(obs, domain.Observation{
			SiteID:     site.ID,
			Timestamp:  t,
			Lat:        site.Lat,
			Lon:        site.Lon,
			ElevationM: baseElevation + drift*elapsedDays + noise,
			AreaKm2:    area,
			Quality:    quality,
		})
	}

	series, dropped := domain.NormalizeSeries(site.ID, obs)
	s.logger.Debug("generated simulated series",
		"site", site.ID, "observations", len(series.Observations))

	return Result{Series: series, Mode: domain.ModeSimulated, Dropped: dropped}, nil
}

// seedFor derives the simulator seed from the site id and date range. FNV-1a
// keeps it cheap and stable across platforms.
func seedFor(siteID string, dr domain.DateRange) int64 {
	h := fnv.New64a()
	h.Write([]byte(siteID))
	h.Write([]byte{'|'})
	h.Write([]byte(dr.Start.UTC().Format(time.RFC3339)))
	h.Write([]byte{'|'})
	h.Write([]byte(dr.End.UTC().Format(time.RFC3339)))
	return int64(h.Sum64())
}
