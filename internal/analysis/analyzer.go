// Package analysis computes per-site descriptive statistics, a linear trend,
// and anomaly flags from an observation series.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/couchcryptid/swot-monitor-service/internal/domain"
)

// DefaultThresholdSigma flags observations deviating from the mean by more
// than this many standard deviations.
const DefaultThresholdSigma = 2.0

// Analyzer turns a TimeSeries into an AnalysisResult. It is stateless and
// fully deterministic: the same series always yields a bit-identical result.
type Analyzer struct {
	thresholdSigma float64
}

// New creates an Analyzer. A non-positive threshold selects the default.
func New(thresholdSigma float64) *Analyzer {
	if thresholdSigma <= 0 {
		thresholdSigma = DefaultThresholdSigma
	}
	return &Analyzer{thresholdSigma: thresholdSigma}
}

// Analyze computes statistics over the series. The series is borrowed
// read-only; the result is independent of it. Empty and single-observation
// series produce zeroed numeric fields rather than errors. Non-finite
// elevations are rejected at ingestion, so no NaN guard is needed here.
func (a *Analyzer) Analyze(series domain.TimeSeries) domain.AnalysisResult {
	result := domain.AnalysisResult{
		SiteID:              series.SiteID,
		Anomalies:           []time.Time{},
		QualityDistribution: map[domain.QualityFlag]int{},
	}

	obs := series.Observations
	n := len(obs)
	result.ObservationCount = n
	if n == 0 {
		return result
	}

	elevations := make([]float64, n)
	for i, o := range obs {
		elevations[i] = o.ElevationM
		result.TotalAreaKm2 += o.AreaKm2
		result.QualityDistribution[o.Quality]++
	}

	result.MeanElevationM = mean(elevations)
	result.MedianElevationM = median(elevations)
	result.MinElevationM, result.MaxElevationM = minMax(elevations)
	result.StdElevationM = sampleStd(elevations, result.MeanElevationM)

	result.TrendSlopeMPerDay, result.TrendRSquared = linearTrend(obs)

	// No anomalies when all values are identical, regardless of threshold.
	if result.StdElevationM > 0 {
		limit := a.thresholdSigma * result.StdElevationM
		for _, o := range obs {
			if math.Abs(o.ElevationM-result.MeanElevationM) > limit {
				result.Anomalies = append(result.Anomalies, o.Timestamp)
			}
		}
	}

	return result
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func minMax(xs []float64) (float64, float64) {
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

// sampleStd is the n-1 (Bessel-corrected) standard deviation. Zero for a
// single observation.
func sampleStd(xs []float64, mean float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// linearTrend fits elevation against elapsed days since the first observation
// by ordinary least squares. Degenerate inputs (fewer than two observations,
// zero time spread, or zero elevation variance) yield slope 0 and r² 0.
func linearTrend(obs []domain.Observation) (slope, rSquared float64) {
	n := len(obs)
	if n < 2 {
		return 0, 0
	}

	t0 := obs[0].Timestamp
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, o := range obs {
		xs[i] = o.Timestamp.Sub(t0).Hours() / 24
		ys[i] = o.ElevationM
	}

	xMean := mean(xs)
	yMean := mean(ys)

	var sxx, syy, sxy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - xMean
		dy := ys[i] - yMean
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}

	if sxx == 0 || syy == 0 {
		return 0, 0
	}

	return sxy / sxx, (sxy * sxy) / (sxx * syy)
}
