package domain

import "time"

// AnalysisResult holds the per-site statistics computed by the analyzer.
// Recomputed fresh each run; a new result replaces the prior one for a site.
// DroppedObservations is filled in by the pipeline from the fetch stage so
// discarded records stay visible in the final report.
type AnalysisResult struct {
	SiteID              string  `json:"site_id"`
	ObservationCount    int     `json:"observation_count"`
	DroppedObservations int     `json:"dropped_observations"`
	MeanElevationM      float64 `json:"mean_elevation_m"`
	MedianElevationM    float64 `json:"median_elevation_m"`
	StdElevationM       float64 `json:"std_elevation_m"`
	MinElevationM       float64 `json:"min_elevation_m"`
	MaxElevationM       float64 `json:"max_elevation_m"`
	TotalAreaKm2        float64 `json:"total_water_area_km2"`

	// Ordinary least-squares fit of elevation against elapsed days since
	// the first observation in the series.
	TrendSlopeMPerDay float64 `json:"trend_slope_m_per_day"`
	TrendRSquared     float64 `json:"trend_r_squared"`

	// Anomalies are the timestamps of observations whose elevation deviates
	// from the series mean by more than the configured number of standard
	// deviations, ascending.
	Anomalies []time.Time `json:"anomalies"`

	QualityDistribution map[QualityFlag]int `json:"quality_distribution"`
}

// Report is the per-run output handed to the visualizer. Results keys are
// exactly the site ids that reached analysis; SourceMode is "real" only when
// every site's data came from the remote product.
type Report struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	SourceMode  SourceMode                `json:"source_mode"`
	Results     map[string]AnalysisResult `json:"results"`
}
