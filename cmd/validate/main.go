// Command validate checks a generated report file against the invariants the
// visualizer depends on: parseable JSON, a known source mode, finite numeric
// fields, r² within [0,1], and non-negative counts. Exit code 1 on any
// violation.
//
// Usage:
//
//	go run ./cmd/validate -report results/swot_report.json
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sort"

	"github.com/couchcryptid/swot-monitor-service/internal/domain"
	"github.com/couchcryptid/swot-monitor-service/internal/report"
)

func main() {
	path := flag.String("report", "", "path to a report JSON file")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	violations, err := validate(*path)
	if err != nil {
		log.Fatal(err)
	}
	if len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintln(os.Stderr, "violation:", v)
		}
		os.Exit(1)
	}
	fmt.Println("report ok")
}

func validate(path string) ([]string, error) {
	rep, err := report.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var violations []string
	add := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	if rep.SourceMode != domain.ModeReal && rep.SourceMode != domain.ModeSimulated {
		add("unknown source_mode %q", rep.SourceMode)
	}
	if rep.GeneratedAt.IsZero() {
		add("generated_at is zero")
	}

	siteIDs := make([]string, 0, len(rep.Results))
	for id := range rep.Results {
		siteIDs = append(siteIDs, id)
	}
	sort.Strings(siteIDs)

	for _, id := range siteIDs {
		r := rep.Results[id]
		if r.SiteID != id {
			add("%s: result site_id %q does not match key", id, r.SiteID)
		}
		if r.ObservationCount < 0 || r.DroppedObservations < 0 {
			add("%s: negative counts", id)
		}
		if r.TrendRSquared < 0 || r.TrendRSquared > 1 {
			add("%s: trend_r_squared %v outside [0,1]", id, r.TrendRSquared)
		}
		if r.TotalAreaKm2 < 0 {
			add("%s: negative total water area", id)
		}
		if len(r.Anomalies) > r.ObservationCount {
			add("%s: more anomalies than observations", id)
		}
		for name, v := range map[string]float64{
			"mean_elevation_m":      r.MeanElevationM,
			"median_elevation_m":    r.MedianElevationM,
			"std_elevation_m":       r.StdElevationM,
			"min_elevation_m":       r.MinElevationM,
			"max_elevation_m":       r.MaxElevationM,
			"trend_slope_m_per_day": r.TrendSlopeMPerDay,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				add("%s: %s is not finite", id, name)
			}
		}
	}

	return violations, nil
}
