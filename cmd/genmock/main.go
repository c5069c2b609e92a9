// Command genmock generates deterministic simulated observation fixtures
// using the actual simulator, so test fixtures always match pipeline
// behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -site LakeA -lat 46.51 -lon 6.63 \
//	  -start 2025-01-01 -end 2025-06-30 \
//	  -out data/mock/lakea_series.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/swot-monitor-service/internal/domain"
	"github.com/couchcryptid/swot-monitor-service/internal/source"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	siteID := flag.String("site", "", "site identifier")
	lat := flag.Float64("lat", 0, "site latitude")
	lon := flag.Float64("lon", 0, "site longitude")
	start := flag.String("start", "", "range start, YYYY-MM-DD")
	end := flag.String("end", "", "range end, YYYY-MM-DD")
	out := flag.String("out", "", "output path for the series fixture")
	flag.Parse()

	if *siteID == "" || *start == "" || *end == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -site, -start, -end, -out")
	}

	startT, err := time.Parse("2006-01-02", *start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}
	endT, err := time.Parse("2006-01-02", *end)
	if err != nil {
		return fmt.Errorf("parse -end: %w", err)
	}

	site := domain.Site{ID: *siteID, Lat: *lat, Lon: *lon}
	dr := domain.DateRange{Start: startT.UTC(), End: endT.UTC()}
	if err := site.Validate(); err != nil {
		return err
	}
	if err := dr.Validate(); err != nil {
		return err
	}

	sim := source.NewSimulatedSource(slog.New(slog.NewTextHandler(io.Discard, nil)))
	res, err := sim.Fetch(context.Background(), site, dr)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(res.Series, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal series: %w", err)
	}
	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}

	log.Printf("%s: %d observations written to %s",
		site.ID, len(res.Series.Observations), *out)
	return nil
}
