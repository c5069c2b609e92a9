package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// QualityFlag grades a single observation.
type QualityFlag string

const (
	QualityGood    QualityFlag = "good"
	QualitySuspect QualityFlag = "suspect"
	QualityMissing QualityFlag = "missing"
)

// SourceMode records whether a series came from the real remote product or
// from the deterministic simulator.
type SourceMode string

const (
	ModeReal      SourceMode = "real"
	ModeSimulated SourceMode = "simulated"
)

// Observation is a single surface-water measurement for one site. Immutable
// once created.
type Observation struct {
	SiteID      string      `json:"site_id"`
	Timestamp   time.Time   `json:"timestamp"`
	Lat         float64     `json:"lat"`
	Lon         float64     `json:"lon"`
	ElevationM  float64     `json:"water_surface_elevation_m"`
	AreaKm2 float64     `json:"water_area_km2"`
	Quality     QualityFlag `json:"quality_flag"`
}

// TimeSeries is the chronologically ordered observation history of one site.
type TimeSeries struct {
	SiteID       string        `json:"site_id"`
	Observations []Observation `json:"observations"`
}

// Site describes a monitored water body.
type Site struct {
	ID  string  `yaml:"id" json:"id"`
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

// DateRange is a closed calendar interval.
type DateRange struct {
	Start time.Time
	End   time.Time
}

var (
	ErrEmptySiteID    = errors.New("site id must not be empty")
	ErrBadCoordinates = errors.New("coordinates out of bounds")
	ErrBadDateRange   = errors.New("date range start is after end")
	ErrBadObservation = errors.New("observation failed sanity checks")
)

// Validate rejects site descriptors the pipeline cannot work with.
func (s Site) Validate() error {
	if s.ID == "" {
		return ErrEmptySiteID
	}
	if s.Lat < -90 || s.Lat > 90 || s.Lon < -180 || s.Lon > 180 {
		return fmt.Errorf("%w: site %q lat=%v lon=%v", ErrBadCoordinates, s.ID, s.Lat, s.Lon)
	}
	return nil
}

// Validate rejects inverted ranges and zero endpoints.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() || r.Start.After(r.End) {
		return fmt.Errorf("%w: %s..%s", ErrBadDateRange, r.Start, r.End)
	}
	return nil
}

// Days returns the range length in whole days, inclusive of both endpoints.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Validate applies the sanity bounds every ingested observation must satisfy:
// latitude in [-90,90], longitude in [-180,180], area >= 0, and a finite
// elevation. NaN elevations are rejected here so the analyzer never sees them.
func (o Observation) Validate() error {
	switch {
	case o.SiteID == "":
		return fmt.Errorf("%w: empty site id", ErrBadObservation)
	case o.Timestamp.IsZero():
		return fmt.Errorf("%w: zero timestamp", ErrBadObservation)
	case o.Lat < -90 || o.Lat > 90:
		return fmt.Errorf("%w: latitude %v", ErrBadObservation, o.Lat)
	case o.Lon < -180 || o.Lon > 180:
		return fmt.Errorf("%w: longitude %v", ErrBadObservation, o.Lon)
	case o.AreaKm2 < 0 || math.IsNaN(o.AreaKm2) || math.IsInf(o.AreaKm2, 0):
		return fmt.Errorf("%w: area %v", ErrBadObservation, o.AreaKm2)
	case math.IsNaN(o.ElevationM) || math.IsInf(o.ElevationM, 0):
		return fmt.Errorf("%w: non-finite elevation", ErrBadObservation)
	}
	return nil
}

// NormalizeSeries turns raw observations into a valid TimeSeries: records
// failing sanity checks are dropped and counted, duplicate timestamps are
// collapsed with the later record winning, and the result is sorted by
// timestamp ascending. Timestamps are normalized to UTC.
func NormalizeSeries(siteID string, raw []Observation) (TimeSeries, int) {
	byTime := make(map[int64]Observation, len(raw))
	dropped := 0

	for _, o := range raw {
		o.Timestamp = o.Timestamp.UTC()
		if err := o.Validate(); err != nil {
			dropped++
			continue
		}
		// Later duplicate overwrites earlier: raw order is source order.
		byTime[o.Timestamp.UnixNano()] = o
	}

	obs := make([]Observation, 0, len(byTime))
	for _, o := range byTime {
		obs = append(obs, o)
	}
	sort.Slice(obs, func(i, j int) bool {
		return obs[i].Timestamp.Before(obs[j].Timestamp)
	})

	return TimeSeries{SiteID: siteID, Observations: obs}, dropped
}
