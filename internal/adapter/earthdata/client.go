// Package earthdata talks to the NASA PO.DAAC Hydrocron API, which serves
// SWOT lake observations as per-feature time series.
package earthdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/couchcryptid/swot-monitor-service/internal/domain"
)

// Credentials is the Earthdata login pair. Absence selects simulated mode
// upstream; the client itself requires both halves.
type Credentials struct {
	Username string
	Password string
}

// Present reports whether both halves of the login are set.
func (c Credentials) Present() bool {
	return c.Username != "" && c.Password != ""
}

var (
	ErrRemoteStatus = errors.New("earthdata API error")
	errCircuitOpen  = errors.New("earthdata circuit breaker open")
)

// Client fetches SWOT lake time series over HTTP with basic auth. A circuit
// breaker sits in front of the request so a dead endpoint stops consuming the
// retry budget quickly.
type Client struct {
	creds      Credentials
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates an Earthdata client with the given per-request timeout.
func NewClient(creds Credentials, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		creds:      creds,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "earthdata",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		logger: logger,
	}
}

// FetchSeries queries the time-series endpoint for one site and date range.
// It returns the parsed observations plus the number of records dropped
// because they were malformed. Records with out-of-range coordinates or
// unparsable numerics are counted and skipped, never fatal.
func (c *Client) FetchSeries(ctx context.Context, site domain.Site, dr domain.DateRange) ([]domain.Observation, int, error) {
	params := url.Values{
		"feature":    {"PriorLake"},
		"feature_id": {site.ID},
		"start_time": {dr.Start.UTC().Format(time.RFC3339)},
		"end_time":   {dr.End.UTC().Format(time.RFC3339)},
		"fields":     {"time_str,wse,area_total,quality_f"},
		"output":     {"geojson"},
	}

	body, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, 0, err
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, 0, fmt.Errorf("decode earthdata response: %w", err)
	}

	obs, dropped := parseFeatures(site, resp.Results.Geojson.Features)
	if dropped > 0 {
		c.logger.Warn("skipped malformed records in earthdata response",
			"site", site.ID, "dropped", dropped)
	}
	return obs, dropped, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.SetBasicAuth(c.creds.Username, c.creds.Password)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("earthdata request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("%w: status %d: %s", ErrRemoteStatus, resp.StatusCode, body)
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}
	return result.([]byte), nil
}

// parseFeatures maps GeoJSON features to observations. Hydrocron serializes
// numeric properties as strings, so each record parses individually and a bad
// record only costs itself.
func parseFeatures(site domain.Site, features []feature) ([]domain.Observation, int) {
	obs := make([]domain.Observation, 0, len(features))
	dropped := 0

	for _, f := range features {
		o, err := f.toObservation(site)
		if err != nil {
			dropped++
			continue
		}
		obs = append(obs, o)
	}

	return obs, dropped
}

// Hydrocron GeoJSON response types.

type response struct {
	Results struct {
		Geojson struct {
			Features []feature `json:"features"`
		} `json:"geojson"`
	} `json:"results"`
}

type feature struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
	Properties struct {
		TimeStr   string `json:"time_str"`
		WSE       string `json:"wse"`
		AreaTotal string `json:"area_total"`
		QualityF  string `json:"quality_f"`
	} `json:"properties"`
}

func (f feature) toObservation(site domain.Site) (domain.Observation, error) {
	ts, err := time.Parse(time.RFC3339, f.Properties.TimeStr)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("parse time_str: %w", err)
	}
	wse, err := strconv.ParseFloat(f.Properties.WSE, 64)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("parse wse: %w", err)
	}
	area, err := strconv.ParseFloat(f.Properties.AreaTotal, 64)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("parse area_total: %w", err)
	}

	lat, lon := site.Lat, site.Lon
	if len(f.Geometry.Coordinates) == 2 {
		lon = f.Geometry.Coordinates[0]
		lat = f.Geometry.Coordinates[1]
	}

	o := domain.Observation{
		SiteID:     site.ID,
		Timestamp:  ts.UTC(),
		Lat:        lat,
		Lon:        lon,
		ElevationM: wse,
		AreaKm2:    area,
		Quality:    parseQuality(f.Properties.QualityF),
	}
	if err := o.Validate(); err != nil {
		return domain.Observation{}, err
	}
	return o, nil
}

// parseQuality maps the product's integer quality flag: 0 is good, anything
// else degrades to suspect. Missing flags are treated as good because the
// record still carries a measurement.
func parseQuality(s string) domain.QualityFlag {
	if s == "" || s == "0" {
		return domain.QualityGood
	}
	return domain.QualitySuspect
}
