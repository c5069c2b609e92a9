// Package sqlite persists the append-only raw observation store. Each record
// is keyed (site_id, timestamp); a late duplicate for the same key replaces
// the earlier one, matching the source-level dedup rule.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/swot-monitor-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS observations (
	site_id      TEXT NOT NULL,
	timestamp    TEXT NOT NULL,
	lat          REAL NOT NULL,
	lon          REAL NOT NULL,
	elevation_m  REAL NOT NULL,
	area_km2     REAL NOT NULL,
	quality_flag TEXT NOT NULL,
	PRIMARY KEY (site_id, timestamp)
);
CREATE INDEX IF NOT EXISTS idx_observations_site ON observations(site_id);`

// timeLayout is RFC 3339 with fixed nanosecond width so that lexicographic
// ordering of the stored TEXT column matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the SQLite-backed ObservationStore.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens (and if needed creates) the database at path. Parent directories
// are created so a fresh checkout works without setup.
func New(path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create observations table: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// SaveSeries ingests a normalized series in one transaction. Each observation
// upserts on (site_id, timestamp) so repeated runs over overlapping ranges
// stay idempotent.
func (s *Store) SaveSeries(ctx context.Context, series domain.TimeSeries) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations(site_id, timestamp, lat, lon, elevation_m, area_km2, quality_flag)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(site_id, timestamp) DO UPDATE SET
			lat=excluded.lat,
			lon=excluded.lon,
			elevation_m=excluded.elevation_m,
			area_km2=excluded.area_km2,
			quality_flag=excluded.quality_flag`)
	if err != nil {
		return fmt.Errorf("prepare save: %w", err)
	}
	defer stmt.Close()

	for _, o := range series.Observations {
		_, err := stmt.ExecContext(ctx,
			o.SiteID,
			o.Timestamp.UTC().Format(timeLayout),
			o.Lat, o.Lon, o.ElevationM, o.AreaKm2, string(o.Quality),
		)
		if err != nil {
			return fmt.Errorf("save observation %s@%s: %w", o.SiteID, o.Timestamp, err)
		}
	}

	return tx.Commit()
}

// GetSeries returns the full stored history for a site, ordered by timestamp
// ascending. A site with no stored observations yields an empty series, not
// an error.
func (s *Store) GetSeries(ctx context.Context, siteID string) (domain.TimeSeries, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT site_id, timestamp, lat, lon, elevation_m, area_km2, quality_flag
		FROM observations WHERE site_id = ? ORDER BY timestamp ASC`, siteID)
	if err != nil {
		return domain.TimeSeries{}, fmt.Errorf("query series for %s: %w", siteID, err)
	}
	defer rows.Close()

	series := domain.TimeSeries{SiteID: siteID}
	for rows.Next() {
		var o domain.Observation
		var ts, quality string
		if err := rows.Scan(&o.SiteID, &ts, &o.Lat, &o.Lon, &o.ElevationM, &o.AreaKm2, &quality); err != nil {
			return domain.TimeSeries{}, fmt.Errorf("scan observation: %w", err)
		}
		o.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return domain.TimeSeries{}, fmt.Errorf("parse stored timestamp %q: %w", ts, err)
		}
		o.Timestamp = o.Timestamp.UTC()
		o.Quality = domain.QualityFlag(quality)
		series.Observations = append(series.Observations, o)
	}
	if err := rows.Err(); err != nil {
		return domain.TimeSeries{}, fmt.Errorf("read series for %s: %w", siteID, err)
	}

	return series, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
