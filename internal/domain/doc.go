// Package domain models SWOT surface-water observations and the derived
// analysis types shared by the monitoring pipeline.
//
// # Data Source
//
// Observations come from the SWOT (Surface Water and Ocean Topography)
// L2 lake product, served per water body as a time series of water surface
// elevation and area. The satellite revisits a given site roughly every
// 21 days, so a site's series has a ~21-day native cadence with gaps where
// an overpass produced no usable measurement. When NASA Earthdata
// credentials are absent or the remote service is unreachable, the
// pipeline substitutes a deterministic simulated series; the report always
// records which mode produced the data.
//
// # Conventions
//
//	site_id      stable identifier of a monitored water body (e.g. "LakeA")
//	timestamps   UTC, serialized as RFC 3339
//	elevation    meters above the reference ellipsoid
//	area         square kilometers, never negative
//	quality_flag "good", "suspect", or "missing"
//
// At most one observation exists per (site_id, timestamp); when a source
// yields duplicates the later record wins. A series is always ordered by
// timestamp ascending. Records outside basic sanity bounds (latitude,
// longitude, area, non-finite elevation) are rejected at ingestion and
// counted, never silently discarded. See [NormalizeSeries].
package domain
