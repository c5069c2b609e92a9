// Package pipeline runs the per-site fetch → store → analyze loop and hands
// the merged report to the configured sink.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/swot-monitor-service/internal/domain"
	"github.com/couchcryptid/swot-monitor-service/internal/observability"
	"github.com/couchcryptid/swot-monitor-service/internal/report"
	"github.com/couchcryptid/swot-monitor-service/internal/source"
)

// Fetcher produces the observation series for one site.
type Fetcher interface {
	Fetch(ctx context.Context, site domain.Site, dr domain.DateRange) (source.Result, error)
}

// Store owns ingested series: it persists new observations and serves the
// accumulated history back for analysis.
type Store interface {
	SaveSeries(ctx context.Context, series domain.TimeSeries) error
	GetSeries(ctx context.Context, siteID string) (domain.TimeSeries, error)
}

// Analyzer computes per-site statistics from a stored series.
type Analyzer interface {
	Analyze(series domain.TimeSeries) domain.AnalysisResult
}

// ReportSink persists the final report. Its failure is the only fatal error
// of a run.
type ReportSink interface {
	Write(rep domain.Report) error
}

// Publisher optionally streams ingested observations to downstream consumers.
type Publisher interface {
	PublishSeries(ctx context.Context, series domain.TimeSeries) error
}

// Pipeline processes sites sequentially in configured order. Each site's
// fetch→analyze is an independent unit: a failure there is logged and the
// site skipped, never aborting the run.
type Pipeline struct {
	fetcher   Fetcher
	store     Store
	analyzer  Analyzer
	sink      ReportSink
	publisher Publisher // nil disables streaming
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline. publisher may be nil.
func New(f Fetcher, st Store, a Analyzer, sink ReportSink, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:   f,
		store:     st,
		analyzer:  a,
		sink:      sink,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes one monitoring pass over sites and writes the report. The
// returned report mirrors what was persisted. An error is returned only for
// unrecoverable local failures (report write) or context cancellation.
func (p *Pipeline) Run(ctx context.Context, sites []domain.Site, dr domain.DateRange) (domain.Report, error) {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	if err := dr.Validate(); err != nil {
		return domain.Report{}, err
	}

	results := make(map[string]domain.AnalysisResult, len(sites))
	mode := domain.ModeReal

	for _, site := range sites {
		if ctx.Err() != nil {
			return domain.Report{}, ctx.Err()
		}

		res, err := p.processSite(ctx, site, dr)
		if err != nil {
			if ctx.Err() != nil {
				return domain.Report{}, ctx.Err()
			}
			p.metrics.SitesFailed.Inc()
			p.logger.Error("site failed, continuing with remaining sites",
				"site", site.ID, "error", err)
			continue
		}

		if res.mode == domain.ModeSimulated {
			mode = domain.ModeSimulated
		}
		results[site.ID] = res.analysis
		p.metrics.SitesProcessed.Inc()
	}

	// An empty run has nothing authentic in it.
	if len(results) == 0 {
		mode = domain.ModeSimulated
	}

	rep := report.Aggregate(results, mode)
	if err := p.sink.Write(rep); err != nil {
		return domain.Report{}, fmt.Errorf("persist report: %w", err)
	}

	p.logger.Info("run complete",
		"sites", len(results),
		"source_mode", rep.SourceMode,
		"generated_at", rep.GeneratedAt)

	return rep, nil
}

type siteResult struct {
	analysis domain.AnalysisResult
	mode     domain.SourceMode
}

// processSite runs fetch → persist → analyze for one site.
func (p *Pipeline) processSite(ctx context.Context, site domain.Site, dr domain.DateRange) (siteResult, error) {
	if err := site.Validate(); err != nil {
		return siteResult{}, fmt.Errorf("invalid site descriptor: %w", err)
	}

	fetchStart := time.Now()
	res, err := p.fetcher.Fetch(ctx, site, dr)
	if err != nil {
		return siteResult{}, fmt.Errorf("fetch: %w", err)
	}
	p.metrics.FetchDuration.Observe(time.Since(fetchStart).Seconds())
	p.metrics.ObservationsIngested.Add(float64(len(res.Series.Observations)))

	if err := p.store.SaveSeries(ctx, res.Series); err != nil {
		return siteResult{}, fmt.Errorf("persist series: %w", err)
	}

	if p.publisher != nil {
		// Streaming is best effort; downstream consumers catch up from the store.
		if err := p.publisher.PublishSeries(ctx, res.Series); err != nil {
			p.logger.Warn("publish observations failed", "site", site.ID, "error", err)
		}
	}

	stored, err := p.store.GetSeries(ctx, site.ID)
	if err != nil {
		return siteResult{}, fmt.Errorf("load series: %w", err)
	}

	analysisStart := time.Now()
	analysis := p.analyzer.Analyze(stored)
	p.metrics.AnalysisDuration.Observe(time.Since(analysisStart).Seconds())
	p.metrics.AnomaliesFlagged.Add(float64(len(analysis.Anomalies)))

	analysis.DroppedObservations = res.Dropped

	p.logger.Info("site analyzed",
		"site", site.ID,
		"mode", res.Mode,
		"observations", analysis.ObservationCount,
		"dropped", res.Dropped,
		"mean_elevation_m", analysis.MeanElevationM,
		"trend_slope_m_per_day", analysis.TrendSlopeMPerDay,
		"anomalies", len(analysis.Anomalies))

	return siteResult{analysis: analysis, mode: res.Mode}, nil
}
