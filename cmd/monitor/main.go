// Command monitor runs one monitoring pass: fetch observations for every
// configured site (falling back to simulated data when Earthdata is
// unavailable), analyze trends, and write the JSON report.
//
// It takes no required arguments and exits 0 whenever a report was written,
// even in simulated mode. A non-zero exit means an unrecoverable local
// failure such as bad configuration or a report that could not be persisted.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/swot-monitor-service/internal/adapter/earthdata"
	httpadapter "github.com/couchcryptid/swot-monitor-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/swot-monitor-service/internal/adapter/kafka"
	"github.com/couchcryptid/swot-monitor-service/internal/adapter/sqlite"
	"github.com/couchcryptid/swot-monitor-service/internal/analysis"
	"github.com/couchcryptid/swot-monitor-service/internal/config"
	"github.com/couchcryptid/swot-monitor-service/internal/domain"
	"github.com/couchcryptid/swot-monitor-service/internal/observability"
	"github.com/couchcryptid/swot-monitor-service/internal/pipeline"
	"github.com/couchcryptid/swot-monitor-service/internal/report"
	"github.com/couchcryptid/swot-monitor-service/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The real source is wired only when credentials are present; everything
	// else about the real/simulated decision lives in source.New.
	var api source.SeriesAPI
	creds := earthdata.Credentials{
		Username: cfg.EarthdataUsername,
		Password: cfg.EarthdataPassword,
	}
	if creds.Present() {
		api = earthdata.NewClient(creds, cfg.EarthdataBaseURL, cfg.RequestTimeout, logger)
	}

	retry := source.RetryPolicy{
		MaxAttempts: cfg.RetryAttempts,
		Initial:     cfg.RetryBackoff,
		Max:         30 * time.Second,
	}
	src := source.New(api, creds.Present(), retry, clockwork.NewRealClock(), logger, metrics)

	store, err := sqlite.New(cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}()

	var publisher pipeline.Publisher
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("observation streaming enabled", "topic", cfg.KafkaTopic)
	}

	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	now := time.Now().UTC()
	dr := domain.DateRange{
		Start: now.AddDate(0, 0, -cfg.LookbackDays),
		End:   now,
	}

	analyzer := analysis.New(cfg.AnomalyThresholdSigma)
	sink := report.NewFileWriter(cfg.ReportPath)

	p := pipeline.New(src, store, analyzer, sink, publisher, logger, metrics)

	rep, err := p.Run(ctx, cfg.Sites, dr)
	if err != nil {
		return err
	}

	logger.Info("report written",
		"path", cfg.ReportPath,
		"sites", len(rep.Results),
		"source_mode", rep.SourceMode)
	return nil
}
