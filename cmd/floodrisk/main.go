// Command floodrisk runs one flood-risk batch: it scores the requested days
// of rainfall against the tide table and folds the results into the
// historical dataset.
//
// Usage:
//
//	floodrisk                       # today in America/Recife
//	floodrisk -date 2025-06-01 -date 2025-06-02
//	floodrisk -from 2025-06-01 -to 2025-06-30
//	floodrisk -all                  # every table in RAINFALL_DIR
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/couchcryptid/flood-risk-etl/internal/adapter/history"
	httpadapter "github.com/couchcryptid/flood-risk-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flood-risk-etl/internal/adapter/kafka"
	"github.com/couchcryptid/flood-risk-etl/internal/adapter/source"
	"github.com/couchcryptid/flood-risk-etl/internal/config"
	"github.com/couchcryptid/flood-risk-etl/internal/observability"
	"github.com/couchcryptid/flood-risk-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var sel daySelection
	flag.Var(&sel.dates, "date", "day to process, YYYY-MM-DD (repeatable)")
	flag.StringVar(&sel.from, "from", "", "first day of a range, YYYY-MM-DD")
	flag.StringVar(&sel.to, "to", "", "last day of a range, YYYY-MM-DD (default today)")
	flag.BoolVar(&sel.all, "all", false, "process every rainfall table present in RAINFALL_DIR")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if err := run(cfg, sel, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, sel daySelection, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc := cfg.Settings.Location
	opener := source.NewOpener(cfg.HTTPTimeout)
	rainfall := source.NewRainfallDir(opener, cfg.RainfallDir, cfg.RainfallPattern, cfg.RainfallDelimiter, loc, logger)
	tide := source.NewTideTable(opener, cfg.TideSource, cfg.TideFormat, loc, logger)

	days, err := sel.resolve(rainfall.Days, loc)
	if err != nil {
		return fmt.Errorf("resolve days: %w", err)
	}

	repo, closeRepo, err := openHistory(ctx, cfg, opener, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	var publisher pipeline.Publisher
	if cfg.PublishEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	metrics := observability.NewMetrics()
	transformer := pipeline.NewTransformer(cfg.Settings, cfg.ParallelStations, logger)
	p := pipeline.New(tide, rainfall, transformer, repo, publisher, logger, metrics)

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, prometheus.DefaultGatherer, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	report, err := p.Run(ctx, days)
	if err != nil {
		return err
	}
	logger.Info("run complete",
		"days", len(report.Days),
		"skipped", len(report.Skipped),
		"records", report.Incoming,
		"rows_written", report.Written,
		"no_op", report.NoOp,
	)
	return nil
}

// openHistory builds the history repository selected by HISTORY_BACKEND. The
// returned func releases its resources.
func openHistory(ctx context.Context, cfg *config.Config, opener *source.Opener, logger *slog.Logger) (pipeline.HistoryRepository, func(), error) {
	switch cfg.HistoryBackend {
	case config.BackendHTTP:
		out := history.NewFileRepository(cfg.HistoryPath, logger)
		return history.NewHTTPRepository(cfg.HistoryURL, opener, out, logger), func() {}, nil
	case config.BackendPostgres:
		pool, err := history.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres history: %w", err)
		}
		return history.NewPostgresRepository(pool, logger), pool.Close, nil
	case config.BackendSQLite:
		db, err := history.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite history: %w", err)
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				logger.Error("sqlite close error", "error", err)
			}
		}
		return history.NewSQLiteRepository(db, logger), closeDB, nil
	default:
		return history.NewFileRepository(cfg.HistoryPath, logger), func() {}, nil
	}
}
