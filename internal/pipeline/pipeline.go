package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/flood-risk-etl/internal/domain"
	"github.com/couchcryptid/flood-risk-etl/internal/observability"
)

// TideSource loads the tide table once per run.
type TideSource interface {
	Tide(ctx context.Context) (domain.TideIndex, error)
}

// RainfallSource reads the rainfall events recorded on one calendar day.
type RainfallSource interface {
	Rainfall(ctx context.Context, day string) ([]domain.RainfallEvent, error)
}

// Transformer converts one day's rainfall events into scored risk records.
type Transformer interface {
	Transform(ctx context.Context, day string, events []domain.RainfallEvent, tide domain.TideIndex) ([]domain.RiskRecord, error)
}

// HistoryRepository reads and replaces the historical dataset. Get returns
// domain.ErrHistoryNotFound when no dataset exists yet.
type HistoryRepository interface {
	Get(ctx context.Context) ([]domain.RiskRecord, error)
	Put(ctx context.Context, records []domain.RiskRecord) error
}

// Publisher forwards a run's freshly computed records downstream.
type Publisher interface {
	Publish(ctx context.Context, records []domain.RiskRecord) error
}

// Report summarizes a run.
type Report struct {
	Days     []string     `json:"days"`
	Skipped  []SkippedDay `json:"skipped,omitempty"`
	Incoming int          `json:"incoming"`
	Written  int          `json:"written"`
	NoOp     bool         `json:"no_op"`
}

// SkippedDay is a day left out of a multi-day run.
type SkippedDay struct {
	Day    string `json:"day"`
	Reason string `json:"reason"`
}

// Pipeline orchestrates one batch run: per-day extract and transform, then a
// single merge into history and an optional publish.
type Pipeline struct {
	tide        TideSource
	rainfall    RainfallSource
	transformer Transformer
	history     HistoryRepository
	publisher   Publisher
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	last        atomic.Pointer[Report]
}

// New creates a Pipeline with the given stages and observability. A nil
// publisher disables publishing.
func New(tide TideSource, rainfall RainfallSource, t Transformer, history HistoryRepository, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		tide:        tide,
		rainfall:    rainfall,
		transformer: t,
		history:     history,
		publisher:   publisher,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no run has completed successfully yet")
	}
	return nil
}

// LastReport returns the report of the last successful run, or nil.
func (p *Pipeline) LastReport() any {
	if r := p.last.Load(); r != nil {
		return *r
	}
	return nil
}

// Run processes the given days and folds the results into history.
//
// Tide problems are fatal. A day whose rainfall table is missing or
// malformed fails a single-day run; in a multi-day run it is skipped and the
// run fails only if every day was skipped. A run that yields no records
// leaves history untouched. Failing to read an existing history or to write
// the merged one is fatal; a failed publish is logged and counted.
func (p *Pipeline) Run(ctx context.Context, days []string) (Report, error) {
	report := Report{Days: days}
	if len(days) == 0 {
		return report, errors.New("no days requested")
	}

	start := time.Now()
	p.logger.Info("pipeline started", "days", len(days), "first", days[0], "last", days[len(days)-1])
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	tide, err := p.tide.Tide(ctx)
	if err != nil {
		return report, fmt.Errorf("load tide: %w", err)
	}
	if tide.Len() == 0 {
		return report, fmt.Errorf("load tide: %w: table has no readings", domain.ErrDataSource)
	}

	incoming, err := p.processDays(ctx, days, tide, &report)
	if err != nil {
		return report, err
	}
	report.Incoming = len(incoming)

	if len(incoming) == 0 {
		report.NoOp = true
		p.logger.Warn("no risk records produced, history left untouched", "days", len(days))
		p.succeed(report, start)
		return report, nil
	}

	written, err := p.mergeIntoHistory(ctx, incoming)
	if err != nil {
		return report, err
	}
	report.Written = written

	p.publish(ctx, incoming)
	p.succeed(report, start)
	p.logger.Info("pipeline finished",
		"incoming", report.Incoming,
		"rows_written", report.Written,
		"skipped_days", len(report.Skipped),
		"duration", time.Since(start),
	)
	return report, nil
}

// processDays extracts and transforms each day in order.
func (p *Pipeline) processDays(ctx context.Context, days []string, tide domain.TideIndex, report *Report) ([]domain.RiskRecord, error) {
	var (
		incoming []domain.RiskRecord
		failures []error
	)
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := p.processDay(ctx, day, tide)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if len(days) == 1 {
				return nil, err
			}
			reason := skipReason(err)
			p.logger.Warn("day skipped", "day", day, "reason", reason, "error", err)
			p.metrics.DaysSkipped.WithLabelValues(reason).Inc()
			report.Skipped = append(report.Skipped, SkippedDay{Day: day, Reason: reason})
			failures = append(failures, err)
			continue
		}

		p.metrics.DaysProcessed.Inc()
		for _, rec := range records {
			p.metrics.RecordsScored.WithLabelValues(rec.Band).Inc()
		}
		incoming = append(incoming, records...)
	}

	if len(failures) == len(days) {
		return nil, fmt.Errorf("every requested day failed: %w", errors.Join(failures...))
	}
	return incoming, nil
}

func (p *Pipeline) processDay(ctx context.Context, day string, tide domain.TideIndex) ([]domain.RiskRecord, error) {
	events, err := p.rainfall.Rainfall(ctx, day)
	if err != nil {
		return nil, asDayError(err)
	}
	p.metrics.RainfallEvents.Add(float64(len(events)))

	records, err := p.transformer.Transform(ctx, day, events, tide)
	if err != nil {
		return nil, asDayError(err)
	}
	return records, nil
}

// mergeIntoHistory returns the size of the written dataset.
func (p *Pipeline) mergeIntoHistory(ctx context.Context, incoming []domain.RiskRecord) (int, error) {
	existing, err := p.history.Get(ctx)
	switch {
	case errors.Is(err, domain.ErrHistoryNotFound):
		p.logger.Warn("no existing history, a new dataset will be created", "error", err)
		p.metrics.HistoryLoadOutcome.WithLabelValues("not_found").Inc()
		existing = nil
	case err != nil:
		p.metrics.HistoryLoadOutcome.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("load history: %w", err)
	default:
		p.metrics.HistoryLoadOutcome.WithLabelValues("loaded").Inc()
		p.logger.Info("existing history loaded", "rows", len(existing))
	}

	merged := domain.Merge(existing, incoming)
	if err := p.history.Put(ctx, merged); err != nil {
		return 0, fmt.Errorf("store history: %w", err)
	}
	p.metrics.HistoryRows.Set(float64(len(merged)))
	return len(merged), nil
}

func (p *Pipeline) publish(ctx context.Context, records []domain.RiskRecord) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, records); err != nil {
		p.logger.Error("publish failed, history already written", "error", err, "records", len(records))
		p.metrics.PublishErrors.Inc()
		return
	}
	p.metrics.RecordsPublished.Add(float64(len(records)))
}

func (p *Pipeline) succeed(report Report, start time.Time) {
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.metrics.LastSuccessTime.Set(float64(domain.Now().Unix()))
	p.last.Store(&report)
	p.ready.Store(true)
}

// asDayError makes sure a per-day failure carries one of the day sentinels.
func asDayError(err error) error {
	if errors.Is(err, domain.ErrMissingInput) || errors.Is(err, domain.ErrRowProcessing) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrRowProcessing, err)
}

func skipReason(err error) string {
	if errors.Is(err, domain.ErrMissingInput) {
		return "missing_input"
	}
	return "row_processing"
}
