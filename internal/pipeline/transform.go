package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/flood-risk-etl/internal/domain"
)

// RiskTransformer implements Transformer with the domain engine: hourly VP
// aggregation followed by the tide join and scoring.
type RiskTransformer struct {
	settings domain.Settings
	parallel bool
	logger   *slog.Logger
}

// NewTransformer creates a RiskTransformer. With parallel set, stations are
// aggregated concurrently; the output is identical either way.
func NewTransformer(settings domain.Settings, parallel bool, logger *slog.Logger) *RiskTransformer {
	return &RiskTransformer{
		settings: settings,
		parallel: parallel,
		logger:   logger,
	}
}

func (t *RiskTransformer) Transform(ctx context.Context, day string, events []domain.RainfallEvent, tide domain.TideIndex) ([]domain.RiskRecord, error) {
	var rows []domain.HourlyIndicator
	if t.parallel {
		var err error
		rows, err = domain.AggregateParallel(ctx, events, day, t.settings)
		if err != nil {
			return nil, fmt.Errorf("aggregate %s: %w", day, err)
		}
	} else {
		rows = domain.Aggregate(events, day, t.settings)
	}

	records := domain.Score(rows, tide, t.settings)

	missingTide := 0
	for _, rec := range records {
		if rec.AM == nil {
			missingTide++
		}
	}
	if missingTide > 0 {
		t.logger.Warn("hours without tide height scored with zero risk", "day", day, "records", missingTide)
	}
	t.logger.Debug("day scored", "day", day, "events", len(events), "hours", len(rows))
	return records, nil
}
