package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/flood-risk-etl/internal/adapter/csvtable"
	"github.com/couchcryptid/flood-risk-etl/internal/domain"
)

// TideTable loads the yearly tide table from a file or URL.
// It implements pipeline.TideSource.
type TideTable struct {
	opener   *Opener
	location string
	format   csvtable.TideFormat
	loc      *time.Location
	logger   *slog.Logger
}

// NewTideTable creates a tide source for the given location and dialect.
func NewTideTable(opener *Opener, location string, format csvtable.TideFormat, loc *time.Location, logger *slog.Logger) *TideTable {
	return &TideTable{
		opener:   opener,
		location: location,
		format:   format,
		loc:      loc,
		logger:   logger,
	}
}

// Tide reads the whole table and indexes it by hour. Any failure wraps
// domain.ErrDataSource.
func (t *TideTable) Tide(ctx context.Context) (domain.TideIndex, error) {
	rc, err := t.opener.Open(ctx, t.location)
	if err != nil {
		return domain.TideIndex{}, fmt.Errorf("load tide: %w: %w", domain.ErrDataSource, err)
	}
	defer rc.Close()

	readings, err := csvtable.ReadTide(rc, t.format, t.loc)
	if err != nil {
		return domain.TideIndex{}, fmt.Errorf("load tide %s: %w", t.location, err)
	}

	idx := domain.NewTideIndex(readings, t.loc)
	t.logger.Debug("tide table loaded", "source", t.location, "readings", len(readings), "hours", idx.Len())
	return idx, nil
}
