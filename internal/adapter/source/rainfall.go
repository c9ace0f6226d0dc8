package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/flood-risk-etl/internal/adapter/csvtable"
	"github.com/couchcryptid/flood-risk-etl/internal/domain"
)

// RainfallDir reads one rainfall table per day from a directory or URL
// prefix. File names follow pattern, where %s is the YYYY-MM-DD date.
// It implements pipeline.RainfallSource.
type RainfallDir struct {
	opener    *Opener
	dir       string
	pattern   string
	delimiter rune
	loc       *time.Location
	logger    *slog.Logger
}

// NewRainfallDir creates a rainfall source rooted at dir.
func NewRainfallDir(opener *Opener, dir, pattern string, delimiter rune, loc *time.Location, logger *slog.Logger) *RainfallDir {
	return &RainfallDir{
		opener:    opener,
		dir:       dir,
		pattern:   pattern,
		delimiter: delimiter,
		loc:       loc,
		logger:    logger,
	}
}

// Location returns where the table for day is expected.
func (d *RainfallDir) Location(day string) string {
	name := fmt.Sprintf(d.pattern, day)
	if IsRemote(d.dir) {
		u, err := url.JoinPath(d.dir, name)
		if err != nil {
			return strings.TrimSuffix(d.dir, "/") + "/" + name
		}
		return u
	}
	return filepath.Join(d.dir, name)
}

// Rainfall returns the events recorded in day's table. A table that does not
// exist wraps domain.ErrMissingInput; unreadable or malformed tables wrap
// domain.ErrRowProcessing.
func (d *RainfallDir) Rainfall(ctx context.Context, day string) ([]domain.RainfallEvent, error) {
	location := d.Location(day)
	rc, err := d.opener.Open(ctx, location)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("rainfall for %s: %w: %s", day, domain.ErrMissingInput, location)
	}
	if err != nil {
		return nil, fmt.Errorf("rainfall for %s: %w: %w", day, domain.ErrRowProcessing, err)
	}
	defer rc.Close()

	events, err := csvtable.ReadRainfall(rc, d.delimiter, d.loc)
	if err != nil {
		return nil, fmt.Errorf("rainfall for %s: %w", day, err)
	}
	d.logger.Debug("rainfall table loaded", "day", day, "source", location, "events", len(events))
	return events, nil
}

// Days lists the dates of every table present in a local directory, oldest
// first.
func (d *RainfallDir) Days() ([]string, error) {
	if IsRemote(d.dir) {
		return nil, errors.New("listing rainfall days requires a local directory")
	}
	prefix, suffix, ok := strings.Cut(d.pattern, "%s")
	if !ok {
		return nil, fmt.Errorf("rainfall pattern %q has no %%s placeholder", d.pattern)
	}

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("list rainfall dir: %w", err)
	}
	var days []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		if len(name) < len(prefix)+len(suffix) {
			continue
		}
		day := name[len(prefix) : len(name)-len(suffix)]
		if domain.ValidateDate(day) != nil {
			continue
		}
		days = append(days, day)
	}
	slices.Sort(days)
	return days, nil
}
