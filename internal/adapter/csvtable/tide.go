package csvtable

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/couchcryptid/flood-risk-etl/internal/domain"
)

// TideFormat selects the dialect of the tide table. It is configured, never
// sniffed from the data.
type TideFormat string

const (
	// TideLegacy is the comma-delimited table with a decimal point.
	TideLegacy TideFormat = "legacy"
	// TideSemicolon is the spreadsheet export: ';' delimiter, decimal comma.
	TideSemicolon TideFormat = "semicolon"
)

// ParseTideFormat validates a configured format name.
func ParseTideFormat(s string) (TideFormat, error) {
	switch f := TideFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case TideLegacy, TideSemicolon:
		return f, nil
	default:
		return "", fmt.Errorf("unknown tide format %q (want legacy or semicolon)", s)
	}
}

func (f TideFormat) delimiter() rune {
	if f == TideSemicolon {
		return ';'
	}
	return ','
}

var (
	tideTimeColumns   = []string{"datahora", "data_hora", "timestamp"}
	tideHeightColumns = []string{"altura", "height", "AM"}
	conflictMarkers   = []string{"<<<<", "====", ">>>>"}
)

// ReadTide decodes the tide table. Lines left behind by unresolved merge
// conflicts are dropped before parsing. Rows with an empty height are
// skipped; any other malformed row fails the whole table with
// domain.ErrDataSource.
func ReadTide(r io.Reader, format TideFormat, loc *time.Location) ([]domain.TideReading, error) {
	cleaned, err := stripConflictMarkers(r)
	if err != nil {
		return nil, fmt.Errorf("read tide table: %w: %w", domain.ErrDataSource, err)
	}

	cr := newReader(strings.NewReader(cleaned), format.delimiter())
	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read tide table: %w: empty table", domain.ErrDataSource)
	}
	if err != nil {
		return nil, fmt.Errorf("read tide header: %w: %w", domain.ErrDataSource, err)
	}
	h := newHeader(head)
	timeCol, err := h.require(tideTimeColumns...)
	if err != nil {
		return nil, fmt.Errorf("read tide header: %w: %w", domain.ErrDataSource, err)
	}
	heightCol, err := h.require(tideHeightColumns...)
	if err != nil {
		return nil, fmt.Errorf("read tide header: %w: %w", domain.ErrDataSource, err)
	}

	var readings []domain.TideReading
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tide row %d: %w: %w", row, domain.ErrDataSource, err)
		}

		raw := field(rec, heightCol)
		if raw == "" {
			continue
		}
		ts, err := ParseTimestamp(field(rec, timeCol), loc)
		if err != nil {
			return nil, fmt.Errorf("parse tide row %d: %w: %w", row, domain.ErrDataSource, err)
		}
		height, err := parseNumber(raw, format == TideSemicolon)
		if err != nil {
			return nil, fmt.Errorf("parse tide row %d: %w: %w", row, domain.ErrDataSource, err)
		}
		readings = append(readings, domain.TideReading{Time: ts, Height: height})
	}
	return readings, nil
}

func stripConflictMarkers(r io.Reader) (string, error) {
	var b strings.Builder
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if hasConflictMarker(line) {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), sc.Err()
}

func hasConflictMarker(line string) bool {
	for _, m := range conflictMarkers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

// WriteTide encodes readings in the given dialect with timestamps in loc.
func WriteTide(w io.Writer, readings []domain.TideReading, format TideFormat, loc *time.Location) error {
	cw := newWriter(w)
	cw.Comma = format.delimiter()
	if err := cw.Write([]string{tideTimeColumns[0], tideHeightColumns[0]}); err != nil {
		return fmt.Errorf("write tide header: %w", err)
	}
	for _, r := range readings {
		row := []string{r.Time.In(loc).Format(timestampLayouts[0]), formatDecimal(r.Height, format == TideSemicolon)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write tide row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush tide: %w", err)
	}
	return nil
}
