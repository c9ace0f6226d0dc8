// Package csvtable decodes and encodes the CSV tables exchanged with the
// upstream fetchers and the dashboard: daily rainfall, the yearly tide table
// and the risk history.
package csvtable

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// header maps column names to their index in a CSV header row.
type header map[string]int

func newHeader(row []string) header {
	h := make(header, len(row))
	for i, name := range row {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

// find returns the index of the first alias present in the header.
func (h header) find(aliases ...string) (int, bool) {
	for _, a := range aliases {
		if i, ok := h[a]; ok {
			return i, true
		}
	}
	return 0, false
}

// require is find for mandatory columns.
func (h header) require(aliases ...string) (int, error) {
	if i, ok := h.find(aliases...); ok {
		return i, nil
	}
	return 0, fmt.Errorf("missing column %s", strings.Join(aliases, "|"))
}

// field returns row[i] trimmed, or "" when the row is short.
func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func newReader(r io.Reader, delim rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return cr
}

// Naive layouts are interpreted as civil time in the configured zone.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a table timestamp. Values carrying an explicit offset
// keep it; naive values are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05Z07:00", s); err == nil {
		return t, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// parseNumber parses a decimal, accepting a decimal comma when commaDecimal
// is set.
func parseNumber(s string, commaDecimal bool) (float64, error) {
	if commaDecimal {
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

func newWriter(w io.Writer) *csv.Writer {
	return csv.NewWriter(w)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatDecimal(v float64, commaDecimal bool) string {
	s := formatNumber(v)
	if commaDecimal {
		return strings.Replace(s, ".", ",", 1)
	}
	return s
}
