package csvtable

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/couchcryptid/flood-risk-etl/internal/domain"
)

var (
	rainStationColumns = []string{"nomeEstacao", "nome"}
	rainTimeColumns    = []string{"datahora"}
	rainValueColumns   = []string{"valorMedida", "valor"}
)

// ReadRainfall decodes one day's rainfall table. Both the fetcher's raw
// column names (nome, valor) and the normalized ones (nomeEstacao,
// valorMedida) are accepted. Rows without a station or a measured value are
// skipped. Failures wrap domain.ErrRowProcessing.
func ReadRainfall(r io.Reader, delim rune, loc *time.Location) ([]domain.RainfallEvent, error) {
	cr := newReader(r, delim)
	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rainfall header: %w: %w", domain.ErrRowProcessing, err)
	}

	h := newHeader(head)
	stationCol, err := h.require(rainStationColumns...)
	if err != nil {
		return nil, fmt.Errorf("read rainfall header: %w: %w", domain.ErrRowProcessing, err)
	}
	timeCol, err := h.require(rainTimeColumns...)
	if err != nil {
		return nil, fmt.Errorf("read rainfall header: %w: %w", domain.ErrRowProcessing, err)
	}
	valueCol, err := h.require(rainValueColumns...)
	if err != nil {
		return nil, fmt.Errorf("read rainfall header: %w: %w", domain.ErrRowProcessing, err)
	}

	var events []domain.RainfallEvent
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read rainfall row %d: %w: %w", row, domain.ErrRowProcessing, err)
		}

		station := field(rec, stationCol)
		raw := field(rec, valueCol)
		if station == "" || raw == "" {
			continue
		}
		ts, err := ParseTimestamp(field(rec, timeCol), loc)
		if err != nil {
			return nil, fmt.Errorf("parse rainfall row %d: %w: %w", row, domain.ErrRowProcessing, err)
		}
		value, err := parseNumber(raw, delim == ';')
		if err != nil {
			return nil, fmt.Errorf("parse rainfall row %d: %w: %w", row, domain.ErrRowProcessing, err)
		}
		events = append(events, domain.RainfallEvent{StationID: station, Time: ts, Value: value})
	}
	return events, nil
}

// WriteRainfall encodes events with the normalized column names. Timestamps
// are written as civil time in loc.
func WriteRainfall(w io.Writer, events []domain.RainfallEvent, delim rune, loc *time.Location) error {
	cw := newWriter(w)
	cw.Comma = delim
	if err := cw.Write([]string{rainStationColumns[0], rainTimeColumns[0], rainValueColumns[0]}); err != nil {
		return fmt.Errorf("write rainfall header: %w", err)
	}
	for _, e := range events {
		row := []string{e.StationID, e.Time.In(loc).Format(timestampLayouts[0]), formatDecimal(e.Value, delim == ';')}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write rainfall row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush rainfall: %w", err)
	}
	return nil
}
