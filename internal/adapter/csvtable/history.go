package csvtable

import (
	"errors"
	"fmt"
	"io"

	"github.com/couchcryptid/flood-risk-etl/internal/domain"
)

// HistoryColumns is the column order of the history table read by the dashboard.
var HistoryColumns = []string{
	"data",
	"hora_ref",
	"nomeEstacao",
	"VP",
	"AM",
	"Nivel_Risco_Valor",
	"Classificacao_Risco",
}

// historyReadAliases lists extra header names accepted when reading.
var historyReadAliases = map[string][]string{
	"data": {"date"},
}

// WriteHistory encodes records with a header row. Missing VP or AM values are
// written as empty cells.
func WriteHistory(w io.Writer, records []domain.RiskRecord) error {
	cw := newWriter(w)
	if err := cw.Write(HistoryColumns); err != nil {
		return fmt.Errorf("write history header: %w", err)
	}
	row := make([]string, len(HistoryColumns))
	for _, rec := range records {
		row[0] = rec.Date
		row[1] = rec.HourRef()
		row[2] = rec.StationID
		row[3] = optionalNumber(rec.VP)
		row[4] = optionalNumber(rec.AM)
		row[5] = formatNumber(rec.RiskValue)
		row[6] = rec.Band
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write history row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush history: %w", err)
	}
	return nil
}

// ReadHistory decodes a history table. Extra columns are ignored; an empty
// input is an empty dataset.
func ReadHistory(r io.Reader) ([]domain.RiskRecord, error) {
	cr := newReader(r, ',')
	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history header: %w", err)
	}

	h := newHeader(head)
	cols := make([]int, len(HistoryColumns))
	for i, name := range HistoryColumns {
		if cols[i], err = h.require(append([]string{name}, historyReadAliases[name]...)...); err != nil {
			return nil, fmt.Errorf("read history header: %w", err)
		}
	}

	var records []domain.RiskRecord
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read history row %d: %w", row, err)
		}
		out, err := decodeHistoryRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("parse history row %d: %w", row, err)
		}
		records = append(records, out)
	}
	return records, nil
}

func decodeHistoryRow(rec []string, cols []int) (domain.RiskRecord, error) {
	date := field(rec, cols[0])
	if err := domain.ValidateDate(date); err != nil {
		return domain.RiskRecord{}, err
	}
	hour, err := domain.ParseHourRef(field(rec, cols[1]))
	if err != nil {
		return domain.RiskRecord{}, err
	}
	vp, err := parseOptional(field(rec, cols[3]))
	if err != nil {
		return domain.RiskRecord{}, fmt.Errorf("column VP: %w", err)
	}
	am, err := parseOptional(field(rec, cols[4]))
	if err != nil {
		return domain.RiskRecord{}, fmt.Errorf("column AM: %w", err)
	}
	var risk float64
	if raw := field(rec, cols[5]); raw != "" {
		if risk, err = parseNumber(raw, false); err != nil {
			return domain.RiskRecord{}, fmt.Errorf("column Nivel_Risco_Valor: %w", err)
		}
	}
	return domain.RiskRecord{
		Date:      date,
		Hour:      hour,
		StationID: field(rec, cols[2]),
		VP:        vp,
		AM:        am,
		RiskValue: risk,
		Band:      field(rec, cols[6]),
	}, nil
}

func optionalNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return formatNumber(*v)
}

// parseOptional treats empty cells and pandas' "nan" as missing.
func parseOptional(s string) (*float64, error) {
	switch s {
	case "", "nan", "NaN":
		return nil, nil
	}
	v, err := parseNumber(s, false)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
