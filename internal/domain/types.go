package domain

import "time"

// RainfallEvent is a single rain gauge reading as delivered by the upstream
// fetcher. Events are irregular in time and a station may report several per
// minute.
type RainfallEvent struct {
	StationID string
	Time      time.Time
	Value     float64 // measured rainfall in mm
}

// TideReading is a normalized tide-height observation. Tide is shared by all
// stations.
type TideReading struct {
	Time   time.Time
	Height float64 // metres
}

// HourlyIndicator is the hourly rainfall-intensity indicator (VP) for one
// station. VP is unrounded at this stage.
type HourlyIndicator struct {
	Key       HourKey
	StationID string
	VP        float64
}

// RiskRecord is the unit of storage and deduplication of the historical
// dataset. VP and AM are nil when the value is missing (AM has no tide entry
// for the hour); RiskValue is always present.
type RiskRecord struct {
	Date      string
	Hour      int
	StationID string
	VP        *float64
	AM        *float64
	RiskValue float64
	Band      string
}

// HourRef formats the record hour the way the dashboard expects it ("09:00:00").
func (r RiskRecord) HourRef() string {
	return HourKey{Date: r.Date, Hour: r.Hour}.HourRef()
}

// Key returns the record's primary key.
func (r RiskRecord) Key() PrimaryKey {
	return PrimaryKey{Date: r.Date, Hour: r.Hour, StationID: r.StationID}
}

// PrimaryKey uniquely identifies a RiskRecord in the historical dataset.
type PrimaryKey struct {
	Date      string
	Hour      int
	StationID string
}

func (k PrimaryKey) String() string {
	return HourKey{Date: k.Date, Hour: k.Hour}.String() + " " + k.StationID
}

// Risk band labels used by the default settings.
const (
	BandLow          = "Baixo"
	BandModerate     = "Moderado"
	BandModerateHigh = "Moderado Alto"
	BandHigh         = "Alto"
)

// Float returns a pointer to v. Handy for building records with optional VP/AM.
func Float(v float64) *float64 {
	return &v
}
