package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// DefaultStations are the Recife monitoring stations scored by default.
var DefaultStations = []string{
	"Campina do Barreto",
	"Torreão",
	"RECIFE - APAC",
	"Imbiribeira",
	"Dois Irmãos",
}

// DefaultTimezone is the civil time zone used for day and hour boundaries.
const DefaultTimezone = "America/Recife"

// Settings configures the risk engine. It is passed explicitly so tests can
// vary stations, windows and bands without touching package state.
type Settings struct {
	Stations []string
	Location *time.Location

	// ShortWindow and LongWindow are the trailing rolling-sum windows that
	// feed VP = ShortWindowFactor*short + long.
	ShortWindow       time.Duration
	LongWindow        time.Duration
	ShortWindowFactor float64

	// Thresholds are ascending band edges; Labels has one more entry than
	// Thresholds. A value equal to an edge belongs to the upper band.
	Thresholds []float64
	Labels     []string
}

// DefaultSettings returns the reference configuration: five Recife stations,
// 10 minute and 2 hour windows, and the 30/50/100 bands.
func DefaultSettings() Settings {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		// Without tzdata fall back to Recife's fixed offset (no DST since 2000).
		loc = time.FixedZone("-03", -3*60*60)
	}
	return Settings{
		Stations:          slices.Clone(DefaultStations),
		Location:          loc,
		ShortWindow:       10 * time.Minute,
		LongWindow:        2 * time.Hour,
		ShortWindowFactor: 6,
		Thresholds:        []float64{30, 50, 100},
		Labels:            []string{BandLow, BandModerate, BandModerateHigh, BandHigh},
	}
}

// Validate checks that the settings are usable by the engine.
func (s Settings) Validate() error {
	if len(s.Stations) == 0 {
		return errors.New("at least one station is required")
	}
	if s.Location == nil {
		return errors.New("time zone is required")
	}
	if s.ShortWindow <= 0 || s.LongWindow <= 0 {
		return errors.New("rolling windows must be positive")
	}
	if len(s.Labels) != len(s.Thresholds)+1 {
		return fmt.Errorf("need %d band labels for %d thresholds, got %d",
			len(s.Thresholds)+1, len(s.Thresholds), len(s.Labels))
	}
	for i := 1; i < len(s.Thresholds); i++ {
		if s.Thresholds[i] <= s.Thresholds[i-1] {
			return fmt.Errorf("band thresholds must be strictly ascending: %v", s.Thresholds)
		}
	}
	return nil
}

// Classify maps a risk value to its band using right-open intervals:
// (-inf, t0) -> Labels[0], [t0, t1) -> Labels[1], ..., [tn, +inf) -> Labels[n].
func (s Settings) Classify(risk float64) string {
	band := 0
	for _, edge := range s.Thresholds {
		if risk >= edge {
			band++
		}
	}
	return s.Labels[band]
}

func (s Settings) includes(station string) bool {
	return slices.Contains(s.Stations, station)
}
