// Command gensample writes synthetic rainfall and tide tables for local runs
// and demos. Output is deterministic for a given seed.
//
// Usage:
//
//	go run ./cmd/gensample -out data/sample -from 2025-06-01 -days 3
//
// Then point the runner at the output:
//
//	RAINFALL_DIR=data/sample TIDE_SOURCE=data/sample/tide.csv \
//	  go run ./cmd/floodrisk -from 2025-06-01 -to 2025-06-03
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/flood-risk-etl/internal/adapter/csvtable"
	"github.com/couchcryptid/flood-risk-etl/internal/domain"
)

// Semidiurnal tide parameters for the Recife coast.
const (
	tidePeriod    = 12*time.Hour + 25*time.Minute
	tideMean      = 1.25
	tideAmplitude = 1.05
)

type options struct {
	out        string
	from       string
	days       int
	seed       uint64
	pattern    string
	tideFormat csvtable.TideFormat
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var opts options
	var format string
	flag.StringVar(&opts.out, "out", "data/sample", "output directory")
	flag.StringVar(&opts.from, "from", "2025-06-01", "first day to generate, YYYY-MM-DD")
	flag.IntVar(&opts.days, "days", 3, "number of consecutive days")
	flag.Uint64Var(&opts.seed, "seed", 1, "random seed")
	flag.StringVar(&opts.pattern, "pattern", "chuva_recife_%s.csv", "rainfall file name pattern")
	flag.StringVar(&format, "tide-format", string(csvtable.TideLegacy), "tide table dialect: legacy or semicolon")
	flag.Parse()

	tideFormat, err := csvtable.ParseTideFormat(format)
	if err != nil {
		return err
	}
	opts.tideFormat = tideFormat
	if opts.days < 1 {
		return fmt.Errorf("-days must be at least 1")
	}

	if err := domain.ValidateDate(opts.from); err != nil {
		return err
	}
	start, _ := time.Parse(domain.DateLayout, opts.from)
	days := make([]string, opts.days)
	for i := range days {
		days[i] = start.AddDate(0, 0, i).Format(domain.DateLayout)
	}

	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	settings := domain.DefaultSettings()
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))

	total := 0
	for _, day := range days {
		events := rainfallDay(rng, day, settings)
		path := filepath.Join(opts.out, fmt.Sprintf(opts.pattern, day))
		if err := writeFile(path, func(f *os.File) error {
			return csvtable.WriteRainfall(f, events, ',', settings.Location)
		}); err != nil {
			return err
		}
		total += len(events)
		log.Printf("%s: %d rainfall events", path, len(events))
	}

	readings := tideReadings(days, settings.Location)
	tidePath := filepath.Join(opts.out, "tide.csv")
	if err := writeFile(tidePath, func(f *os.File) error {
		return csvtable.WriteTide(f, readings, opts.tideFormat, settings.Location)
	}); err != nil {
		return err
	}
	log.Printf("%s: %d tide readings", tidePath, len(readings))
	log.Printf("total: %d rainfall events over %d days", total, len(days))
	return nil
}

// rainfallDay emits one reading every 10 minutes per station. Most readings
// are dry; a few showers per day produce exponentially distributed totals.
func rainfallDay(rng *rand.Rand, day string, settings domain.Settings) []domain.RainfallEvent {
	midnight, _ := time.ParseInLocation(domain.DateLayout, day, settings.Location)

	var events []domain.RainfallEvent
	for _, station := range settings.Stations {
		showers := showerWindows(rng)
		for slot := 0; slot < 24*6; slot++ {
			at := midnight.Add(time.Duration(slot) * 10 * time.Minute)
			value := 0.0
			if inShower(showers, slot) {
				value = math.Round(rng.ExpFloat64()*2.5*100) / 100
			}
			events = append(events, domain.RainfallEvent{StationID: station, Time: at, Value: value})
		}
	}
	return events
}

type window struct{ from, to int }

func showerWindows(rng *rand.Rand) []window {
	n := rng.IntN(4)
	out := make([]window, 0, n)
	for range n {
		from := rng.IntN(24 * 6)
		out = append(out, window{from: from, to: from + 2 + rng.IntN(10)})
	}
	return out
}

func inShower(showers []window, slot int) bool {
	for _, w := range showers {
		if slot >= w.from && slot < w.to {
			return true
		}
	}
	return false
}

// tideReadings covers every hour of the generated days, plus one day on
// each side.
func tideReadings(days []string, loc *time.Location) []domain.TideReading {
	first, _ := time.ParseInLocation(domain.DateLayout, days[0], loc)
	first = first.AddDate(0, 0, -1)
	hours := (len(days) + 2) * 24

	readings := make([]domain.TideReading, 0, hours)
	for h := 0; h < hours; h++ {
		at := first.Add(time.Duration(h) * time.Hour)
		phase := 2 * math.Pi * float64(at.Unix()%int64(tidePeriod.Seconds())) / tidePeriod.Seconds()
		height := math.Round((tideMean+tideAmplitude*math.Cos(phase))*100) / 100
		readings = append(readings, domain.TideReading{Time: at, Height: height})
	}
	return readings
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
