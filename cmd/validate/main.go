// Command validate checks the integrity of a historical risk dataset: unique
// primary keys, newest-first ordering, risk arithmetic and band labels, and
// known stations. With -recompute it also re-scores every day whose rainfall
// table is still available and compares the result with the stored rows.
//
// Engine settings and source locations come from the same environment as
// floodrisk.
//
// Usage:
//
//	go run ./cmd/validate -history resultado_risco_final.csv
//	go run ./cmd/validate -history https://example.org/resultado_risco_final.csv -recompute
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"math"
	"os"
	"slices"
	_ "time/tzdata"

	"github.com/couchcryptid/flood-risk-etl/internal/adapter/csvtable"
	"github.com/couchcryptid/flood-risk-etl/internal/adapter/source"
	"github.com/couchcryptid/flood-risk-etl/internal/config"
	"github.com/couchcryptid/flood-risk-etl/internal/domain"
	"github.com/couchcryptid/flood-risk-etl/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	historyPath := flag.String("history", "", "history table path or URL (default HISTORY_PATH)")
	recompute := flag.Bool("recompute", false, "re-score days whose rainfall table is available")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}
	if *historyPath == "" {
		*historyPath = cfg.HistoryPath
	}

	os.Exit(run(context.Background(), cfg, *historyPath, *recompute))
}

func run(ctx context.Context, cfg *config.Config, historyPath string, recompute bool) int {
	fmt.Println("=== Flood Risk History Validation ===")
	fmt.Println()

	opener := source.NewOpener(cfg.HTTPTimeout)
	records, err := loadHistory(ctx, opener, historyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load history: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateKeys(records),
		validateOrder(records),
		validateScores(records, cfg.Settings),
		validateStations(records, cfg.Settings),
	}
	if recompute {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		loc := cfg.Settings.Location
		rain := source.NewRainfallDir(opener, cfg.RainfallDir, cfg.RainfallPattern, cfg.RainfallDelimiter, loc, logger)
		tide := source.NewTideTable(opener, cfg.TideSource, cfg.TideFormat, loc, logger)
		transformer := pipeline.NewTransformer(cfg.Settings, false, logger)
		phases = append(phases, validateRecompute(ctx, records, tide, rain, transformer))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d rows, %d days\n", len(records), len(daysOf(records)))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadHistory(ctx context.Context, opener *source.Opener, location string) ([]domain.RiskRecord, error) {
	body, err := opener.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return csvtable.ReadHistory(body)
}

// ── Phases ──

func validateKeys(records []domain.RiskRecord) *phase {
	p := &phase{name: "Primary keys are unique"}
	for _, key := range domain.DuplicateKeys(records) {
		p.errorf("duplicate key %s", key)
	}
	return p
}

func validateOrder(records []domain.RiskRecord) *phase {
	p := &phase{name: "Rows are ordered newest first"}
	sorted := slices.Clone(records)
	domain.SortNewestFirst(sorted)
	for i := range records {
		if records[i].Key() != sorted[i].Key() {
			p.errorf("row %d: got %s, want %s", i+2, records[i].Key(), sorted[i].Key())
			break
		}
	}
	return p
}

func validateScores(records []domain.RiskRecord, settings domain.Settings) *phase {
	p := &phase{name: "Risk values and bands are consistent"}
	for i, rec := range records {
		want := domain.Round2(valueOrZero(rec.VP) * valueOrZero(rec.AM))
		if !floatEq(rec.RiskValue, want) {
			p.errorf("row %d (%s): risk %.2f, want %.2f", i+2, rec.Key(), rec.RiskValue, want)
		}
		if band := settings.Classify(rec.RiskValue); rec.Band != band {
			p.errorf("row %d (%s): band %q for risk %.2f, want %q", i+2, rec.Key(), rec.Band, rec.RiskValue, band)
		}
	}
	return p
}

func validateStations(records []domain.RiskRecord, settings domain.Settings) *phase {
	p := &phase{name: "Stations are configured"}
	unknown := map[string]int{}
	for _, rec := range records {
		if !slices.Contains(settings.Stations, rec.StationID) {
			unknown[rec.StationID]++
		}
	}
	for _, station := range slices.Sorted(maps.Keys(unknown)) {
		p.errorf("unknown station %q in %d rows", station, unknown[station])
	}
	return p
}

// validateRecompute re-scores each stored day that still has a rainfall
// table and compares the rows. Days without a table are not checked.
func validateRecompute(ctx context.Context, records []domain.RiskRecord, tide pipeline.TideSource, rain pipeline.RainfallSource, t pipeline.Transformer) *phase {
	p := &phase{name: "Stored rows match a fresh computation"}

	index, err := tide.Tide(ctx)
	if err != nil {
		p.errorf("load tide: %v", err)
		return p
	}

	byDay := map[string]map[domain.PrimaryKey]domain.RiskRecord{}
	for _, rec := range records {
		if byDay[rec.Date] == nil {
			byDay[rec.Date] = map[domain.PrimaryKey]domain.RiskRecord{}
		}
		byDay[rec.Date][rec.Key()] = rec
	}

	checked := 0
	for _, day := range daysOf(records) {
		events, err := rain.Rainfall(ctx, day)
		if errors.Is(err, domain.ErrMissingInput) || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			p.errorf("%s: %v", day, err)
			continue
		}
		fresh, err := t.Transform(ctx, day, events, index)
		if err != nil {
			p.errorf("%s: %v", day, err)
			continue
		}
		checked++

		stored := byDay[day]
		for _, want := range fresh {
			got, ok := stored[want.Key()]
			if !ok {
				p.errorf("%s: missing from history", want.Key())
				continue
			}
			if !recordsEqual(got, want) {
				p.errorf("%s: stored risk %.2f %q, recomputed %.2f %q", want.Key(), got.RiskValue, got.Band, want.RiskValue, want.Band)
			}
		}
	}
	fmt.Printf("Recomputed %d days\n", checked)
	return p
}

// ── Helpers ──

// daysOf returns the distinct dates in records, oldest first.
func daysOf(records []domain.RiskRecord) []string {
	seen := map[string]struct{}{}
	for _, rec := range records {
		seen[rec.Date] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

func recordsEqual(a, b domain.RiskRecord) bool {
	return a.Key() == b.Key() &&
		ptrFloatEq(a.VP, b.VP) &&
		ptrFloatEq(a.AM, b.AM) &&
		floatEq(a.RiskValue, b.RiskValue) &&
		a.Band == b.Band
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func ptrFloatEq(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return floatEq(*a, *b)
}
