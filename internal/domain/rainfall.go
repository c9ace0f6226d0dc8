package domain

import (
	"context"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// Aggregate converts one day's rainfall events into hourly VP rows.
//
// Events are filtered to the configured stations and to those whose local
// calendar date (in s.Location) equals day. For every event, two trailing
// time-based sums are evaluated over (t-window, t]: the short window
// (chuva_10min) and the long window (chuva_2h). Each hour is then represented
// by the sums as of its last event, and VP = ShortWindowFactor*short + long.
// Hours without events produce no row. Rows are ordered by station, then hour.
func Aggregate(events []RainfallEvent, day string, s Settings) []HourlyIndicator {
	groups := groupByStation(events, day, s)

	var out []HourlyIndicator
	for _, station := range sortedStations(groups) {
		out = append(out, aggregateStation(station, groups[station], s)...)
	}
	return out
}

// AggregateParallel computes the same rows as Aggregate with one goroutine
// per station. Stations share no state, so the result is identical.
func AggregateParallel(ctx context.Context, events []RainfallEvent, day string, s Settings) ([]HourlyIndicator, error) {
	groups := groupByStation(events, day, s)
	stations := sortedStations(groups)
	results := make([][]HourlyIndicator, len(stations))

	g, gctx := errgroup.WithContext(ctx)
	for i, station := range stations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = aggregateStation(station, groups[station], s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []HourlyIndicator
	for _, rows := range results {
		out = append(out, rows...)
	}
	return out, nil
}

func groupByStation(events []RainfallEvent, day string, s Settings) map[string][]RainfallEvent {
	groups := make(map[string][]RainfallEvent)
	for _, e := range events {
		if !s.includes(e.StationID) {
			continue
		}
		if e.Time.In(s.Location).Format(DateLayout) != day {
			continue
		}
		groups[e.StationID] = append(groups[e.StationID], e)
	}
	return groups
}

func sortedStations(groups map[string][]RainfallEvent) []string {
	stations := make([]string, 0, len(groups))
	for station := range groups {
		stations = append(stations, station)
	}
	slices.Sort(stations)
	return stations
}

// aggregateStation expects events of a single station; it sorts them in place.
func aggregateStation(station string, events []RainfallEvent, s Settings) []HourlyIndicator {
	slices.SortStableFunc(events, func(a, b RainfallEvent) int {
		return a.Time.Compare(b.Time)
	})

	var (
		out        []HourlyIndicator
		shortStart int
		longStart  int
	)
	for i, e := range events {
		shortStart = windowStart(events, i, shortStart, s.ShortWindow)
		longStart = windowStart(events, i, longStart, s.LongWindow)

		short := sumValues(events[shortStart : i+1])
		long := sumValues(events[longStart : i+1])
		vp := s.ShortWindowFactor*short + long

		key := KeyFor(e.Time, s.Location)
		if n := len(out); n > 0 && out[n-1].Key == key {
			out[n-1].VP = vp
			continue
		}
		out = append(out, HourlyIndicator{Key: key, StationID: station, VP: vp})
	}
	return out
}

// windowStart advances start until events[start:i+1] lies within (t_i-window, t_i].
// A non-positive window is empty: start ends at i+1.
func windowStart(events []RainfallEvent, i, start int, window time.Duration) int {
	for start <= i && events[i].Time.Sub(events[start].Time) >= window {
		start++
	}
	return start
}

func sumValues(events []RainfallEvent) float64 {
	var sum float64
	for _, e := range events {
		sum += e.Value
	}
	return sum
}
