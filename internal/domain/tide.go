package domain

import "time"

// TideIndex looks up tide height by HourKey. The zero value is an empty index.
type TideIndex struct {
	heights map[HourKey]float64
}

// NewTideIndex keys each reading by its hour in loc. When several readings
// fall in the same hour the last one in input order wins; heights are kept
// unrounded until scoring.
func NewTideIndex(readings []TideReading, loc *time.Location) TideIndex {
	heights := make(map[HourKey]float64, len(readings))
	for _, r := range readings {
		heights[KeyFor(r.Time, loc)] = r.Height
	}
	return TideIndex{heights: heights}
}

// Height returns the tide height for key, if any.
func (t TideIndex) Height(key HourKey) (float64, bool) {
	h, ok := t.heights[key]
	return h, ok
}

// Len returns the number of hours covered by the index.
func (t TideIndex) Len() int {
	return len(t.heights)
}
