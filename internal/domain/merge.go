package domain

import (
	"cmp"
	"slices"
)

// Merge folds incoming records into the existing historical dataset.
//
// The union is deduplicated by primary key (date, hour, station); on conflict
// the incoming record wins, and within one input the later record wins. The
// result is ordered newest first by (date, hour), then by station. Merging the
// same incoming records twice yields the same dataset as merging once.
func Merge(existing, incoming []RiskRecord) []RiskRecord {
	index := make(map[PrimaryKey]int, len(existing)+len(incoming))
	out := make([]RiskRecord, 0, len(existing)+len(incoming))

	for _, set := range [][]RiskRecord{existing, incoming} {
		for _, rec := range set {
			key := rec.Key()
			if i, ok := index[key]; ok {
				out[i] = rec
				continue
			}
			index[key] = len(out)
			out = append(out, rec)
		}
	}

	SortNewestFirst(out)
	return out
}

// SortNewestFirst orders records by (date, hour) descending, then station ascending.
func SortNewestFirst(records []RiskRecord) {
	slices.SortStableFunc(records, func(a, b RiskRecord) int {
		if c := cmp.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Hour, a.Hour); c != 0 {
			return c
		}
		return cmp.Compare(a.StationID, b.StationID)
	})
}

// DuplicateKeys returns every primary key that occurs more than once.
func DuplicateKeys(records []RiskRecord) []PrimaryKey {
	seen := make(map[PrimaryKey]int, len(records))
	var dups []PrimaryKey
	for _, rec := range records {
		key := rec.Key()
		seen[key]++
		if seen[key] == 2 {
			dups = append(dups, key)
		}
	}
	return dups
}
