package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(date string, hour int, station string, risk float64) RiskRecord {
	return RiskRecord{
		Date:      date,
		Hour:      hour,
		StationID: station,
		VP:        Float(risk),
		AM:        Float(1),
		RiskValue: risk,
		Band:      DefaultSettings().Classify(risk),
	}
}

func TestMerge(t *testing.T) {
	t.Run("incoming wins on conflict", func(t *testing.T) {
		existing := []RiskRecord{record(testDay, 10, testStationA, 20)}
		incoming := []RiskRecord{record(testDay, 10, testStationA, 75)}

		got := Merge(existing, incoming)

		require.Len(t, got, 1)
		assert.Equal(t, 75.0, got[0].RiskValue)
		assert.Equal(t, BandModerateHigh, got[0].Band)
	})

	t.Run("untouched history survives", func(t *testing.T) {
		existing := []RiskRecord{
			record("2025-05-31", 23, testStationA, 5),
			record(testDay, 10, testStationA, 20),
		}
		incoming := []RiskRecord{record(testDay, 10, testStationA, 40)}

		got := Merge(existing, incoming)

		require.Len(t, got, 2)
		assert.Equal(t, "2025-05-31", got[1].Date)
		assert.Equal(t, 5.0, got[1].RiskValue)
	})

	t.Run("idempotent", func(t *testing.T) {
		existing := []RiskRecord{
			record("2025-05-31", 8, testStationB, 12),
			record(testDay, 3, testStationA, 31),
		}
		incoming := []RiskRecord{
			record(testDay, 3, testStationA, 44),
			record(testDay, 4, testStationB, 101),
		}

		once := Merge(existing, incoming)
		twice := Merge(once, incoming)

		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("second merge changed the dataset (-once +twice):\n%s", diff)
		}
	})

	t.Run("primary key unique", func(t *testing.T) {
		existing := []RiskRecord{
			record(testDay, 1, testStationA, 1),
			record(testDay, 1, testStationA, 2), // legacy duplicate
		}
		incoming := []RiskRecord{
			record(testDay, 1, testStationB, 3),
			record(testDay, 1, testStationB, 4),
		}

		got := Merge(existing, incoming)

		assert.Empty(t, DuplicateKeys(got))
		require.Len(t, got, 2)
		assert.Equal(t, 2.0, got[0].RiskValue)
		assert.Equal(t, 4.0, got[1].RiskValue)
	})

	t.Run("newest first then station", func(t *testing.T) {
		existing := []RiskRecord{
			record("2025-05-30", 23, testStationA, 1),
			record(testDay, 0, testStationB, 1),
		}
		incoming := []RiskRecord{
			record(testDay, 9, testStationB, 1),
			record(testDay, 9, testStationA, 1),
			record("2025-05-31", 12, testStationA, 1),
		}

		got := Merge(existing, incoming)

		keys := make([]PrimaryKey, 0, len(got))
		for _, rec := range got {
			keys = append(keys, rec.Key())
		}
		want := []PrimaryKey{
			{Date: testDay, Hour: 9, StationID: testStationA},
			{Date: testDay, Hour: 9, StationID: testStationB},
			{Date: testDay, Hour: 0, StationID: testStationB},
			{Date: "2025-05-31", Hour: 12, StationID: testStationA},
			{Date: "2025-05-30", Hour: 23, StationID: testStationA},
		}
		assert.Equal(t, want, keys)
	})

	t.Run("empty history", func(t *testing.T) {
		incoming := []RiskRecord{record(testDay, 1, testStationA, 1)}
		assert.Equal(t, incoming, Merge(nil, incoming))
	})

	t.Run("empty incoming returns history", func(t *testing.T) {
		existing := []RiskRecord{record(testDay, 1, testStationA, 1)}
		assert.Equal(t, existing, Merge(existing, nil))
	})
}

func TestDuplicateKeys(t *testing.T) {
	records := []RiskRecord{
		record(testDay, 1, testStationA, 1),
		record(testDay, 1, testStationA, 2),
		record(testDay, 1, testStationA, 3),
		record(testDay, 2, testStationA, 1),
	}

	assert.Equal(t, []PrimaryKey{{Date: testDay, Hour: 1, StationID: testStationA}}, DuplicateKeys(records))
}
