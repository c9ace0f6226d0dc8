package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	s := testSettings()

	tests := []struct {
		risk float64
		want string
	}{
		{-5, BandLow},
		{0, BandLow},
		{29.99, BandLow},
		{30, BandModerate},
		{49.99, BandModerate},
		{50, BandModerateHigh},
		{99.99, BandModerateHigh},
		{100, BandHigh},
		{1250.5, BandHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Classify(tt.risk), "risk %.2f", tt.risk)
	}
}

func TestScore(t *testing.T) {
	s := testSettings()
	key := HourKey{Date: testDay, Hour: 10}

	t.Run("end to end reference hour", func(t *testing.T) {
		tide := NewTideIndex([]TideReading{{Time: at(s, 10, 0), Height: 1.5}}, s.Location)
		rows := []HourlyIndicator{{Key: key, StationID: testStationA, VP: 40}}

		got := Score(rows, tide, s)

		require.Len(t, got, 1)
		rec := got[0]
		assert.Equal(t, testDay, rec.Date)
		assert.Equal(t, "10:00:00", rec.HourRef())
		assert.Equal(t, testStationA, rec.StationID)
		require.NotNil(t, rec.VP)
		require.NotNil(t, rec.AM)
		assert.Equal(t, 40.0, *rec.VP)
		assert.Equal(t, 1.5, *rec.AM)
		assert.Equal(t, 60.0, rec.RiskValue)
		assert.Equal(t, BandModerateHigh, rec.Band)
	})

	t.Run("missing tide keeps the row", func(t *testing.T) {
		rows := []HourlyIndicator{{Key: key, StationID: testStationA, VP: 80}}

		got := Score(rows, TideIndex{}, s)

		require.Len(t, got, 1)
		assert.NotNil(t, got[0].VP)
		assert.Nil(t, got[0].AM)
		assert.Equal(t, 0.0, got[0].RiskValue)
		assert.Equal(t, BandLow, got[0].Band)
	})

	t.Run("operands are rounded before the product", func(t *testing.T) {
		// Unrounded 10.004 * 2.996 = 29.97 would fall in the lower band.
		tide := NewTideIndex([]TideReading{{Time: at(s, 10, 0), Height: 2.996}}, s.Location)
		rows := []HourlyIndicator{{Key: key, StationID: testStationA, VP: 10.004}}

		got := Score(rows, tide, s)

		require.Len(t, got, 1)
		assert.Equal(t, 10.0, *got[0].VP)
		assert.Equal(t, 3.0, *got[0].AM)
		assert.Equal(t, 30.0, got[0].RiskValue)
		assert.Equal(t, BandModerate, got[0].Band)
	})

	t.Run("negative tide", func(t *testing.T) {
		tide := NewTideIndex([]TideReading{{Time: at(s, 10, 0), Height: -0.2}}, s.Location)
		rows := []HourlyIndicator{{Key: key, StationID: testStationA, VP: 50}}

		got := Score(rows, tide, s)

		require.Len(t, got, 1)
		assert.Equal(t, -10.0, got[0].RiskValue)
		assert.Equal(t, BandLow, got[0].Band)
	})

	t.Run("row count and order preserved", func(t *testing.T) {
		tide := NewTideIndex([]TideReading{
			{Time: at(s, 9, 0), Height: 1},
			{Time: at(s, 11, 0), Height: 2},
		}, s.Location)
		rows := []HourlyIndicator{
			{Key: HourKey{Date: testDay, Hour: 9}, StationID: testStationA, VP: 10},
			{Key: HourKey{Date: testDay, Hour: 10}, StationID: testStationA, VP: 20},
			{Key: HourKey{Date: testDay, Hour: 11}, StationID: testStationB, VP: 30},
		}

		got := Score(rows, tide, s)

		require.Len(t, got, len(rows))
		for i, rec := range got {
			assert.Equal(t, rows[i].Key.Hour, rec.Hour)
			assert.Equal(t, rows[i].StationID, rec.StationID)
		}
		assert.Equal(t, 10.0, got[0].RiskValue)
		assert.Nil(t, got[1].AM)
		assert.Equal(t, 60.0, got[2].RiskValue)
	})

	t.Run("custom bands", func(t *testing.T) {
		custom := s
		custom.Thresholds = []float64{10}
		custom.Labels = []string{"calm", "alert"}
		tide := NewTideIndex([]TideReading{{Time: at(s, 10, 0), Height: 1}}, s.Location)
		rows := []HourlyIndicator{{Key: key, StationID: testStationA, VP: 10}}

		got := Score(rows, tide, custom)

		assert.Equal(t, "alert", got[0].Band)
	})
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.234))
	assert.Equal(t, 1.24, Round2(1.235+1e-9))
	// Ties are decided on the stored binary value.
	assert.Equal(t, 2.67, Round2(2.675))
	assert.Equal(t, 29.99, Round2(29.995))
	assert.Equal(t, 1.0, Round2(1.005))
	assert.Equal(t, 2.67, Round2(10.7*0.25))
	// Exact halves go to the even neighbour.
	assert.Equal(t, 0.12, Round2(0.125))
	assert.Equal(t, 0.38, Round2(0.375))
	assert.Equal(t, -0.12, Round2(-0.125))
	assert.Equal(t, 2.0, Round2(1.999))
	assert.Equal(t, -0.5, Round2(-0.499))
	assert.True(t, math.IsNaN(Round2(math.NaN())))
	assert.True(t, math.IsInf(Round2(math.Inf(1)), 1))
}

func TestTideIndex(t *testing.T) {
	s := testSettings()

	t.Run("last reading in an hour wins", func(t *testing.T) {
		idx := NewTideIndex([]TideReading{
			{Time: at(s, 10, 0), Height: 1.1},
			{Time: at(s, 10, 30), Height: 1.4},
			{Time: at(s, 11, 0), Height: 1.9},
		}, s.Location)

		h, ok := idx.Height(HourKey{Date: testDay, Hour: 10})
		require.True(t, ok)
		assert.Equal(t, 1.4, h)
		assert.Equal(t, 2, idx.Len())
	})

	t.Run("keys use local time", func(t *testing.T) {
		idx := NewTideIndex([]TideReading{
			{Time: time.Date(2025, time.June, 1, 13, 0, 0, 0, time.UTC), Height: 0.7},
		}, s.Location)

		h, ok := idx.Height(HourKey{Date: testDay, Hour: 10})
		require.True(t, ok)
		assert.Equal(t, 0.7, h)
	})

	t.Run("zero value is empty", func(t *testing.T) {
		var idx TideIndex
		_, ok := idx.Height(HourKey{Date: testDay, Hour: 0})
		assert.False(t, ok)
		assert.Zero(t, idx.Len())
	})
}
