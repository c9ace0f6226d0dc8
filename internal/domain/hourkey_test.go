package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFor(t *testing.T) {
	s := testSettings()

	assert.Equal(t, HourKey{Date: testDay, Hour: 10}, KeyFor(at(s, 10, 59), s.Location))
	assert.Equal(t, HourKey{Date: testDay, Hour: 0}, KeyFor(at(s, 0, 0), s.Location))
	assert.Equal(t, "2025-06-01 07:00:00", HourKey{Date: testDay, Hour: 7}.String())
}

func TestParseHourRef(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "09:00:00", want: 9},
		{in: "23:00", want: 23},
		{in: " 0 ", want: 0},
		{in: "24:00:00", wantErr: true},
		{in: "", wantErr: true},
		{in: "ab:00:00", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHourRef(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDaysBetween(t *testing.T) {
	t.Run("inclusive range across month", func(t *testing.T) {
		days, err := DaysBetween("2025-05-30", "2025-06-02")
		require.NoError(t, err)
		assert.Equal(t, []string{"2025-05-30", "2025-05-31", "2025-06-01", "2025-06-02"}, days)
	})

	t.Run("single day", func(t *testing.T) {
		days, err := DaysBetween(testDay, testDay)
		require.NoError(t, err)
		assert.Equal(t, []string{testDay}, days)
	})

	t.Run("reversed", func(t *testing.T) {
		_, err := DaysBetween("2025-06-02", testDay)
		require.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := DaysBetween("06/01/2025", testDay)
		require.Error(t, err)
		assert.Error(t, ValidateDate("2025-13-01"))
		assert.NoError(t, ValidateDate(testDay))
	})
}

func TestToday(t *testing.T) {
	s := testSettings()
	// 01:30 UTC is still the previous evening in Recife.
	SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.June, 2, 1, 30, 0, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	assert.Equal(t, testDay, Today(s.Location))
	assert.Equal(t, "2025-06-02", Today(time.UTC))
}

func TestSettingsValidate(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())

	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"no stations", func(s *Settings) { s.Stations = nil }},
		{"no location", func(s *Settings) { s.Location = nil }},
		{"zero window", func(s *Settings) { s.ShortWindow = 0 }},
		{"label count", func(s *Settings) { s.Labels = s.Labels[:2] }},
		{"unordered thresholds", func(s *Settings) { s.Thresholds = []float64{50, 30, 100} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)
			assert.Error(t, s.Validate())
		})
	}
}
