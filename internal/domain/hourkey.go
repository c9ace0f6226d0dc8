package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for HourKey dates and day files.
const DateLayout = "2006-01-02"

// HourKey joins rainfall and tide data: a calendar date plus the hour of day,
// truncated to the top of the hour in the configured civil time zone.
type HourKey struct {
	Date string
	Hour int
}

// KeyFor floors t to the hour in loc and returns its key.
func KeyFor(t time.Time, loc *time.Location) HourKey {
	local := t.In(loc)
	return HourKey{Date: local.Format(DateLayout), Hour: local.Hour()}
}

// HourRef formats the hour as "HH:00:00".
func (k HourKey) HourRef() string {
	return fmt.Sprintf("%02d:00:00", k.Hour)
}

func (k HourKey) String() string {
	return k.Date + " " + k.HourRef()
}

// ParseHourRef extracts the hour from an "HH:00:00" (or "HH:MM", "HH") string.
func ParseHourRef(s string) (int, error) {
	s = strings.TrimSpace(s)
	head, _, _ := strings.Cut(s, ":")
	h, err := strconv.Atoi(head)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour reference %q", s)
	}
	return h, nil
}

// ValidateDate reports whether s is a YYYY-MM-DD calendar date.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return nil
}

// DaysBetween lists every calendar date from "from" to "to", both inclusive.
func DaysBetween(from, to string) ([]string, error) {
	start, err := time.Parse(DateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", from)
	}
	end, err := time.Parse(DateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", to)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("date range %s..%s is reversed", from, to)
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days, nil
}
