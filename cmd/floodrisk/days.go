package main

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/flood-risk-etl/internal/domain"
)

// dateList collects repeated -date flags.
type dateList []string

func (d *dateList) String() string { return strings.Join(*d, ",") }

func (d *dateList) Set(v string) error {
	v = strings.TrimSpace(v)
	if err := domain.ValidateDate(v); err != nil {
		return err
	}
	*d = append(*d, v)
	return nil
}

// daySelection is the set of days requested on the command line.
type daySelection struct {
	dates dateList
	from  string
	to    string
	all   bool
}

// resolve turns the selection into an ordered, duplicate-free list of days.
// listAll is consulted only for -all. With no selection the run covers today
// in loc.
func (s daySelection) resolve(listAll func() ([]string, error), loc *time.Location) ([]string, error) {
	modes := 0
	if len(s.dates) > 0 {
		modes++
	}
	if s.from != "" || s.to != "" {
		modes++
	}
	if s.all {
		modes++
	}
	if modes > 1 {
		return nil, errors.New("use only one of -date, -from/-to or -all")
	}

	var days []string
	switch {
	case len(s.dates) > 0:
		days = slices.Clone(s.dates)
	case s.from != "" || s.to != "":
		if s.from == "" {
			return nil, errors.New("-to requires -from")
		}
		to := s.to
		if to == "" {
			to = domain.Today(loc)
		}
		var err error
		if days, err = domain.DaysBetween(s.from, to); err != nil {
			return nil, err
		}
	case s.all:
		var err error
		if days, err = listAll(); err != nil {
			return nil, err
		}
		if len(days) == 0 {
			return nil, errors.New("no rainfall tables found for -all")
		}
	default:
		return []string{domain.Today(loc)}, nil
	}

	slices.Sort(days)
	return slices.Compact(days), nil
}
