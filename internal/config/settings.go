package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/flood-risk-etl/internal/domain"
	"gopkg.in/yaml.v3"
)

// settingsFile is the YAML shape of SETTINGS_FILE. Every field is optional.
type settingsFile struct {
	Stations          []string  `yaml:"stations"`
	Timezone          string    `yaml:"timezone"`
	ShortWindow       string    `yaml:"short_window"`
	LongWindow        string    `yaml:"long_window"`
	ShortWindowFactor *float64  `yaml:"short_window_factor"`
	Thresholds        []float64 `yaml:"thresholds"`
	Labels            []string  `yaml:"labels"`
}

// loadSettings layers the engine settings: defaults, then SETTINGS_FILE,
// then individual environment variables.
func loadSettings() (domain.Settings, error) {
	s := domain.DefaultSettings()

	if path := os.Getenv("SETTINGS_FILE"); path != "" {
		file, err := readSettingsFile(path)
		if err != nil {
			return s, err
		}
		if err := file.apply(&s); err != nil {
			return s, fmt.Errorf("SETTINGS_FILE %s: %w", path, err)
		}
	}

	env := settingsFile{
		Stations:    parseList(os.Getenv("STATIONS")),
		Timezone:    os.Getenv("TIMEZONE"),
		ShortWindow: os.Getenv("SHORT_WINDOW"),
		LongWindow:  os.Getenv("LONG_WINDOW"),
		Labels:      parseList(os.Getenv("RISK_LABELS")),
	}
	if v := os.Getenv("SHORT_WINDOW_FACTOR"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("invalid SHORT_WINDOW_FACTOR %q", v)
		}
		env.ShortWindowFactor = &f
	}
	for _, item := range parseList(os.Getenv("RISK_THRESHOLDS")) {
		f, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return s, fmt.Errorf("invalid RISK_THRESHOLDS item %q", item)
		}
		env.Thresholds = append(env.Thresholds, f)
	}
	if err := env.apply(&s); err != nil {
		return s, err
	}

	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid engine settings: %w", err)
	}
	return s, nil
}

func readSettingsFile(path string) (settingsFile, error) {
	var file settingsFile
	data, err := os.ReadFile(path)
	if err != nil {
		return file, fmt.Errorf("read SETTINGS_FILE: %w", err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parse SETTINGS_FILE %s: %w", path, err)
	}
	return file, nil
}

// apply overwrites the fields of s that are set in f.
func (f settingsFile) apply(s *domain.Settings) error {
	if len(f.Stations) > 0 {
		s.Stations = f.Stations
	}
	if f.Timezone != "" {
		loc, err := time.LoadLocation(f.Timezone)
		if err != nil {
			return fmt.Errorf("invalid TIMEZONE %q: %w", f.Timezone, err)
		}
		s.Location = loc
	}
	if f.ShortWindow != "" {
		d, err := time.ParseDuration(f.ShortWindow)
		if err != nil {
			return fmt.Errorf("invalid SHORT_WINDOW %q", f.ShortWindow)
		}
		s.ShortWindow = d
	}
	if f.LongWindow != "" {
		d, err := time.ParseDuration(f.LongWindow)
		if err != nil {
			return fmt.Errorf("invalid LONG_WINDOW %q", f.LongWindow)
		}
		s.LongWindow = d
	}
	if f.ShortWindowFactor != nil {
		s.ShortWindowFactor = *f.ShortWindowFactor
	}
	if len(f.Thresholds) > 0 {
		s.Thresholds = f.Thresholds
	}
	if len(f.Labels) > 0 {
		s.Labels = f.Labels
	}
	return nil
}
