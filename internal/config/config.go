package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/couchcryptid/flood-risk-etl/internal/adapter/csvtable"
	"github.com/couchcryptid/flood-risk-etl/internal/domain"
	"github.com/joho/godotenv"
)

// History backends selectable with HISTORY_BACKEND.
const (
	BackendFile     = "file"
	BackendHTTP     = "http"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds all run settings, populated from environment variables, an
// optional .env file and an optional YAML settings file for the engine.
type Config struct {
	// Settings drives the risk engine: stations, zone, windows and bands.
	Settings domain.Settings

	TideSource string
	TideFormat csvtable.TideFormat

	RainfallDir       string
	RainfallPattern   string
	RainfallDelimiter rune

	HistoryBackend string
	HistoryPath    string
	HistoryURL     string
	DatabaseURL    string
	SQLitePath     string

	// Publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	// The ops server is disabled when HTTPAddr is empty.
	HTTPAddr        string
	HTTPTimeout     time.Duration
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	ParallelStations bool
}

// PublishEnabled reports whether records should be published to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
// Variables already present in the environment take precedence over the .env
// file named by ENV_FILE (default ".env"), which is optional.
func Load() (*Config, error) {
	if err := loadDotEnv(envOrDefault("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	tideFormat, err := csvtable.ParseTideFormat(envOrDefault("TIDE_FORMAT", string(csvtable.TideLegacy)))
	if err != nil {
		return nil, fmt.Errorf("invalid TIDE_FORMAT: %w", err)
	}
	delimiter, err := parseDelimiter(envOrDefault("RAINFALL_DELIMITER", ","))
	if err != nil {
		return nil, err
	}
	httpTimeout, err := parsePositiveDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	parallel, err := parseBool("PARALLEL_STATIONS", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Settings:          settings,
		TideSource:        envOrDefault("TIDE_SOURCE", "tide/mare_calculada_hora_em_hora_ano-completo.csv"),
		TideFormat:        tideFormat,
		RainfallDir:       envOrDefault("RAINFALL_DIR", "."),
		RainfallPattern:   envOrDefault("RAINFALL_PATTERN", "chuva_recife_%s.csv"),
		RainfallDelimiter: delimiter,
		HistoryBackend:    strings.ToLower(envOrDefault("HISTORY_BACKEND", BackendFile)),
		HistoryPath:       envOrDefault("HISTORY_PATH", "resultado_risco_final.csv"),
		HistoryURL:        os.Getenv("HISTORY_URL"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SQLitePath:        envOrDefault("SQLITE_PATH", "floodrisk.db"),
		KafkaBrokers:      parseList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:        envOrDefault("KAFKA_TOPIC", "flood-risk-records"),
		HTTPAddr:          os.Getenv("HTTP_ADDR"),
		HTTPTimeout:       httpTimeout,
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         strings.ToLower(envOrDefault("LOG_FORMAT", "json")),
		ShutdownTimeout:   shutdownTimeout,
		ParallelStations:  parallel,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.TideSource == "" {
		return errors.New("TIDE_SOURCE is required")
	}
	if strings.Count(c.RainfallPattern, "%s") != 1 {
		return errors.New("RAINFALL_PATTERN must contain exactly one %s")
	}

	switch c.HistoryBackend {
	case BackendFile:
		if c.HistoryPath == "" {
			return errors.New("HISTORY_PATH is required")
		}
	case BackendHTTP:
		if c.HistoryURL == "" {
			return errors.New("HISTORY_BACKEND is http but HISTORY_URL is not set")
		}
		if c.HistoryPath == "" {
			return errors.New("HISTORY_PATH is required")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("HISTORY_BACKEND is postgres but DATABASE_URL is not set")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("invalid HISTORY_BACKEND %q (want file, http, postgres or sqlite)", c.HistoryBackend)
	}

	if c.PublishEnabled() && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("invalid LOG_FORMAT %q (want json or text)", c.LogFormat)
	}
	return nil
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// parseList splits a comma-separated value, dropping empty items.
func parseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}

func parseDelimiter(s string) (rune, error) {
	if s == `\t` || strings.EqualFold(s, "tab") {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid RAINFALL_DELIMITER %q", s)
	}
	return r, nil
}
