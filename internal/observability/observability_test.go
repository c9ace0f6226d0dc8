package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "json", "warn")

	logger.Info("dropped")
	logger.Warn("history not found", "path", "resultado_risco_final.csv")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "history not found", line["msg"])
	assert.Equal(t, "flood-risk-etl", line["app"])
	assert.Equal(t, "resultado_risco_final.csv", line["path"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "text", "debug")

	logger.Debug("day scored", "day", "2025-06-01")

	assert.Contains(t, buf.String(), "day scored")
	assert.Contains(t, buf.String(), "2025-06-01")
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.DaysProcessed.Inc()
	a.RecordsScored.WithLabelValues("Alto").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.DaysProcessed))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.DaysProcessed))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.RecordsScored.WithLabelValues("Alto")))
}
