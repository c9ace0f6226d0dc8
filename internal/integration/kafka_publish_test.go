//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/flood-risk-etl/internal/adapter/kafka"
	"github.com/couchcryptid/flood-risk-etl/internal/config"
	"github.com/couchcryptid/flood-risk-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "flood-risk-records-test"

// publishedRecord holds a deserialized message read from the records topic.
type publishedRecord struct {
	Key     string
	Payload map[string]any
	Headers map[string]string
}

func readPublished(ctx context.Context, t *testing.T, broker string, n int) []publishedRecord {
	t.Helper()
	consumer := newConsumer(t, broker, testTopic)

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out := make([]publishedRecord, 0, n)
	for range n {
		msg, err := consumer.ReadMessage(readCtx)
		require.NoError(t, err, "read from records topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		var payload map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &payload), "unmarshal record")
		out = append(out, publishedRecord{Key: string(msg.Key), Payload: payload, Headers: headers})
	}
	return out
}

func TestKafkaWriter_Publish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	w := kafka.NewWriter(&config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}, discardLogger())
	defer w.Close()

	records := []domain.RiskRecord{
		{Date: "2025-06-01", Hour: 10, StationID: "Imbiribeira", VP: domain.Float(40), AM: domain.Float(1.5), RiskValue: 60, Band: domain.BandModerateHigh},
		{Date: "2025-06-01", Hour: 3, StationID: "Torreão", VP: domain.Float(8), RiskValue: 0, Band: domain.BandLow},
	}
	require.NoError(t, w.Publish(ctx, records))

	got := readPublished(ctx, t, broker, 2)

	assert.Equal(t, "2025-06-01|10:00:00|Imbiribeira", got[0].Key)
	assert.Equal(t, "Moderado Alto", got[0].Payload["Classificacao_Risco"])
	assert.InDelta(t, 60.0, got[0].Payload["Nivel_Risco_Valor"], 1e-9)
	assert.Equal(t, "Moderado Alto", got[0].Headers["band"])
	assert.Equal(t, now.Format(time.RFC3339), got[0].Headers["published_at"])

	assert.Equal(t, "2025-06-01|03:00:00|Torreão", got[1].Key)
	assert.Nil(t, got[1].Payload["AM"])
}
