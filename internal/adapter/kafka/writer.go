package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/flood-risk-etl/internal/config"
	"github.com/couchcryptid/flood-risk-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces risk records to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic. Records with
// the same primary key always land on the same partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and publishes the records in a single WriteMessages call.
func (w *Writer) Publish(ctx context.Context, records []domain.RiskRecord) error {
	if len(records) == 0 {
		return nil
	}
	publishedAt := domain.Now().UTC()
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i], publishedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish risk records: %w", err)
	}
	w.logger.Debug("risk records published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// recordPayload is the message value: one history row, with the same field
// names as the history table columns.
type recordPayload struct {
	Date      string   `json:"data"`
	HourRef   string   `json:"hora_ref"`
	StationID string   `json:"nomeEstacao"`
	VP        *float64 `json:"VP"`
	AM        *float64 `json:"AM"`
	RiskValue float64  `json:"Nivel_Risco_Valor"`
	Band      string   `json:"Classificacao_Risco"`
}

// MessageKey is the Kafka key for a record: its primary key as
// "date|HH:00:00|station".
func MessageKey(rec domain.RiskRecord) []byte {
	return []byte(rec.Date + "|" + rec.HourRef() + "|" + rec.StationID)
}

// serializeToMessage marshals a RiskRecord into a Kafka message.
func serializeToMessage(rec domain.RiskRecord, publishedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(recordPayload{
		Date:      rec.Date,
		HourRef:   rec.HourRef(),
		StationID: rec.StationID,
		VP:        rec.VP,
		AM:        rec.AM,
		RiskValue: rec.RiskValue,
		Band:      rec.Band,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize risk record: %w", err)
	}
	return kafkago.Message{
		Key:   MessageKey(rec),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "band", Value: []byte(rec.Band)},
			{Key: "published_at", Value: []byte(publishedAt.Format(time.RFC3339))},
		},
	}, nil
}
