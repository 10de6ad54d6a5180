package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/gym-billing-system/shared/models"
	"github.com/pavitra93/gym-billing-system/shared/observability"
)

// ActivityAppender is the repository method StoreSink needs
type ActivityAppender interface {
	AppendActivity(ctx context.Context, entries ...models.ActivityLog) error
}

// StoreSink writes entries straight to the activity_logs table
type StoreSink struct {
	repo ActivityAppender
}

func NewStoreSink(repo ActivityAppender) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Write(ctx context.Context, entries []models.ActivityLog) error {
	return s.repo.AppendActivity(ctx, entries...)
}

// MessageWriter is satisfied by *kafka.Writer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes entries for the audit consumer
type KafkaSink struct {
	writer MessageWriter
	topic  string
}

// NewKafkaWriter builds the writer used by KafkaSink
func NewKafkaWriter(broker string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
}

func NewKafkaSink(writer MessageWriter, topic string) *KafkaSink {
	return &KafkaSink{writer: writer, topic: topic}
}

func (s *KafkaSink) Write(ctx context.Context, entries []models.ActivityLog) error {
	msgs := make([]kafka.Message, 0, len(entries))
	for _, e := range entries {
		// the consumer stores by id, so redelivered messages collapse into one row
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal activity entry: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Topic: s.topic,
			Key:   []byte(e.GymID.String()),
			Value: value,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte("activity_log")},
				{Key: "gym_id", Value: []byte(e.GymID.String())},
				{Key: "action", Value: []byte(e.Action)},
			},
		})
	}
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write activity to Kafka: %w", err)
	}
	return nil
}

// Close closes the underlying writer
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// SyncTrail writes each entry inline. Failures are logged and counted, never returned.
type SyncTrail struct {
	sink Sink
}

func NewSyncTrail(sink Sink) *SyncTrail {
	return &SyncTrail{sink: sink}
}

func (t *SyncTrail) Record(entry models.ActivityLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.sink.Write(ctx, []models.ActivityLog{entry}); err != nil {
		observability.RecordAuditDropped("sink_error")
		logrus.WithField("gym_id", entry.GymID).WithError(err).Warn("activity write failed")
	}
}
