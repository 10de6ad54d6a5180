package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/gym-billing-system/shared/audit"
	"github.com/pavitra93/gym-billing-system/shared/errs"
	"github.com/pavitra93/gym-billing-system/shared/models"
)

// MessageReader is the part of *kafka.Reader the consumer uses
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewReader builds a consumer-group reader for the activity topic.
// Offsets are committed explicitly after each message is stored.
func NewReader(broker, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{broker},
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
		MaxWait:  time.Second,
	})
}

// Stats are the running totals exposed on /stats
type Stats struct {
	Consumed   int64 `json:"consumed"`
	Stored     int64 `json:"stored"`
	Duplicates int64 `json:"duplicates"`
	Invalid    int64 `json:"invalid"`
	Dropped    int64 `json:"dropped"`
}

// AuditConsumer persists activity entries published by the API and scheduler
type AuditConsumer struct {
	reader     MessageReader
	store      audit.ActivityAppender
	log        logrus.FieldLogger
	maxRetries int
	baseDelay  time.Duration

	consumed, stored, duplicates, invalid, dropped atomic.Int64
}

func NewAuditConsumer(reader MessageReader, store audit.ActivityAppender, log logrus.FieldLogger) *AuditConsumer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuditConsumer{
		reader:     reader,
		store:      store,
		log:        log,
		maxRetries: 5,
		baseDelay:  time.Second,
	}
}

// Run consumes until ctx is cancelled
func (ac *AuditConsumer) Run(ctx context.Context) error {
	ac.log.Info("Starting audit consumer...")
	for {
		msg, err := ac.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			ac.log.WithError(err).Error("error fetching activity message")
			if !sleep(ctx, ac.baseDelay) {
				return nil
			}
			continue
		}

		ac.consumed.Add(1)
		if err := ac.handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			ac.dropped.Add(1)
			ac.log.WithFields(logrus.Fields{
				"partition": msg.Partition,
				"offset":    msg.Offset,
			}).WithError(err).Error("activity entry dropped")
		}

		if err := ac.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			ac.log.WithError(err).Error("failed to commit activity message")
		}
	}
}

// handle stores one message, retrying storage failures with exponential backoff
func (ac *AuditConsumer) handle(ctx context.Context, msg kafka.Message) error {
	var entry models.ActivityLog
	if err := json.Unmarshal(msg.Value, &entry); err != nil || entry.GymID == uuid.Nil {
		ac.invalid.Add(1)
		ac.log.WithField("offset", msg.Offset).Warn("skipping malformed activity message")
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < ac.maxRetries; attempt++ {
		if attempt > 0 {
			delay := ac.baseDelay * time.Duration(1<<(attempt-1)) // 1s, 2s, 4s, 8s
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
		}

		err := ac.store.AppendActivity(ctx, entry)
		switch {
		case err == nil:
			ac.stored.Add(1)
			return nil
		case errors.Is(err, errs.ErrDuplicate):
			ac.duplicates.Add(1)
			return nil
		case errors.Is(err, errs.ErrValidation):
			ac.invalid.Add(1)
			return nil
		}
		lastErr = err
		ac.log.WithFields(logrus.Fields{
			"gym_id":  entry.GymID,
			"attempt": attempt + 1,
		}).WithError(err).Warn("failed to store activity entry")
	}
	return fmt.Errorf("max retries reached: %w", lastErr)
}

// Stats returns the running totals
func (ac *AuditConsumer) Stats() Stats {
	return Stats{
		Consumed:   ac.consumed.Load(),
		Stored:     ac.stored.Load(),
		Duplicates: ac.duplicates.Load(),
		Invalid:    ac.invalid.Load(),
		Dropped:    ac.dropped.Load(),
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
