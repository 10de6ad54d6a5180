package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/gym-billing-system/shared/models"
	"github.com/pavitra93/gym-billing-system/shared/store"
)

type failingSink struct{}

func (failingSink) Write(context.Context, []models.ActivityLog) error {
	return errors.New("disk full")
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Write(context.Context, []models.ActivityLog) error {
	<-s.release
	return nil
}

type stubWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (w *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *stubWriter) Close() error { return nil }

func entry(gymID uuid.UUID) models.ActivityLog {
	return models.ActivityLog{GymID: gymID, Actor: "owner", Action: models.ActionPaymentAdd, Description: "Added payment"}
}

func TestRecorderPersistsToStore(t *testing.T) {
	repo := store.NewMemory()
	rec := NewRecorder(Options{Workers: 2}, nil, NewStoreSink(repo))
	gymID := uuid.New()

	for i := 0; i < 5; i++ {
		rec.Record(entry(gymID))
	}
	rec.Close()

	logged := repo.Activities()
	require.Len(t, logged, 5)
	require.False(t, logged[0].CreatedAt.IsZero())
}

func TestRecorderReportsSinkFailures(t *testing.T) {
	rec := NewRecorder(Options{Workers: 1}, nil, failingSink{})
	rec.Record(entry(uuid.New()))
	rec.Close()

	var failures []Failure
	for f := range rec.Errors() {
		failures = append(failures, f)
	}
	require.Len(t, failures, 1)
	require.EqualError(t, failures[0].Err, "disk full")
}

func TestRecorderDropsWhenQueueFull(t *testing.T) {
	sink := blockingSink{release: make(chan struct{})}
	rec := NewRecorder(Options{Workers: 1, QueueSize: 1}, nil, sink)
	gymID := uuid.New()

	// one entry held by the worker, one in the queue, the rest dropped
	for i := 0; i < 10; i++ {
		rec.Record(entry(gymID))
	}

	drops := 0
	for len(rec.Errors()) > 0 {
		f := <-rec.Errors()
		require.ErrorIs(t, f.Err, ErrQueueFull)
		drops++
	}
	require.GreaterOrEqual(t, drops, 8)

	close(sink.release)
	rec.Close()
}

func TestRecorderFailureReportsAreBounded(t *testing.T) {
	sink := blockingSink{release: make(chan struct{})}
	rec := NewRecorder(Options{Workers: 1, QueueSize: 1}, nil, sink)
	gymID := uuid.New()

	for i := 0; i < MinFailureBuffer+10; i++ {
		rec.Record(entry(gymID))
	}
	require.Len(t, rec.Errors(), MinFailureBuffer)

	close(sink.release)
	rec.Close()
}

func TestRecordAfterCloseFails(t *testing.T) {
	rec := NewRecorder(Options{Workers: 1}, nil)
	rec.Close()
	rec.Close()
	require.NotPanics(t, func() { rec.Record(entry(uuid.New())) })
}

func TestKafkaSinkKeysByGym(t *testing.T) {
	w := &stubWriter{}
	sink := NewKafkaSink(w, "activity-logs")
	gymID := uuid.New()

	require.NoError(t, sink.Write(context.Background(), []models.ActivityLog{entry(gymID)}))
	require.Len(t, w.msgs, 1)
	require.Equal(t, "activity-logs", w.msgs[0].Topic)
	require.Equal(t, gymID.String(), string(w.msgs[0].Key))

	var decoded models.ActivityLog
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	require.Equal(t, models.ActionPaymentAdd, decoded.Action)
	require.NotEqual(t, uuid.Nil, decoded.ID)
}

func TestSyncTrailSwallowsFailures(t *testing.T) {
	trail := NewSyncTrail(failingSink{})
	require.NotPanics(t, func() { trail.Record(entry(uuid.New())) })

	repo := store.NewMemory()
	NewSyncTrail(NewStoreSink(repo)).Record(entry(uuid.New()))
	require.Len(t, repo.Activities(), 1)
}
