package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/gym-billing-system/shared/models"
	"github.com/pavitra93/gym-billing-system/shared/store"
)

// fakeReader replays msgs and then blocks until ctx ends
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		msg := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type flakyStore struct {
	*store.Memory
	failures int
}

func (s *flakyStore) AppendActivity(ctx context.Context, entries ...models.ActivityLog) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("connection reset")
	}
	return s.Memory.AppendActivity(ctx, entries...)
}

func message(t *testing.T, offset int64, entry models.ActivityLog) kafka.Message {
	t.Helper()
	value, err := json.Marshal(entry)
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: value}
}

func runUntil(t *testing.T, consumer *AuditConsumer, reader *fakeReader, commits int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()
	require.Eventually(t, func() bool { return len(reader.commits()) == commits }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestConsumerStoresAndCommits(t *testing.T) {
	mem := store.NewMemory()
	gymID := uuid.New()
	first := models.ActivityLog{ID: uuid.New(), GymID: gymID, Action: models.ActionMemberAdd, Description: "Added member Asha"}

	reader := &fakeReader{msgs: []kafka.Message{
		message(t, 1, first),
		message(t, 2, first),
		{Offset: 3, Value: []byte("not json")},
		message(t, 4, models.ActivityLog{ID: uuid.New(), Action: models.ActionLogin}),
	}}
	consumer := NewAuditConsumer(reader, mem, logrus.New())

	runUntil(t, consumer, reader, 4)

	require.Equal(t, []int64{1, 2, 3, 4}, reader.commits())
	require.Equal(t, Stats{Consumed: 4, Stored: 1, Duplicates: 1, Invalid: 2}, consumer.Stats())
	stored := mem.Activities()
	require.Len(t, stored, 1)
	require.Equal(t, first.ID, stored[0].ID)
}

func TestConsumerRetriesStorageFailures(t *testing.T) {
	mem := &flakyStore{Memory: store.NewMemory(), failures: 2}
	entry := models.ActivityLog{ID: uuid.New(), GymID: uuid.New(), Action: models.ActionPaymentAdd}
	reader := &fakeReader{msgs: []kafka.Message{message(t, 7, entry)}}

	consumer := NewAuditConsumer(reader, mem, logrus.New())
	consumer.baseDelay = time.Millisecond

	runUntil(t, consumer, reader, 1)
	require.Equal(t, Stats{Consumed: 1, Stored: 1}, consumer.Stats())
	require.Len(t, mem.Activities(), 1)
}

func TestConsumerDropsAfterMaxRetries(t *testing.T) {
	mem := &flakyStore{Memory: store.NewMemory(), failures: 100}
	entry := models.ActivityLog{ID: uuid.New(), GymID: uuid.New(), Action: models.ActionPaymentAdd}
	reader := &fakeReader{msgs: []kafka.Message{message(t, 9, entry)}}

	consumer := NewAuditConsumer(reader, mem, logrus.New())
	consumer.baseDelay = time.Millisecond
	consumer.maxRetries = 3

	runUntil(t, consumer, reader, 1)
	require.Equal(t, Stats{Consumed: 1, Dropped: 1}, consumer.Stats())
	require.Equal(t, 97, mem.failures)
	require.Empty(t, mem.Activities())
}
