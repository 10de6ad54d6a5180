// Package audit writes the activity log off the request path. A failed or
// dropped entry is reported on Errors and counted; it never fails the
// operation that produced it.
package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pavitra93/gym-billing-system/shared/models"
	"github.com/pavitra93/gym-billing-system/shared/observability"
)

var (
	ErrQueueFull = errors.New("activity queue full, entry dropped")
	ErrClosed    = errors.New("activity recorder closed")
)

// Trail accepts activity entries without blocking
type Trail interface {
	Record(entry models.ActivityLog)
}

// Sink persists or forwards a batch of entries
type Sink interface {
	Write(ctx context.Context, entries []models.ActivityLog) error
}

// Failure is an entry that did not reach a sink
type Failure struct {
	Entry models.ActivityLog
	Err   error
}

// MinFailureBuffer is the smallest errors channel a recorder gets
const MinFailureBuffer = 64

// Options tunes the recorder's worker pool
type Options struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
}

func (o *Options) defaults() {
	if o.QueueSize <= 0 {
		o.QueueSize = 1000
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
}

// Recorder fans entries out to its sinks from a bounded queue
type Recorder struct {
	sinks    []Sink
	queue    chan models.ActivityLog
	failures chan Failure
	timeout  time.Duration
	now      func() time.Time
	log      logrus.FieldLogger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewRecorder starts the worker pool
func NewRecorder(opts Options, log logrus.FieldLogger, sinks ...Sink) *Recorder {
	opts.defaults()
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Recorder{
		sinks:    sinks,
		queue:    make(chan models.ActivityLog, opts.QueueSize),
		failures: make(chan Failure, max(opts.QueueSize, MinFailureBuffer)),
		timeout:  opts.WriteTimeout,
		now:      time.Now,
		log:      log,
	}
	for i := 0; i < opts.Workers; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	return r
}

// Record queues entry. It never blocks the caller.
func (r *Recorder) Record(entry models.ActivityLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		observability.RecordAuditDropped("closed")
		r.log.WithField("gym_id", entry.GymID).Warn(ErrClosed.Error())
		return
	}
	select {
	case r.queue <- entry:
	default:
		r.fail(entry, ErrQueueFull, "queue_full")
	}
}

// Errors reports entries that were dropped or could not be written
func (r *Recorder) Errors() <-chan Failure {
	return r.failures
}

// Close stops accepting entries and waits for the queue to drain
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
	close(r.failures)
}

func (r *Recorder) worker(id int) {
	defer r.wg.Done()
	for entry := range r.queue {
		for _, sink := range r.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			err := sink.Write(ctx, []models.ActivityLog{entry})
			cancel()
			if err != nil {
				r.log.WithFields(logrus.Fields{
					"worker": id,
					"gym_id": entry.GymID,
					"action": entry.Action,
				}).WithError(err).Warn("activity write failed")
				r.fail(entry, err, "sink_error")
			}
		}
	}
}

func (r *Recorder) fail(entry models.ActivityLog, err error, reason string) {
	observability.RecordAuditDropped(reason)
	select {
	case r.failures <- Failure{Entry: entry, Err: err}:
	default:
		observability.RecordAuditFailureUnreported()
	}
}

// Discard is a Trail that keeps nothing
type Discard struct{}

func (Discard) Record(models.ActivityLog) {}
