package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultMemoryQueueSize bounds the jobs an in-process queue holds
const DefaultMemoryQueueSize = 1024

// ErrQueueClosed is returned by Enqueue after Close
var ErrQueueClosed = errors.New("queue closed")

// MemoryQueue is an in-process JobQueue used in mock mode, where the server runs the
// worker's job processor itself. It honours NotBefore, NotAfter and dead-lettering.
type MemoryQueue struct {
	log     *zap.Logger
	pending chan *Job
	done    chan struct{}

	mu       sync.Mutex
	closed   bool
	nextTag  uint64
	inflight map[uint64]*Job
	dead     []*Job
	timers   []*time.Timer
}

// NewMemoryQueue creates an in-process queue holding up to size jobs
func NewMemoryQueue(size int, log *zap.Logger) *MemoryQueue {
	if size <= 0 {
		size = DefaultMemoryQueueSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryQueue{
		log:      log.Named("memqueue"),
		pending:  make(chan *Job, size),
		done:     make(chan struct{}),
		inflight: make(map[uint64]*Job),
	}
}

// Enqueue adds a job, delaying delivery until NotBefore when set
func (q *MemoryQueue) Enqueue(ctx context.Context, job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	j := *job
	if j.NotBefore != nil {
		if delay := time.Until(*j.NotBefore); delay > 0 {
			q.timers = append(q.timers, time.AfterFunc(delay, func() { q.push(&j) }))
			return nil
		}
	}
	return q.pushLocked(&j)
}

func (q *MemoryQueue) push(job *Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	if err := q.pushLocked(job); err != nil {
		q.log.Error("failed_to_requeue_job", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
}

func (q *MemoryQueue) pushLocked(job *Job) error {
	select {
	case q.pending <- job:
		return nil
	default:
		return errors.New("queue full")
	}
}

// Consume delivers queued jobs until ctx is cancelled or the queue is closed
func (q *MemoryQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error) {
	if prefetchCount <= 0 {
		prefetchCount = 1
	}
	msgChan := make(chan *Message, prefetchCount)
	errChan := make(chan error, 1)

	go func() {
		defer close(msgChan)
		defer close(errChan)
		for {
			var job *Job
			select {
			case <-ctx.Done():
				return
			case <-q.done:
				return
			case job = <-q.pending:
			}

			if job.IsExpired() {
				q.log.Info("expired_job_dropped", zap.String("job_id", job.ID.String()))
				continue
			}

			q.mu.Lock()
			q.nextTag++
			tag := q.nextTag
			q.inflight[tag] = job
			q.mu.Unlock()

			select {
			case <-ctx.Done():
				_ = q.Nack(tag, false, true)
				return
			case msgChan <- &Message{Job: job, DeliveryTag: tag, Acknowledger: q}:
			}
		}
	}()
	return msgChan, errChan, nil
}

// Ack forgets a delivered job
func (q *MemoryQueue) Ack(tag uint64, multiple bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.inflight[tag]; !ok {
		return errors.New("unknown delivery tag")
	}
	delete(q.inflight, tag)
	return nil
}

// Nack returns a delivered job to the queue or dead-letters it
func (q *MemoryQueue) Nack(tag uint64, multiple bool, requeue bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.inflight[tag]
	if !ok {
		return errors.New("unknown delivery tag")
	}
	delete(q.inflight, tag)
	if requeue && !q.closed {
		return q.pushLocked(job)
	}
	q.dead = append(q.dead, job)
	return nil
}

// Reject is Nack for a single delivery
func (q *MemoryQueue) Reject(tag uint64, requeue bool) error {
	return q.Nack(tag, false, requeue)
}

// DeadLetters returns the dead-lettered jobs
func (q *MemoryQueue) DeadLetters() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*Job(nil), q.dead...)
}

// PurgeOlderThan drops dead-lettered jobs created more than retention ago
func (q *MemoryQueue) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.dead[:0]
	for _, job := range q.dead {
		if job.CreatedAt.After(cutoff) {
			kept = append(kept, job)
		}
	}
	purged := len(q.dead) - len(kept)
	q.dead = kept
	return purged, nil
}

// HealthCheck reports whether the queue is still open
func (q *MemoryQueue) HealthCheck(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	return nil
}

// Close stops delivery and cancels delayed jobs
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	for _, t := range q.timers {
		t.Stop()
	}
	close(q.done)
	return nil
}
