package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Queue is the postback job queue port. Jobs are dequeued in enqueue order
// by a single consumer; EnqueueAfter makes a retry eligible no sooner than
// its backoff delay.
type Queue interface {
	Enqueue(job PostbackJob) error
	EnqueueAfter(job PostbackJob, delay time.Duration) error
	Dequeue(ctx context.Context) (PostbackJob, error)
	Len() int
}

var _ Queue = (*MemoryQueue)(nil)

// MemoryQueue is a mutex-guarded in-process FIFO. It is deliberately
// memory-only: a process restart loses queued jobs, and only jobs that
// already produced an audit row remain discoverable. Enqueue is safe from
// any goroutine; Dequeue is intended for one consumer.
type MemoryQueue struct {
	mu     sync.Mutex
	jobs   []PostbackJob
	wake   chan struct{}
	closed bool
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		wake: make(chan struct{}, 1),
	}
}

func (q *MemoryQueue) Enqueue(job PostbackJob) error {
	if q == nil {
		return fmt.Errorf("queue is not initialized")
	}
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid postback job: %w", err)
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("queue is closed")
	}
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	return nil
}

// EnqueueAfter schedules the job onto the queue once delay has elapsed. The
// timer fires on its own goroutine; a closed queue silently drops the job,
// matching the accepted non-durability of in-flight retries.
func (q *MemoryQueue) EnqueueAfter(job PostbackJob, delay time.Duration) error {
	if q == nil {
		return fmt.Errorf("queue is not initialized")
	}
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid postback job: %w", err)
	}
	if delay <= 0 {
		return q.Enqueue(job)
	}

	time.AfterFunc(delay, func() {
		_ = q.Enqueue(job)
	})
	return nil
}

// Dequeue blocks until a job is available or ctx is done, returning jobs in
// FIFO order.
func (q *MemoryQueue) Dequeue(ctx context.Context) (PostbackJob, error) {
	if q == nil {
		return PostbackJob{}, fmt.Errorf("queue is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		q.mu.Lock()
		if len(q.jobs) > 0 {
			job := q.jobs[0]
			q.jobs = q.jobs[1:]
			q.mu.Unlock()
			return job, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return PostbackJob{}, fmt.Errorf("queue is closed")
		}

		select {
		case <-ctx.Done():
			return PostbackJob{}, ctx.Err()
		case <-q.wake:
		}
	}
}

func (q *MemoryQueue) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Close stops accepting new jobs. Pending jobs may still be drained.
func (q *MemoryQueue) Close() {
	if q == nil {
		return
	}
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}
