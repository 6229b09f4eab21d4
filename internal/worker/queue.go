// Package worker runs the orchestrator's background execution: the
// per-ticket serial queue every ticket mutation goes through, and the
// periodic reconciliation sweeper.
package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Queue serializes jobs per ticket. Jobs submitted for the same ticket run
// one after another in submission order on a single goroutine; jobs for
// different tickets run concurrently. Submit never blocks, so a running job
// may submit follow-up work for its own ticket without deadlocking.
type Queue struct {
	mu    sync.Mutex
	lanes map[int64][]func(context.Context)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *zap.Logger
}

// NewQueue builds a queue whose jobs receive a context that is cancelled
// when the queue shuts down.
func NewQueue(log *zap.Logger) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		lanes:  make(map[int64][]func(context.Context)),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
}

// Submit enqueues a job for a ticket. A lane goroutine is started for the
// ticket when none is draining it.
func (q *Queue) Submit(ticketID int64, job func(context.Context)) {
	q.mu.Lock()
	if pending, draining := q.lanes[ticketID]; draining {
		q.lanes[ticketID] = append(pending, job)
		q.mu.Unlock()
		return
	}
	q.lanes[ticketID] = []func(context.Context){}
	q.wg.Add(1)
	q.mu.Unlock()

	go q.drain(ticketID, job)
}

func (q *Queue) drain(ticketID int64, job func(context.Context)) {
	defer q.wg.Done()
	for {
		q.run(ticketID, job)

		q.mu.Lock()
		pending := q.lanes[ticketID]
		if len(pending) == 0 {
			delete(q.lanes, ticketID)
			q.mu.Unlock()
			return
		}
		job = pending[0]
		q.lanes[ticketID] = pending[1:]
		q.mu.Unlock()
	}
}

func (q *Queue) run(ticketID int64, job func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("ticket job panicked",
				zap.Int64("ticket_id", ticketID),
				zap.Any("panic", r))
		}
	}()
	job(q.ctx)
}

// Shutdown waits for all lanes to drain, then cancels the job context. The
// passed context bounds the wait; on expiry in-flight jobs are cancelled.
func (q *Queue) Shutdown(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		return ctx.Err()
	}
}
