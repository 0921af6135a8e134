package qhash

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
)

/*
Q is a fixed-size worker pool. Hash calls share no mutable state, so the
harnesses fan independent inputs out over Q and collect the outcomes by
job ID.
*/
type Q struct {
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	jobs    chan Job
	space   *space
	config  *Config
	workers []*Worker

	scheduled          atomic.Int64
	schedulingFailures atomic.Int64
	closeOnce          sync.Once
}

// NewQ starts config.Workers workers that live until ctx is done or Close.
func NewQ(ctx context.Context, config *Config) *Q {
	if config == nil {
		config = NewConfig()
	}

	ctx, cancel := context.WithCancel(ctx)
	workers := max(config.Workers, 1)

	q := &Q{
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(chan Job, workers*10),
		space:  newSpace(),
		config: config,
	}

	for i := 0; i < workers; i++ {
		q.startWorker(i)
	}

	errnie.Info("NewQ - %d workers", workers)

	return q
}

/*
Schedule queues fn and returns a channel that receives its Outcome. When the
queue stays full past the scheduling timeout the channel carries the error
instead.
*/
func (q *Q) Schedule(id string, fn func() (any, error)) chan Outcome {
	ctx, cancel := context.WithTimeout(q.ctx, q.getSchedulingTimeout())
	defer cancel()

	job := Job{
		ID:        id,
		Fn:        fn,
		StartTime: time.Now(),
	}

	select {
	case q.jobs <- job:
		q.scheduled.Add(1)
		return q.space.Await(id)
	case <-ctx.Done():
		q.schedulingFailures.Add(1)

		ch := make(chan Outcome, 1)
		ch <- Outcome{
			Error:     errors.Wrapf(ctx.Err(), "job %s scheduling", id),
			CreatedAt: time.Now(),
		}
		close(ch)
		return ch
	}
}

func (q *Q) ExportMetrics() map[string]interface{} {
	return map[string]interface{}{
		"worker_count":        len(q.workers),
		"queue_size":          len(q.jobs),
		"scheduled":           q.scheduled.Load(),
		"scheduling_failures": q.schedulingFailures.Load(),
	}
}

func (q *Q) startWorker(id int) {
	worker := &Worker{
		id:   id,
		pool: q,
	}
	q.workers = append(q.workers, worker)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		worker.run()
	}()
}

func (q *Q) getSchedulingTimeout() time.Duration {
	if q.config != nil && q.config.SchedulingTimeout > 0 {
		return q.config.SchedulingTimeout
	}
	return 5 * time.Second
}

// Close stops the workers and waits for them. Queued jobs that never ran
// are dropped.
func (q *Q) Close() {
	if q == nil {
		return
	}

	q.closeOnce.Do(func() {
		q.cancel()
		q.wg.Wait()
		errnie.Info("Q closed after %d jobs", q.scheduled.Load())
	})
}
