package qhash

import (
	"time"

	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
)

// Worker processes jobs
type Worker struct {
	id   int
	pool *Q
}

func (w *Worker) run() {
	for {
		select {
		case <-w.pool.ctx.Done():
			return
		case job := <-w.pool.jobs:
			result, err := w.processJob(job)
			w.pool.space.Store(job.ID, result, err)
		}
	}
}

/*
processJob runs the job once. Hash failures are input errors that come out
the same on every attempt, so nothing is retried. A panic, which only a
malformed circuit can cause, becomes the job's error.
*/
func (w *Worker) processJob(job Job) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, errors.Errorf("job %s panicked: %v", job.ID, r)
			errnie.Error(err)
		}
	}()

	result, err = job.Fn()
	errnie.Debug("worker %d finished job %s in %v", w.id, job.ID, time.Since(job.StartTime))

	return result, err
}
