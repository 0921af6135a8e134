package qhash

import (
	"sync"
	"time"
)

// Outcome wraps a job result with metadata
type Outcome struct {
	Value     any
	Error     error
	CreatedAt time.Time
}

/*
space hands job outcomes from workers to whoever awaits them. An outcome is
delivered once: either straight to a waiting channel, or kept until the
first Await for its ID. Schedule awaits every job it queues, so a kept
outcome only lives for the moment a fast worker beats the Await.
*/
type space struct {
	mu      sync.Mutex
	values  map[string]Outcome
	waiting map[string][]chan Outcome
}

func newSpace() *space {
	return &space{
		values:  make(map[string]Outcome),
		waiting: make(map[string][]chan Outcome),
	}
}

// Store records the outcome of job id and wakes anyone waiting for it.
func (s *space) Store(id string, value any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := Outcome{
		Value:     value,
		Error:     err,
		CreatedAt: time.Now(),
	}

	channels, ok := s.waiting[id]
	if !ok {
		s.values[id] = outcome
		return
	}

	for _, ch := range channels {
		ch <- outcome
		close(ch)
	}
	delete(s.waiting, id)
}

// Await returns a channel that will receive the outcome when it's available
func (s *space) Await(id string) chan Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Outcome, 1)

	if outcome, ok := s.values[id]; ok {
		delete(s.values, id)
		ch <- outcome
		close(ch)
		return ch
	}

	s.waiting[id] = append(s.waiting[id], ch)
	return ch
}
