package qhash

import "time"

// Job is one unit of harness work, usually a single hash call.
type Job struct {
	ID        string
	Fn        func() (any, error)
	StartTime time.Time
}
