package schedule

import "context"

// Job is a recurring unit of background work.
type Job func(ctx context.Context) error

type Scheduler interface {
	// Every registers job under name on a cron-style spec such as "@every 5m".
	Every(spec string, name string, job Job) error
}
