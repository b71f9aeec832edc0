package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	appschedule "hotelbook/internal/app/schedule"
)

// Cron runs registered jobs on robfig/cron. A job still running when its next
// tick fires is skipped rather than stacked.
type Cron struct {
	cron    *cron.Cron
	ctx     context.Context
	timeout time.Duration
	logger  *slog.Logger
}

// NewCron binds jobs to ctx; cancelling it stops running jobs.
func NewCron(ctx context.Context, timeout time.Duration, logger *slog.Logger) *Cron {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cron{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		ctx:     ctx,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *Cron) Every(spec string, name string, job appschedule.Job) error {
	_, err := c.cron.AddFunc(spec, func() {
		c.run(name, job)
	})
	return err
}

func (c *Cron) run(name string, job appschedule.Job) {
	ctx := c.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	started := time.Now()
	if err := job(ctx); err != nil {
		c.logger.Error("scheduled job failed", "job", name, "error", err, "duration", time.Since(started))
		return
	}
	c.logger.Debug("scheduled job finished", "job", name, "duration", time.Since(started))
}

func (c *Cron) Start() {
	c.cron.Start()
}

// Stop waits for running jobs to return.
func (c *Cron) Stop() {
	<-c.cron.Stop().Done()
}

var _ appschedule.Scheduler = (*Cron)(nil)
