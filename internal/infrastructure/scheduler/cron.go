package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"HuntScanner/internal/ports"
)

// CronScheduler drives ingestion cycles from a cron expression.
type CronScheduler struct {
	spec string
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
func NewCronScheduler(spec string) *CronScheduler {
	return &CronScheduler{spec: spec}
}

// Start registers the job and begins scheduling. The job also runs once
// immediately so a freshly started process does not wait for the first
// cron boundary.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if c.cron != nil {
		return nil
	}

	c.cron = cron.New()
	_, err := c.cron.AddFunc(c.spec, func() {
		if ctx.Err() != nil {
			return
		}
		job(time.Now())
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", c.spec, err)
	}

	job(time.Now())
	c.cron.Start()
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (c *CronScheduler) Stop(ctx context.Context) error {
	if c.cron == nil {
		return nil
	}
	done := c.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	c.cron = nil
	return nil
}
