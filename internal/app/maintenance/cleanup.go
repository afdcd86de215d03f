package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/authcore/internal/monitoring"
	"github.com/charlesng35/authcore/pkg/logger"
)

const (
	defaultSessionSpec = "@hourly"
	defaultTokenSpec   = "@daily"
	defaultCacheSpec   = "@hourly"

	// Job names reported to the health tracker and metrics.
	JobSessionCleanup = "session_cleanup"
	JobTokenCleanup   = "token_cleanup"
	JobCacheCleanup   = "cache_cleanup"
)

// Purger removes rows whose lifetime has ended and reports how many were dropped.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgerFunc adapts a function to the Purger interface.
type PurgerFunc func(ctx context.Context) (int64, error)

// PurgeExpired calls f.
func (f PurgerFunc) PurgeExpired(ctx context.Context) (int64, error) {
	return f(ctx)
}

type job struct {
	name     string
	schedule string
	purger   Purger
}

// Cleaner runs the expiry sweeps for sessions, single-use tokens and database cache
// entries on cron schedules.
type Cleaner struct {
	cron    *cron.Cron
	tracker *monitoring.JobTracker
	now     func() time.Time
	log     *zap.Logger
	jobs    []job

	sessionSchedule string
	tokenSchedule   string
	cacheSchedule   string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used to timestamp job runs.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithTracker records every run in tracker.
func WithTracker(tracker *monitoring.JobTracker) Option {
	return func(cleaner *Cleaner) {
		cleaner.tracker = tracker
	}
}

// WithSessionSchedule overrides the cron specification for session cleanup.
func WithSessionSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sessionSchedule = spec
		}
	}
}

// WithTokenSchedule overrides the cron specification for token cleanup.
func WithTokenSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.tokenSchedule = spec
		}
	}
}

// WithCacheSchedule overrides the cron specification for cache cleanup.
func WithCacheSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.cacheSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil purger disables the corresponding job.
func NewCleaner(sessions, tokens, cacheEntries Purger, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		now:             time.Now,
		sessionSchedule: defaultSessionSpec,
		tokenSchedule:   defaultTokenSpec,
		cacheSchedule:   defaultCacheSpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.addJob(JobSessionCleanup, cleaner.sessionSchedule, sessions)
	cleaner.addJob(JobTokenCleanup, cleaner.tokenSchedule, tokens)
	cleaner.addJob(JobCacheCleanup, cleaner.cacheSchedule, cacheEntries)

	return cleaner
}

func (c *Cleaner) addJob(name, schedule string, purger Purger) {
	if purger == nil {
		return
	}
	c.jobs = append(c.jobs, job{name: name, schedule: schedule, purger: purger})
	if c.tracker != nil {
		c.tracker.Register(name)
	}
}

// Start registers cleanup jobs with the cron scheduler and launches it if at least one job is enabled.
func (c *Cleaner) Start() error {
	if len(c.jobs) == 0 {
		return nil
	}

	for _, j := range c.jobs {
		j := j
		if _, err := c.cron.AddFunc(j.schedule, func() {
			_ = c.run(context.Background(), j)
		}); err != nil {
			return fmt.Errorf("maintenance: schedule %s: %w", j.name, err)
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every enabled job sequentially and combines their errors.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	for _, j := range c.jobs {
		errs = multierr.Append(errs, c.run(ctx, j))
	}
	return errs
}

func (c *Cleaner) run(ctx context.Context, j job) (err error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("maintenance: %s panicked: %v", j.name, rec)
		}
		if c.tracker != nil {
			c.tracker.Record(j.name, c.now(), time.Since(start), err)
		}
		if err != nil {
			c.log.Warn("cleanup failed", zap.String("job", j.name), zap.Error(err))
		}
	}()

	removed, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("maintenance: %s: %w", j.name, err)
	}
	if removed > 0 {
		c.log.Info("cleanup completed", zap.String("job", j.name), zap.Int64("removed", removed))
	}
	return nil
}

// Jobs lists the names of the enabled jobs in run order.
func (c *Cleaner) Jobs() []string {
	names := make([]string, 0, len(c.jobs))
	for _, j := range c.jobs {
		names = append(names, j.name)
	}
	return names
}
