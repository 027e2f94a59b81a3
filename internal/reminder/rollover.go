package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/salah/internal/constants"
	"github.com/julianstephens/salah/internal/logger"
)

// Rollover runs the day rollover on a cron schedule shortly after local
// midnight while the process stays up.
type Rollover struct {
	mu      sync.Mutex
	cron    *cron.Cron
	spec    string
	entry   cron.EntryID
	run     func()
	started bool
}

// RolloverOption configures a Rollover.
type RolloverOption func(*Rollover)

// WithSpec overrides the cron spec (six fields, seconds first).
func WithSpec(spec string) RolloverOption {
	return func(r *Rollover) {
		r.spec = spec
	}
}

func NewRollover(loc *time.Location, run func(), opts ...RolloverOption) *Rollover {
	if loc == nil {
		loc = time.Local
	}
	cronLog := logger.CronLogger()
	r := &Rollover{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		spec: constants.RolloverSpec,
		run:  run,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start arms the rollover job. Calling it again replaces the previous entry,
// so there is never more than one pending rollover.
func (r *Rollover) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		r.cron.Remove(r.entry)
	}

	entry, err := r.cron.AddFunc(r.spec, func() {
		logger.Debug("Running scheduled rollover")
		r.run()
	})
	if err != nil {
		return fmt.Errorf("error scheduling rollover: %w", err)
	}
	r.entry = entry
	r.started = true
	r.cron.Start()
	logger.Info("Rollover scheduled", "spec", r.spec, "next", r.nextLocked().Format(time.RFC3339))
	return nil
}

// Stop removes the job and waits for a running rollover to finish or ctx to
// end.
func (r *Rollover) Stop(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.cron.Remove(r.entry)
		r.started = false
	}
	r.mu.Unlock()

	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunNow runs the rollover immediately, outside the schedule.
func (r *Rollover) RunNow() {
	r.run()
}

// Next returns when the rollover fires next, or the zero time if not started.
func (r *Rollover) Next() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextLocked()
}

// Entries returns the number of scheduled rollover jobs.
func (r *Rollover) Entries() int {
	return len(r.cron.Entries())
}

func (r *Rollover) nextLocked() time.Time {
	if !r.started {
		return time.Time{}
	}
	e := r.cron.Entry(r.entry)
	if e.Next.IsZero() && e.Schedule != nil {
		return e.Schedule.Next(time.Now().In(r.cron.Location()))
	}
	return e.Next
}
