package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/salah/internal/clock"
	"github.com/julianstephens/salah/internal/logger"
	"github.com/julianstephens/salah/internal/models"
	"github.com/julianstephens/salah/internal/tracker"
)

// Notifier delivers a reminder text.
type Notifier interface {
	Notify(text string) error
}

// Daemon keeps today's reminders and the midnight rollover armed while the
// process runs.
type Daemon struct {
	svc      *tracker.Service
	clock    clock.Clock
	settings models.Settings
	notifier Notifier

	sched *Scheduler
	roll  *Rollover
}

func NewDaemon(svc *tracker.Service, clk clock.Clock, settings models.Settings, n Notifier, opts ...RolloverOption) *Daemon {
	d := &Daemon{
		svc:      svc,
		clock:    clk,
		settings: settings.WithDefaults(),
		notifier: n,
		sched:    NewScheduler(clk),
	}
	d.roll = NewRollover(clk.Location(), d.rollover, opts...)
	return d
}

// Start reconciles the record, arms today's reminders and schedules the
// rollover.
func (d *Daemon) Start() error {
	if _, err := d.svc.Load(); err != nil {
		logger.Warn("Starting with fallback record", "error", err)
	}
	if _, err := d.arm(); err != nil {
		return err
	}
	return d.roll.Start()
}

// Run starts the daemon and blocks until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d.Stop(stopCtx)
	return nil
}

// Stop cancels pending reminders and the rollover job.
func (d *Daemon) Stop(ctx context.Context) {
	d.sched.CancelAll()
	d.roll.Stop(ctx)
	logger.Info("Reminder daemon stopped")
}

// Pending returns the prayers with a reminder still armed today.
func (d *Daemon) Pending() []models.Prayer {
	return d.sched.Pending()
}

// Rollover returns the daemon's rollover job.
func (d *Daemon) Rollover() *Rollover {
	return d.roll
}

func (d *Daemon) rollover() {
	if _, _, err := d.svc.Rollover(); err != nil {
		logger.Warn("Rollover ran with storage errors", "error", err)
	}
	if _, err := d.arm(); err != nil {
		logger.Error("Failed to re-arm reminders", "error", err)
	}
}

func (d *Daemon) arm() (int, error) {
	targets, err := TargetTimes(clock.Today(d.clock), d.settings, d.clock.Location())
	if err != nil {
		return 0, fmt.Errorf("failed to compute reminder times: %w", err)
	}
	n := d.sched.ScheduleAll(targets, d.fire)
	logger.Info("Reminders armed", "count", n)
	return n, nil
}

func (d *Daemon) fire(p models.Prayer) {
	if !d.settings.NotificationsEnabled {
		return
	}
	// Another process may have marked the prayer since the daemon loaded.
	rec, err := d.svc.Load()
	if err != nil {
		logger.Warn("Checking reminder against fallback record", "prayer", p, "error", err)
	}
	if rec.Has(p) {
		logger.Debug("Reminder skipped, already marked", "prayer", p)
		return
	}
	if err := d.notifier.Notify(fmt.Sprintf("Time for %s", p)); err != nil {
		logger.Warn("Reminder delivery failed", "prayer", p, "error", err)
	}
}
