package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/julianstephens/salah/internal/constants"
	"github.com/julianstephens/salah/internal/notifier"
	"github.com/julianstephens/salah/internal/reminder"
)

type RemindCmd struct {
	Once bool `help:"Arm today's reminders, print the schedule and exit."`
}

func (c *RemindCmd) Run(ctx *Context) error {
	d := reminder.NewDaemon(ctx.Service, ctx.Clock, ctx.Settings, ctx.notifier())

	if c.Once {
		if err := d.Start(); err != nil {
			return err
		}
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		defer d.Stop(stopCtx)
		return c.printSchedule(ctx, d)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(ctx.out(), "Reminder daemon running. Press Ctrl+C to stop.")
	return d.Run(sigCtx)
}

func (c *RemindCmd) printSchedule(ctx *Context, d *reminder.Daemon) error {
	targets, err := reminder.TargetTimes(ctx.Service.Today(), ctx.Settings, ctx.Clock.Location())
	if err != nil {
		return err
	}
	pending := d.Pending()
	sort.Slice(pending, func(i, j int) bool { return targets[pending[i]].Before(targets[pending[j]]) })

	w := ctx.out()
	if len(pending) == 0 {
		fmt.Fprintln(w, "No reminders left today.")
	} else {
		fmt.Fprintf(w, "Reminders armed (%d):\n", len(pending))
		for _, p := range pending {
			fmt.Fprintf(w, "  %s  %s\n", targets[p].Format(constants.TimeFormat), p)
		}
	}
	if next := d.Rollover().Next(); !next.IsZero() {
		fmt.Fprintf(w, "Next rollover: %s\n", next.Format("2006-01-02 15:04:05"))
	}
	return nil
}

type NotifyCmd struct {
	Text   string `arg:"" optional:"" help:"Text to send." default:"Test reminder from salah"`
	DryRun bool   `help:"Print the notification to stdout instead of sending it."`
}

func (c *NotifyCmd) Run(ctx *Context) error {
	if !ctx.Settings.NotificationsEnabled {
		fmt.Fprintln(ctx.out(), "Notifications are disabled in settings.")
		return nil
	}
	if c.DryRun {
		fmt.Fprintln(ctx.out(), "[DryRun] "+c.Text)
		return nil
	}
	return ctx.notifier().Notify(c.Text)
}

// notifier returns the configured notifier, falling back to the tray app and
// then the terminal.
func (c *Context) notifier() notifier.Notifier {
	if c.Notifier != nil {
		return c.Notifier
	}
	return notifier.Fallback{notifier.NewTray(), notifier.NewConsole(c.out())}
}
