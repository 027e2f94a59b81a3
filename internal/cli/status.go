package cli

import (
	"fmt"

	"github.com/julianstephens/salah/internal/models"
	"github.com/julianstephens/salah/internal/tui/components/history"
)

type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *Context) error {
	rec, err := ctx.Service.Load()
	if err := ctx.warnRecoverable(err); err != nil {
		return err
	}

	w := ctx.out()
	fmt.Fprintln(w, titleStyle.Render(rec.CurrentDate))
	fmt.Fprintf(w, "%s %d%%\n", progressBar(rec), rec.Percent())
	fmt.Fprintln(w, summary(rec))
	fmt.Fprint(w, checkmarks(rec))
	fmt.Fprintf(w, "Total missed: %d\n", rec.MissedTotal())
	return nil
}

type ToggleCmd struct {
	Prayer string `arg:"" help:"Prayer to mark or unmark (name or 1-5)."`
}

func (c *ToggleCmd) Run(ctx *Context) error {
	p, err := models.ParsePrayer(c.Prayer)
	if err != nil {
		return err
	}

	rec, err := ctx.Service.Toggle(p)
	if err := ctx.warnRecoverable(err); err != nil {
		return err
	}

	if rec.Has(p) {
		fmt.Fprintf(ctx.out(), "✓ %s marked\n", p)
	} else {
		fmt.Fprintf(ctx.out(), "○ %s unmarked\n", p)
	}
	fmt.Fprintln(ctx.out(), summary(rec))
	return nil
}

type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *Context) error {
	rec, err := ctx.Service.Load()
	if err := ctx.warnRecoverable(err); err != nil {
		return err
	}

	w := ctx.out()
	fmt.Fprintf(w, "Streak: %d\n", rec.Streak)
	fmt.Fprintf(w, "Total missed: %d\n\n", rec.MissedTotal())
	for _, s := range rec.Stats() {
		fmt.Fprintf(w, "  %-8s missed %d • marked %d times\n", s.Prayer, s.Missed, s.Marked)
	}
	return nil
}

type HistoryCmd struct {
	Days int `help:"Number of past days to show (0 for all)." default:"7"`
}

func (c *HistoryCmd) Run(ctx *Context) error {
	if c.Days < 0 {
		return fmt.Errorf("--days must not be negative")
	}
	rec, err := ctx.Service.Load()
	if err := ctx.warnRecoverable(err); err != nil {
		return err
	}

	w := ctx.out()
	if len(rec.History) == 0 {
		fmt.Fprintln(w, "No history yet.")
		return nil
	}

	entries := rec.History
	if c.Days > 0 && len(entries) > c.Days {
		entries = entries[:c.Days]
	}
	for _, h := range entries {
		fmt.Fprintf(w, "%s  %d/%d  %s\n", h.Date, len(h.Completed), models.PrayerCount, history.Marks(h.Completed))
	}
	return nil
}
