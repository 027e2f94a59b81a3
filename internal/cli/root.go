package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/salah/internal/backup"
	"github.com/julianstephens/salah/internal/clock"
	apperrors "github.com/julianstephens/salah/internal/errors"
	"github.com/julianstephens/salah/internal/models"
	"github.com/julianstephens/salah/internal/notifier"
	"github.com/julianstephens/salah/internal/remote"
	"github.com/julianstephens/salah/internal/storage"
	"github.com/julianstephens/salah/internal/tracker"
)

// RemoteFactory opens the remote store used by `salah sync`.
type RemoteFactory func(ctx context.Context, settings models.Settings) (remote.Store, error)

type Context struct {
	Store     *storage.RecordStore
	Service   *tracker.Service
	Clock     clock.Clock
	Settings  models.Settings
	ConfigDir string
	UserID    string

	Remote   RemoteFactory
	Notifier notifier.Notifier

	Out io.Writer
	Err io.Writer
}

// confirmFunc asks a yes/no question. Tests replace it.
var confirmFunc = func(title, description string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}

var (
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
)

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) errOut() io.Writer {
	if c.Err == nil {
		return os.Stderr
	}
	return c.Err
}

// exports returns the export manager for the configured store.
func (c *Context) exports() *backup.Manager {
	return backup.NewManager(c.ConfigDir, c.Service)
}

// warnRecoverable prints storage trouble that degraded but did not fail a
// command, and returns any other error unchanged.
func (c *Context) warnRecoverable(err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsRecoverable(err) {
		fmt.Fprintf(c.errOut(), "⚠️  Warning: %v\n", err)
		return nil
	}
	return err
}

func confirm(yes bool, title, description string) (bool, error) {
	if yes {
		return true, nil
	}
	return confirmFunc(title, description)
}

// progressBar renders today's completion share without a running program.
func progressBar(rec models.Record) string {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(30))
	return bar.ViewAs(float64(rec.Percent()) / 100)
}

func summary(rec models.Record) string {
	return fmt.Sprintf("%d/%d completed • Streak: %d", len(rec.CompletedToday), models.PrayerCount, rec.Streak)
}

func checkmarks(rec models.Record) string {
	var b strings.Builder
	for _, p := range models.Prayers {
		if rec.Has(p) {
			b.WriteString(doneStyle.Render("  ✓ " + string(p)))
		} else {
			b.WriteString(pendingStyle.Render("  ○ " + string(p)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// resolveExportPath finds a bare filename in the export directory.
func resolveExportPath(mgr *backup.Manager, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if _, err := os.Stat(name); err == nil {
		return name
	}
	possiblePath := filepath.Join(mgr.GetExportDir(), name)
	if _, err := os.Stat(possiblePath); err == nil {
		return possiblePath
	}
	return name
}
