package cli

import (
	"fmt"
	"os"

	"github.com/julianstephens/salah/internal/keyring"
	"github.com/julianstephens/salah/internal/logger"
	"github.com/julianstephens/salah/internal/storage"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	w := ctx.out()
	fmt.Fprintln(w, "Running diagnostics...")
	fmt.Fprintln(w)

	hasError := false
	check := func(name string, err error) {
		if err != nil {
			fmt.Fprintf(w, "❌ %s: FAIL\n", name)
			fmt.Fprintf(w, "   Error: %v\n", err)
			hasError = true
			return
		}
		fmt.Fprintf(w, "✓ %s: OK\n", name)
	}
	warn := func(name string, err error) {
		if err != nil {
			fmt.Fprintf(w, "⚠ %s: WARNING\n", name)
			fmt.Fprintf(w, "   %v\n", err)
			return
		}
		fmt.Fprintf(w, "✓ %s: OK\n", name)
	}

	reachable := checkStoreReachable(ctx)
	check("Storage reachable", reachable)
	if reachable == nil {
		check("Stored record", checkRecord(ctx))
		check("Settings", checkSettings(ctx))
	} else {
		fmt.Fprintln(w, "⊘ Stored record: SKIPPED (storage not reachable)")
		fmt.Fprintln(w, "⊘ Settings: SKIPPED (storage not reachable)")
	}
	warn("Persistent storage", checkPersistent(ctx))
	warn("Exports present", checkExportsPresent(ctx))
	warn("Log file", checkLogFile(ctx))
	warn("OS keyring", checkKeyring())
	check("Clock/timezone", checkClockTimezone(ctx))

	fmt.Fprintln(w)
	if hasError {
		fmt.Fprintln(w, "Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	fmt.Fprintln(w, "All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *Context) error {
	if _, _, err := ctx.Store.Raw(); err != nil {
		return err
	}
	if sqliteStore, ok := ctx.Store.KV().(*storage.SQLiteStore); ok {
		db := sqliteStore.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkRecord(ctx *Context) error {
	raw, ok, err := ctx.Store.Raw()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	rec, err := storage.DecodeRecord(raw, ctx.Service.Today())
	if err != nil {
		return fmt.Errorf("stored record is unreadable and will be replaced on next write: %w", err)
	}
	if len(rec.CompletedToday) > len(rec.Normalize().CompletedToday) {
		return fmt.Errorf("stored record lists unknown or duplicate prayers")
	}
	return nil
}

func checkSettings(ctx *Context) error {
	settings, err := ctx.Store.LoadSettings()
	if err != nil {
		return err
	}
	return settings.Validate()
}

func checkExportsPresent(ctx *Context) error {
	exports, err := ctx.exports().ListExports()
	if err != nil {
		return fmt.Errorf("failed to list exports: %w", err)
	}
	if len(exports) == 0 {
		return fmt.Errorf("no exports found - consider creating one with 'salah export create'")
	}
	return nil
}

func checkPersistent(ctx *Context) error {
	if _, ok := ctx.Store.KV().(*storage.MemoryStore); ok {
		return fmt.Errorf("storage could not be opened; changes are kept in memory for this session only")
	}
	return nil
}

func checkLogFile(ctx *Context) error {
	path := logger.Path(ctx.ConfigDir)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no log file at %s yet", path)
	}
	fmt.Fprintf(ctx.out(), "   Note: logging to %s\n", path)
	return nil
}

func checkKeyring() error {
	if !keyring.IsAvailable() {
		return fmt.Errorf("OS keyring is not available; pass --user for sync")
	}
	return nil
}

func checkClockTimezone(ctx *Context) error {
	now := ctx.Clock.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(ctx.out(), "   Note: timezone is %s, today is %s\n", ctx.Clock.Location(), ctx.Service.Today())
	return nil
}
