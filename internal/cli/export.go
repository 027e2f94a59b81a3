package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/salah/internal/constants"
	apperrors "github.com/julianstephens/salah/internal/errors"
	"github.com/julianstephens/salah/internal/storage"
)

type ExportCreateCmd struct {
	Stdout   bool `help:"Print the export JSON instead of writing a file."`
	Snapshot bool `help:"Also copy the SQLite database file into the export directory."`
}

func (c *ExportCreateCmd) Run(ctx *Context) error {
	if c.Stdout {
		_, data, err := ctx.Service.Export()
		if err != nil {
			return err
		}
		fmt.Fprintln(ctx.out(), string(data))
		return nil
	}

	mgr := ctx.exports()
	path, err := mgr.CreateExport()
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Fprintf(ctx.out(), "✓ Export created: %s\n", filepath.Base(path))

	if c.Snapshot {
		sqliteStore, ok := ctx.Store.KV().(*storage.SQLiteStore)
		if !ok {
			return errors.New("database snapshots are only available for SQLite storage")
		}
		snap, err := mgr.SnapshotDatabase(sqliteStore.GetConfigPath())
		if err != nil {
			return fmt.Errorf("snapshot failed: %w", err)
		}
		fmt.Fprintf(ctx.out(), "✓ Database snapshot: %s\n", filepath.Base(snap))
	}
	return nil
}

type ExportListCmd struct{}

func (c *ExportListCmd) Run(ctx *Context) error {
	mgr := ctx.exports()
	exports, err := mgr.ListExports()
	if err != nil {
		return fmt.Errorf("failed to list exports: %w", err)
	}

	w := ctx.out()
	if len(exports) == 0 {
		fmt.Fprintln(w, "No exports found.")
		fmt.Fprintf(w, "Exports are stored in: %s\n", mgr.GetExportDir())
		return nil
	}

	fmt.Fprintf(w, "Available exports (%d total, keeping most recent %d):\n\n", len(exports), constants.MaxExports)
	for _, e := range exports {
		sizeKB := float64(e.Size) / 1024.0
		fmt.Fprintf(w, "  %s  %s  (%.1f KB)\n", e.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(e.Path), sizeKB)
	}
	fmt.Fprintf(w, "\nExport directory: %s\n", mgr.GetExportDir())
	return nil
}

type ImportCmd struct {
	File string `arg:"" help:"Exported record JSON to import." type:"existingfile"`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *ImportCmd) Run(ctx *Context) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	ok, err := confirm(c.Yes, "Import "+filepath.Base(c.File)+"?", "Fields in the file replace your current record.")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(ctx.out(), "Import cancelled.")
		return nil
	}

	rec, err := ctx.Service.Import(data)
	if errors.Is(err, apperrors.ErrImportValidation) {
		return err
	}
	if err := ctx.warnRecoverable(err); err != nil {
		return err
	}

	fmt.Fprintf(ctx.out(), "✓ Imported record for %s (%d history days)\n", rec.CurrentDate, len(rec.History))
	fmt.Fprintln(ctx.out(), summary(rec))
	return nil
}

type ExportRestoreCmd struct {
	File string `arg:"" help:"Path or filename of the export to restore."`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *ExportRestoreCmd) Run(ctx *Context) error {
	mgr := ctx.exports()
	path := resolveExportPath(mgr, c.File)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("export file not found: %s", path)
	}

	ok, err := confirm(c.Yes,
		"Restore from "+filepath.Base(path)+"?",
		"Your current record is exported first, then replaced by the export's fields.")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(ctx.out(), "Restore cancelled.")
		return nil
	}

	rec, current, err := mgr.RestoreExport(path)
	if current != "" {
		fmt.Fprintf(ctx.out(), "Current record saved to %s\n", filepath.Base(current))
	}
	if errors.Is(err, apperrors.ErrImportValidation) {
		return err
	}
	if err := ctx.warnRecoverable(err); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	fmt.Fprintln(ctx.out(), "✓ Record restored successfully!")
	fmt.Fprintln(ctx.out(), summary(rec))
	return nil
}

type ResetCmd struct {
	Yes bool `short:"y" help:"Skip the confirmation prompt."`
}

func (c *ResetCmd) Run(ctx *Context) error {
	ok, err := confirm(c.Yes, "Reset all prayer data?", "Today's marks, missed counts, streak and history are cleared.")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(ctx.out(), "Reset cancelled.")
		return nil
	}

	rec, err := ctx.Service.Reset()
	if err := ctx.warnRecoverable(err); err != nil {
		return err
	}
	fmt.Fprintf(ctx.out(), "✓ Record reset for %s\n", rec.CurrentDate)
	return nil
}
