package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/salah/internal/clock"
	"github.com/julianstephens/salah/internal/models"
	"github.com/julianstephens/salah/internal/storage"
	"github.com/julianstephens/salah/internal/tracker"
)

// TestIntegrationExportRestoreWorkflow exports a real record, changes it, and
// restores the export through the tracker's import path.
func TestIntegrationExportRestoreWorkflow(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "salah.db")

	kv := storage.NewSQLiteStore(dbPath)
	if err := kv.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	defer kv.Close()

	clk := clock.NewFake(time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC))
	svc := tracker.NewService(storage.NewRecordStore(kv), clk)
	mgr := NewManager(tempDir, svc)

	if _, err := svc.Toggle(models.Fajr); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	exportPath, err := mgr.CreateExport()
	if err != nil {
		t.Fatalf("CreateExport failed: %v", err)
	}

	if _, err := svc.Toggle(models.Dhuhr); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if _, err := svc.Toggle(models.Fajr); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	rec, current, err := mgr.RestoreExport(exportPath)
	if err != nil {
		t.Fatalf("RestoreExport failed: %v", err)
	}
	if !rec.Has(models.Fajr) || rec.Has(models.Dhuhr) {
		t.Errorf("restored CompletedToday = %v, want [Fajr]", rec.CompletedToday)
	}

	data, err := os.ReadFile(current)
	if err != nil {
		t.Fatalf("pre-restore export unreadable: %v", err)
	}
	pre, err := models.ParseImport(data, "2026-02-01")
	if err != nil {
		t.Fatalf("pre-restore export invalid: %v", err)
	}
	if !pre.Has(models.Dhuhr) || pre.Has(models.Fajr) {
		t.Errorf("pre-restore export = %v, want [Dhuhr]", pre.CompletedToday)
	}

	reloaded, err := svc.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reloaded.Has(models.Fajr) || reloaded.Has(models.Dhuhr) {
		t.Errorf("restore not persisted: %v", reloaded.CompletedToday)
	}
}

func TestIntegrationSnapshotDatabase(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "salah.db")

	kv := storage.NewSQLiteStore(dbPath)
	if err := kv.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	if err := kv.Set("salahData", `{"streak":2}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	kv.Close()

	mgr := NewManager(tempDir, nil)
	snap, err := mgr.SnapshotDatabase(dbPath)
	if err != nil {
		t.Fatalf("SnapshotDatabase failed: %v", err)
	}
	if err := VerifyDatabase(snap); err != nil {
		t.Fatalf("snapshot is not a valid database: %v", err)
	}

	copyStore := storage.NewSQLiteStore(snap)
	if err := copyStore.Init(); err != nil {
		t.Fatalf("failed to open snapshot: %v", err)
	}
	defer copyStore.Close()
	got, ok, err := copyStore.Get("salahData")
	if err != nil || !ok || got != `{"streak":2}` {
		t.Errorf("snapshot content = %q, %v, %v", got, ok, err)
	}

	// Snapshots are not record exports.
	exports, err := mgr.ListExports()
	if err != nil {
		t.Fatalf("ListExports failed: %v", err)
	}
	if len(exports) != 0 {
		t.Errorf("snapshot listed as export: %+v", exports)
	}
}
