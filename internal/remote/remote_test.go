package remote

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/julianstephens/salah/internal/models"
)

func TestMemoryGetMissing(t *testing.T) {
	m := NewMemory()
	_, err := m.Get(context.Background(), "user-1")
	if !IsNotFound(err) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMemorySetAndGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	rec := models.DefaultRecord("2026-02-01")
	rec.CompletedToday = []models.Prayer{models.Fajr, models.Dhuhr}
	rec.Streak = 2

	if err := m.Set(ctx, "user-1", rec); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	patch, err := m.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got, err := patch.Apply(models.DefaultRecord("2020-01-01"))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("got %+v, want %+v", got, rec)
	}

	if _, err := m.Get(ctx, "user-2"); !IsNotFound(err) {
		t.Errorf("other user should have no copy, got %v", err)
	}
}

func TestMemoryPutPartial(t *testing.T) {
	m := NewMemory()
	if err := m.Put("user-1", models.Patch{"streak": []byte("6")}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	patch, err := m.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !patch.Has(models.FieldStreak) || patch.Has(models.FieldHistory) {
		t.Errorf("patch fields = %v, want only streak", *patch)
	}
}

func TestMemoryFailure(t *testing.T) {
	m := NewMemory()
	boom := errors.New("offline")
	m.Fail(boom)

	if _, err := m.Get(context.Background(), "u"); !errors.Is(err, boom) {
		t.Errorf("Get error = %v", err)
	}
	if err := m.Set(context.Background(), "u", models.DefaultRecord("2026-02-01")); !errors.Is(err, boom) {
		t.Errorf("Set error = %v", err)
	}
	gets, sets := m.Calls()
	if gets != 1 || sets != 1 {
		t.Errorf("Calls() = %d, %d", gets, sets)
	}
}

func TestMemoryCanceledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Get(ctx, "u"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get error = %v, want context.Canceled", err)
	}
}

func TestFirestoreFieldConversion(t *testing.T) {
	rec := models.DefaultRecord("2026-02-01")
	rec.MissedCounts[models.Asr] = 3
	rec.History = []models.HistoryEntry{{Date: "2026-01-31", Completed: []models.Prayer{models.Isha}}}

	fields, err := fieldsFromRecord(rec)
	if err != nil {
		t.Fatalf("fieldsFromRecord failed: %v", err)
	}
	if fields[models.FieldCurrentDate] != "2026-02-01" {
		t.Errorf("currentDate field = %v", fields[models.FieldCurrentDate])
	}

	// Firestore hands integers back as int64.
	fields[models.FieldStreak] = int64(5)

	patch, err := patchFromFields(fields)
	if err != nil {
		t.Fatalf("patchFromFields failed: %v", err)
	}
	got, err := patch.Apply(models.DefaultRecord("2020-01-01"))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	rec.Streak = 5
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("got %+v, want %+v", got, rec)
	}
}
