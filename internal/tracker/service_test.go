package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/salah/internal/clock"
	"github.com/julianstephens/salah/internal/constants"
	apperrors "github.com/julianstephens/salah/internal/errors"
	"github.com/julianstephens/salah/internal/models"
	"github.com/julianstephens/salah/internal/remote"
	"github.com/julianstephens/salah/internal/storage"
)

func setupTestService(t *testing.T, opts ...Option) (*Service, *storage.MemoryStore, *clock.Fake) {
	t.Helper()
	kv := storage.NewMemoryStore()
	clk := clock.NewFake(time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC))
	return NewService(storage.NewRecordStore(kv), clk, opts...), kv, clk
}

func storeRecord(t *testing.T, kv *storage.MemoryStore, rec models.Record) {
	t.Helper()
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := kv.Set(constants.RecordKey, string(data)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

func storedRecord(t *testing.T, kv *storage.MemoryStore) models.Record {
	t.Helper()
	raw, ok, err := kv.Get(constants.RecordKey)
	if err != nil || !ok {
		t.Fatalf("no stored record (ok=%v, err=%v)", ok, err)
	}
	rec, err := storage.DecodeRecord(raw, today)
	if err != nil {
		t.Fatalf("stored record unreadable: %v", err)
	}
	return rec
}

func TestLoadFreshInstall(t *testing.T) {
	svc, _, _ := setupTestService(t)

	rec, err := svc.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := models.DefaultRecord(today)
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("Load() = %+v, want %+v", rec, want)
	}
}

func TestLoadRollsOverAndPersists(t *testing.T) {
	svc, kv, _ := setupTestService(t)
	storeRecord(t, kv, recordFor(yesterday, models.Prayers...))

	rec, err := svc.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rec.CurrentDate != today || rec.Streak != 1 {
		t.Errorf("Load() = %+v, want rolled over with streak 1", rec)
	}

	stored := storedRecord(t, kv)
	if stored.CurrentDate != today || len(stored.History) != 1 {
		t.Errorf("rollover not persisted: %+v", stored)
	}
}

func TestLoadCorruptStorageFallsBackToDefault(t *testing.T) {
	svc, kv, _ := setupTestService(t)
	_ = kv.Set(constants.RecordKey, "{{{")

	rec, err := svc.Load()
	if !errors.Is(err, apperrors.ErrStorageRead) {
		t.Errorf("Load error = %v, want ErrStorageRead", err)
	}
	if !reflect.DeepEqual(rec, models.DefaultRecord(today)) {
		t.Errorf("expected default record, got %+v", rec)
	}
}

func TestLoadReadFailureFallsBackToDefault(t *testing.T) {
	svc, kv, _ := setupTestService(t)
	kv.FailGets(errors.New("io error"))

	rec, err := svc.Load()
	if !errors.Is(err, apperrors.ErrStorageRead) {
		t.Errorf("Load error = %v, want ErrStorageRead", err)
	}
	if rec.CurrentDate != today {
		t.Errorf("expected default record for today, got %+v", rec)
	}
}

func TestToggleTwiceLeavesMissedCountsAlone(t *testing.T) {
	svc, kv, _ := setupTestService(t)
	before, _ := svc.Load()

	rec, err := svc.Toggle(models.Asr)
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !rec.Has(models.Asr) {
		t.Errorf("Asr should be marked, got %v", rec.CompletedToday)
	}
	if !reflect.DeepEqual(rec.MissedCounts, before.MissedCounts) {
		t.Errorf("toggle changed missed counts: %v", rec.MissedCounts)
	}

	rec, err = svc.Toggle(models.Asr)
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if len(rec.CompletedToday) != 0 {
		t.Errorf("CompletedToday = %v, want empty", rec.CompletedToday)
	}
	if !reflect.DeepEqual(rec, before) {
		t.Errorf("toggle pair changed record:\n got  %+v\n want %+v", rec, before)
	}
	if stored := storedRecord(t, kv); len(stored.CompletedToday) != 0 {
		t.Errorf("stored CompletedToday = %v, want empty", stored.CompletedToday)
	}
}

func TestToggleUnknownPrayer(t *testing.T) {
	svc, _, _ := setupTestService(t)
	if _, err := svc.Toggle(models.Prayer("Tahajjud")); err == nil {
		t.Error("expected error for unknown prayer")
	}
}

func TestToggleAfterMidnightRollsOverFirst(t *testing.T) {
	svc, _, clk := setupTestService(t)
	for _, p := range models.Prayers {
		if _, err := svc.Toggle(p); err != nil {
			t.Fatalf("Toggle(%s) failed: %v", p, err)
		}
	}

	clk.Set(time.Date(2026, 2, 2, 6, 0, 0, 0, time.UTC))
	rec, err := svc.Toggle(models.Fajr)
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if rec.CurrentDate != "2026-02-02" || rec.Streak != 1 {
		t.Errorf("expected rollover before toggle, got %+v", rec)
	}
	if !reflect.DeepEqual(rec.CompletedToday, []models.Prayer{models.Fajr}) {
		t.Errorf("CompletedToday = %v, want [Fajr]", rec.CompletedToday)
	}
}

func TestWriteFailureKeepsInMemoryRecord(t *testing.T) {
	svc, kv, _ := setupTestService(t)
	kv.FailSets(errors.New("read-only filesystem"))

	rec, err := svc.Toggle(models.Dhuhr)
	if !errors.Is(err, apperrors.ErrStorageWrite) {
		t.Errorf("Toggle error = %v, want ErrStorageWrite", err)
	}
	if !rec.Has(models.Dhuhr) {
		t.Error("toggle should still apply in memory")
	}

	rec, _ = svc.Toggle(models.Maghrib)
	if !rec.Has(models.Dhuhr) || !rec.Has(models.Maghrib) {
		t.Errorf("in-memory record lost earlier toggle: %v", rec.CompletedToday)
	}

	kv.FailSets(nil)
	if _, err := svc.Toggle(models.Isha); err != nil {
		t.Fatalf("Toggle after recovery failed: %v", err)
	}
	stored := storedRecord(t, kv)
	want := []models.Prayer{models.Dhuhr, models.Maghrib, models.Isha}
	if !reflect.DeepEqual(stored.CompletedToday, want) {
		t.Errorf("stored CompletedToday = %v, want %v", stored.CompletedToday, want)
	}
}

func TestServiceAdoptsExternalWrite(t *testing.T) {
	svc, kv, _ := setupTestService(t)
	if _, err := svc.Toggle(models.Fajr); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	// Another writer replaces the stored record.
	other := recordFor(today, models.Asr)
	other.Streak = 12
	storeRecord(t, kv, other)

	rec, err := svc.Toggle(models.Isha)
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	want := []models.Prayer{models.Asr, models.Isha}
	if !reflect.DeepEqual(rec.CompletedToday, want) || rec.Streak != 12 {
		t.Errorf("expected toggle applied on top of the external write, got %+v", rec)
	}
}

func TestConcurrentTogglesAreSerialized(t *testing.T) {
	svc, kv, _ := setupTestService(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Toggle(models.Maghrib)
		}()
	}
	wg.Wait()

	// An even number of flips leaves Maghrib unmarked.
	if rec := svc.Current(); rec.Has(models.Maghrib) {
		t.Errorf("CompletedToday = %v, want Maghrib unmarked", rec.CompletedToday)
	}
	if stored := storedRecord(t, kv); stored.Has(models.Maghrib) {
		t.Errorf("stored CompletedToday = %v", stored.CompletedToday)
	}
}

func TestRolloverReportsChange(t *testing.T) {
	svc, _, clk := setupTestService(t)
	if _, _, err := svc.Rollover(); err != nil {
		t.Fatalf("Rollover failed: %v", err)
	}
	if _, err := svc.Toggle(models.Fajr); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	_, rolled, _ := svc.Rollover()
	if rolled {
		t.Error("no rollover expected within the same day")
	}

	clk.Advance(24 * time.Hour)
	rec, rolled, err := svc.Rollover()
	if err != nil {
		t.Fatalf("Rollover failed: %v", err)
	}
	if !rolled {
		t.Fatal("expected rollover after a day passed")
	}
	if rec.MissedCounts[models.Fajr] != 0 || rec.MissedCounts[models.Isha] != 1 || rec.Streak != 0 {
		t.Errorf("unexpected rollover result %+v", rec)
	}
}

func TestImport(t *testing.T) {
	svc, kv, _ := setupTestService(t)
	if _, err := svc.Toggle(models.Fajr); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	rec, err := svc.Import([]byte(`{"completedToday":["Asr","Isha"],"streak":30}`))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if rec.CurrentDate != today || rec.Streak != 30 {
		t.Errorf("Import() = %+v", rec)
	}
	if !reflect.DeepEqual(rec.CompletedToday, []models.Prayer{models.Asr, models.Isha}) {
		t.Errorf("CompletedToday = %v", rec.CompletedToday)
	}
	if stored := storedRecord(t, kv); stored.Streak != 30 {
		t.Errorf("import not persisted: %+v", stored)
	}
}

func TestImportRejectsMalformedWithoutChanges(t *testing.T) {
	svc, kv, _ := setupTestService(t)
	if _, err := svc.Toggle(models.Fajr); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	before, _, _ := kv.Get(constants.RecordKey)

	for _, payload := range []string{`not json`, `[]`, `"record"`, `{"history":"yesterday"}`} {
		if _, err := svc.Import([]byte(payload)); !errors.Is(err, apperrors.ErrImportValidation) {
			t.Errorf("Import(%s) error = %v, want ErrImportValidation", payload, err)
		}
	}

	after, _, _ := kv.Get(constants.RecordKey)
	if before != after {
		t.Error("failed import changed the stored record")
	}
	if !svc.Current().Has(models.Fajr) {
		t.Error("failed import changed the in-memory record")
	}
}

func TestImportOlderRecordRollsOver(t *testing.T) {
	svc, _, _ := setupTestService(t)
	rec, err := svc.Import([]byte(`{"currentDate":"2026-01-31","completedToday":["Fajr","Dhuhr","Asr","Maghrib","Isha"],"streak":4}`))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if rec.CurrentDate != today || rec.Streak != 5 || len(rec.History) != 1 {
		t.Errorf("expected imported day folded into history, got %+v", rec)
	}
}

func TestExport(t *testing.T) {
	svc, _, _ := setupTestService(t)
	if _, err := svc.Toggle(models.Dhuhr); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	name, data, err := svc.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if name != "salah-2026-02-01.json" {
		t.Errorf("name = %q", name)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("export is not a JSON object: %v", err)
	}
	for _, f := range []string{"currentDate", "completedToday", "missedCounts", "streak", "history", "queue"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("export missing field %q", f)
		}
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Error("export should be indented")
	}

	// An export imports back to the same record.
	fresh, _, _ := setupTestService(t)
	got, err := fresh.Import(data)
	if err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	if !reflect.DeepEqual(got, svc.Current()) {
		t.Errorf("re-import mismatch:\n got  %+v\n want %+v", got, svc.Current())
	}
}

func TestReset(t *testing.T) {
	svc, kv, _ := setupTestService(t)
	storeRecord(t, kv, func() models.Record {
		r := recordFor(today, models.Fajr)
		r.Streak = 8
		r.History = []models.HistoryEntry{{Date: yesterday, Completed: models.Prayers}}
		return r
	}())

	rec, err := svc.Reset()
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if !reflect.DeepEqual(rec, models.DefaultRecord(today)) {
		t.Errorf("Reset() = %+v", rec)
	}
	if stored := storedRecord(t, kv); stored.Streak != 0 || len(stored.History) != 0 {
		t.Errorf("reset not persisted: %+v", stored)
	}
}

func TestChangeQueueCoalesces(t *testing.T) {
	svc, _, _ := setupTestService(t, WithChangeQueue())

	_, _ = svc.Toggle(models.Fajr)
	rec, _ := svc.Toggle(models.Asr)

	if len(rec.Queue) != 1 || rec.Queue[0].Op != OpUpdate || rec.Queue[0].ID == "" {
		t.Errorf("Queue = %+v, want one update op", rec.Queue)
	}
	if rec.Queue[0].CreatedAt != "2026-02-01T09:30:00Z" {
		t.Errorf("CreatedAt = %q", rec.Queue[0].CreatedAt)
	}
}

func TestSyncRequiresUser(t *testing.T) {
	svc, _, _ := setupTestService(t)
	if _, err := svc.Sync(context.Background(), remote.NewMemory(), " "); !errors.Is(err, apperrors.ErrRemoteUnavailable) {
		t.Errorf("Sync error = %v, want ErrRemoteUnavailable", err)
	}
	if _, err := svc.Sync(context.Background(), nil, "user"); !errors.Is(err, apperrors.ErrRemoteUnavailable) {
		t.Errorf("Sync error = %v, want ErrRemoteUnavailable", err)
	}
}

func TestSyncFirstContactPublishesLocal(t *testing.T) {
	svc, _, _ := setupTestService(t, WithChangeQueue())
	local, _ := svc.Toggle(models.Fajr)
	rs := remote.NewMemory()

	res, err := svc.Sync(context.Background(), rs, "user-1")
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !res.FirstContact || res.Drained != 1 {
		t.Errorf("result = %+v, want first contact with one drained op", res)
	}
	if len(res.Record.Queue) != 0 {
		t.Errorf("queue not drained: %+v", res.Record.Queue)
	}

	patch, err := rs.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("remote Get failed: %v", err)
	}
	published, _ := patch.Apply(models.DefaultRecord("2000-01-01"))
	local.Queue = []models.QueueOp{}
	if !reflect.DeepEqual(published, local) {
		t.Errorf("published %+v, want %+v", published, local)
	}
}

func TestSyncMergesAndConverges(t *testing.T) {
	svc, kv, _ := setupTestService(t)
	_, _ = svc.Toggle(models.Fajr)

	rs := remote.NewMemory()
	_ = rs.Put("user-1", *mustPatch(t, `{"streak":14,"history":[{"date":"2026-01-31","completed":["Fajr","Dhuhr","Asr","Maghrib","Isha"]}]}`))

	res, err := svc.Sync(context.Background(), rs, "user-1")
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.FirstContact {
		t.Error("remote copy existed")
	}
	if res.Record.Streak != 14 || len(res.Record.History) != 1 || !res.Record.Has(models.Fajr) {
		t.Errorf("merged record = %+v", res.Record)
	}

	if stored := storedRecord(t, kv); stored.Streak != 14 {
		t.Errorf("merge not persisted locally: %+v", stored)
	}
	patch, _ := rs.Get(context.Background(), "user-1")
	published, _ := patch.Apply(models.DefaultRecord("2000-01-01"))
	if !reflect.DeepEqual(published, res.Record) {
		t.Errorf("remote and local diverged:\n remote %+v\n local  %+v", published, res.Record)
	}

	again, err := svc.Sync(context.Background(), rs, "user-1")
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if !reflect.DeepEqual(again.Record, res.Record) {
		t.Errorf("second sync changed the record:\n got  %+v\n want %+v", again.Record, res.Record)
	}
}

func TestSyncRemoteUnavailableLeavesLocalUntouched(t *testing.T) {
	svc, kv, _ := setupTestService(t, WithChangeQueue())
	_, _ = svc.Toggle(models.Asr)
	before, _, _ := kv.Get(constants.RecordKey)

	rs := remote.NewMemory()
	rs.Fail(errors.New("network unreachable"))

	if _, err := svc.Sync(context.Background(), rs, "user-1"); !errors.Is(err, apperrors.ErrRemoteUnavailable) {
		t.Fatalf("Sync error = %v, want ErrRemoteUnavailable", err)
	}
	after, _, _ := kv.Get(constants.RecordKey)
	if before != after {
		t.Error("failed sync changed the stored record")
	}
	if len(svc.Current().Queue) != 1 {
		t.Error("pending queue should survive a failed sync")
	}
}

// publishHookStore runs beforeSet once, ahead of the first publish.
type publishHookStore struct {
	*remote.Memory
	beforeSet func()
}

func (s *publishHookStore) Set(ctx context.Context, userID string, rec models.Record) error {
	if s.beforeSet != nil {
		hook := s.beforeSet
		s.beforeSet = nil
		hook()
	}
	return s.Memory.Set(ctx, userID, rec)
}

func TestSyncKeepsChangeMadeDuringPublish(t *testing.T) {
	svc, _, _ := setupTestService(t, WithChangeQueue())
	if _, err := svc.Toggle(models.Fajr); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	rs := &publishHookStore{Memory: remote.NewMemory()}
	rs.beforeSet = func() {
		if _, err := svc.Toggle(models.Dhuhr); err != nil {
			t.Errorf("Toggle during publish failed: %v", err)
		}
	}

	res, err := svc.Sync(context.Background(), rs, "user-1")
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.Drained != 0 {
		t.Errorf("Drained = %d, want 0 while an unpublished change exists", res.Drained)
	}
	local := svc.Current()
	if !local.Has(models.Dhuhr) || len(local.Queue) != 1 {
		t.Fatalf("local record = %+v, want Dhuhr marked with a pending op", local)
	}

	again, err := svc.Sync(context.Background(), rs, "user-1")
	if err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	if again.Drained != 1 || len(again.Record.Queue) != 0 {
		t.Errorf("second sync result = %+v, want the pending op drained", again)
	}
	patch, _ := rs.Get(context.Background(), "user-1")
	published, _ := patch.Apply(models.DefaultRecord("2000-01-01"))
	if !published.Has(models.Fajr) || !published.Has(models.Dhuhr) {
		t.Errorf("remote completedToday = %v, want Fajr and Dhuhr", published.CompletedToday)
	}
}

func TestSyncPublishesPendingLocalChanges(t *testing.T) {
	svc, _, _ := setupTestService(t, WithChangeQueue())
	if _, err := svc.Toggle(models.Isha); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	rs := remote.NewMemory()
	_ = rs.Put("user-1", *mustPatch(t, `{"completedToday":["Fajr"],"streak":3}`))

	res, err := svc.Sync(context.Background(), rs, "user-1")
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !res.Record.Has(models.Isha) || res.Record.Has(models.Fajr) || res.Record.Streak != 0 {
		t.Errorf("record = %+v, want the pending local record kept", res.Record)
	}
	if res.Drained != 1 {
		t.Errorf("Drained = %d, want 1", res.Drained)
	}
	patch, _ := rs.Get(context.Background(), "user-1")
	published, _ := patch.Apply(models.DefaultRecord("2000-01-01"))
	if !published.Has(models.Isha) || published.Streak != 0 {
		t.Errorf("remote = %+v, want the local record", published)
	}
}

func TestImportDoesNotDuplicateCurrentDay(t *testing.T) {
	svc, _, _ := setupTestService(t)

	rec, err := svc.Import([]byte(`{
		"currentDate": "2026-01-31",
		"completedToday": ["Fajr"],
		"history": [
			{"date": "2026-01-30", "completed": ["Asr"]},
			{"date": "2026-01-31", "completed": ["Isha"]}
		]
	}`))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	want := []models.HistoryEntry{
		{Date: "2026-01-31", Completed: []models.Prayer{models.Fajr}},
		{Date: "2026-01-30", Completed: []models.Prayer{models.Asr}},
	}
	if !reflect.DeepEqual(rec.History, want) {
		t.Errorf("History = %+v, want %+v", rec.History, want)
	}
}
