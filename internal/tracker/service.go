package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/salah/internal/clock"
	"github.com/julianstephens/salah/internal/constants"
	apperrors "github.com/julianstephens/salah/internal/errors"
	"github.com/julianstephens/salah/internal/logger"
	"github.com/julianstephens/salah/internal/models"
	"github.com/julianstephens/salah/internal/remote"
	"github.com/julianstephens/salah/internal/storage"
)

// OpUpdate marks a record that changed locally since the last sync.
const OpUpdate = "update"

// Service owns the record for the process. Loads, toggles, rollovers, imports
// and merges all go through it and are serialized by its mutex, so the stored
// record has a single writer.
type Service struct {
	mu    sync.Mutex
	store *storage.RecordStore
	clock clock.Clock

	rec    models.Record
	raw    string // stored value rec was last read from or written as
	loaded bool

	queueChanges bool
}

// Option configures a Service.
type Option func(*Service)

// WithChangeQueue leaves a pending update operation on the record's queue
// after every local change, until the next successful sync drains it.
func WithChangeQueue() Option {
	return func(s *Service) {
		s.queueChanges = true
	}
}

func NewService(store *storage.RecordStore, clk clock.Clock, opts ...Option) *Service {
	s := &Service{
		store: store,
		clock: clk,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncResult describes a completed sync.
type SyncResult struct {
	Record       models.Record
	FirstContact bool // no remote copy existed; local seeded it
	Drained      int  // queued operations cleared by the publish
}

// mutation computes the next record from the current one and reports whether
// it changed anything.
type mutation func(models.Record) (models.Record, bool)

// Today returns the service clock's calendar day.
func (s *Service) Today() string {
	return clock.Today(s.clock)
}

// Load returns the record for today, rolling it over first if its day has
// passed. It always returns a usable record. A non-nil error wraps
// ErrStorageRead or ErrStorageWrite and has already been logged.
func (s *Service) Load() (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, _, err := s.commit(nil, true)
	return rec, err
}

// Rollover reconciles the record against the clock and reports whether a day
// boundary was folded into history.
func (s *Service) Rollover() (models.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, rolled, err := s.commit(nil, true)
	if rolled {
		logger.Info("Rolled record over to new day", "date", rec.CurrentDate, "streak", rec.Streak)
	}
	return rec, rolled, err
}

// Current returns the in-memory record without touching storage, loading it
// first if nothing has been loaded yet.
func (s *Service) Current() models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		rec, _, _ := s.commit(nil, true)
		return rec
	}
	return s.rec.Clone()
}

// Toggle flips p for today and persists the result.
func (s *Service) Toggle(p models.Prayer) (models.Record, error) {
	if !p.IsValid() {
		return models.Record{}, fmt.Errorf("unknown prayer %q", p)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, _, err := s.commit(func(cur models.Record) (models.Record, bool) {
		return models.Toggle(cur, p), true
	}, true)
	return rec, err
}

// Import replaces the record with an externally supplied one. A payload that
// is not a record object returns an error wrapping ErrImportValidation and
// changes nothing.
func (s *Service) Import(data []byte) (models.Record, error) {
	imported, err := models.ParseImport(data, s.Today())
	if err != nil {
		return models.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, _, err := s.commit(func(models.Record) (models.Record, bool) {
		return imported, true
	}, true)
	logger.Info("Imported record", "date", rec.CurrentDate, "history", len(rec.History))
	return rec, err
}

// Reset replaces the record with a fresh default record for today.
func (s *Service) Reset() (models.Record, error) {
	today := s.Today()
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, _, err := s.commit(func(models.Record) (models.Record, bool) {
		return models.DefaultRecord(today), true
	}, true)
	logger.Info("Reset record", "date", today)
	return rec, err
}

// Export returns a date-stamped file name and the current record as indented
// JSON.
func (s *Service) Export() (string, []byte, error) {
	rec, err := s.Load()
	if err != nil && !apperrors.IsRecoverable(err) {
		return "", nil, err
	}
	data, err := json.MarshalIndent(rec.Normalize(), "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode record: %w", err)
	}
	name := constants.ExportFilePrefix + s.Today() + constants.ExportFileSuffix
	return name, data, nil
}

// Sync merges the record with the user's remote copy and publishes the
// result. A record with pending queue ops has changed since the last publish
// and is published over the remote copy instead. The lock is not held while
// waiting on the remote; the merge is computed against the freshest local
// record once the remote answers.
// Failures to reach the remote wrap ErrRemoteUnavailable; the local record is
// only changed after a definite answer.
func (s *Service) Sync(ctx context.Context, rs remote.Store, userID string) (SyncResult, error) {
	if rs == nil || strings.TrimSpace(userID) == "" {
		return SyncResult{}, fmt.Errorf("%w: no user id configured", apperrors.ErrRemoteUnavailable)
	}
	if _, err := s.Load(); err != nil {
		logger.Warn("Syncing from fallback record", "error", err)
	}

	patch, err := rs.Get(ctx, userID)
	firstContact := false
	switch {
	case errors.Is(err, remote.ErrNotFound):
		firstContact = true
		patch = nil
	case err != nil:
		logger.Warn("Remote fetch failed", "user", userID, "error", err)
		return SyncResult{}, fmt.Errorf("%w: %v", apperrors.ErrRemoteUnavailable, err)
	}

	s.mu.Lock()
	merged, _, err := s.commit(func(cur models.Record) (models.Record, bool) {
		// Pending ops mean the local record was written after the last
		// publish, so it is the last write and goes out as is.
		if len(cur.Queue) > 0 {
			return cur, false
		}
		next := Merge(cur, patch)
		next.Queue = cur.Clone().Queue
		return next, !reflect.DeepEqual(next, cur.Normalize())
	}, false)
	s.mu.Unlock()
	if err != nil {
		logger.Warn("Merged record not persisted locally", "error", err)
	}

	published := merged.Clone()
	published.Queue = []models.QueueOp{}
	if err := rs.Set(ctx, userID, published); err != nil {
		logger.Warn("Remote publish failed", "user", userID, "error", err)
		return SyncResult{Record: merged, FirstContact: firstContact},
			fmt.Errorf("%w: %v", apperrors.ErrRemoteUnavailable, err)
	}

	sent := make(map[string]bool, len(merged.Queue))
	for _, op := range merged.Queue {
		sent[op.ID] = true
	}
	drained := 0
	s.mu.Lock()
	final, _, _ := s.commit(func(cur models.Record) (models.Record, bool) {
		// A change made while publishing rides on an op that is already in
		// flight, so the ops stay pending until a sync publishes it.
		if !samePayload(cur, published) {
			return cur, false
		}
		kept := make([]models.QueueOp, 0, len(cur.Queue))
		for _, op := range cur.Queue {
			if !sent[op.ID] {
				kept = append(kept, op)
			}
		}
		drained = len(cur.Queue) - len(kept)
		next := cur.Clone()
		next.Queue = kept
		return next, drained > 0
	}, false)
	s.mu.Unlock()

	logger.Info("Synced record", "user", userID, "first_contact", firstContact, "drained", drained)
	return SyncResult{Record: final, FirstContact: firstContact, Drained: drained}, nil
}

// samePayload reports whether a and b hold the same record, ignoring the
// queue.
func samePayload(a, b models.Record) bool {
	a, b = a.Clone(), b.Clone()
	a.Queue, b.Queue = nil, nil
	return reflect.DeepEqual(a.Normalize(), b.Normalize())
}

// commit runs one load, compute, persist cycle under s.mu. The record is
// re-read from storage first; if the stored value changes again before the
// write, the cycle is redone from the fresh value, up to MaxWriteAttempts.
// Storage failures never abort the cycle: the in-memory record stays
// authoritative and the first failure is returned for reporting.
func (s *Service) commit(fn mutation, enqueue bool) (models.Record, bool, error) {
	today := clock.Today(s.clock)
	var firstErr error
	note := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for attempt := 1; ; attempt++ {
		if err := s.refresh(today); err != nil {
			logger.Warn("Using fallback record for this session", "error", err)
			note(err)
		}
		seen := s.raw

		next, changed := Reconcile(s.rec, today)
		if fn != nil {
			var mutated bool
			next, mutated = fn(next)
			changed = changed || mutated
			// Imports and merges may carry an older day.
			next, _ = Reconcile(next, today)
		}
		if !changed {
			return s.rec.Clone(), false, firstErr
		}
		next = next.Normalize()
		if enqueue && s.queueChanges {
			next = s.enqueueUpdate(next)
		}

		if attempt < constants.MaxWriteAttempts && s.storedChangedSince(seen) {
			logger.Debug("Stored record changed during update, recomputing", "attempt", attempt)
			continue
		}

		s.rec = next
		written, err := s.store.Save(next)
		if err != nil {
			logger.Error("Failed to persist record", "error", err)
			note(err)
			return next.Clone(), true, firstErr
		}
		s.raw = written
		return next.Clone(), true, firstErr
	}
}

// refresh adopts the stored record if it differs from the last value this
// service read or wrote. On a read failure the in-memory record is kept, or a
// default record is used if nothing was loaded yet.
func (s *Service) refresh(today string) error {
	rec, raw, err := s.store.Load(today)
	if err != nil && raw == "" {
		if !s.loaded {
			s.rec = rec
			s.loaded = true
		}
		return err
	}
	if s.loaded && raw == s.raw {
		return nil
	}

	s.loaded = true
	s.raw = raw
	s.rec = rec
	return err
}

func (s *Service) storedChangedSince(seen string) bool {
	raw, _, err := s.store.Raw()
	if err != nil {
		return false
	}
	return raw != seen
}

func (s *Service) enqueueUpdate(rec models.Record) models.Record {
	for _, op := range rec.Queue {
		if op.Op == OpUpdate {
			return rec
		}
	}
	rec.Queue = append(rec.Queue, models.QueueOp{
		ID:        uuid.NewString(),
		Op:        OpUpdate,
		CreatedAt: s.clock.Now().UTC().Format(time.RFC3339),
	})
	return rec
}
