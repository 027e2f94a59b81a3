package remote

import (
	"context"
	"errors"
	"sync"

	"github.com/julianstephens/salah/internal/models"
)

// ErrNotFound is returned by Get when no copy exists for the user.
var ErrNotFound = errors.New("no remote copy for user")

// Store holds one record per opaque user id.
type Store interface {
	// Get returns the fields of the remote copy. Only fields actually present
	// on the remote are set on the returned patch.
	Get(ctx context.Context, userID string) (*models.Patch, error)
	Set(ctx context.Context, userID string, rec models.Record) error
	Close() error
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.Mutex
	docs    map[string][]byte
	failErr error
	gets    int
	sets    int
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, userID string) (*models.Patch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.failErr != nil {
		return nil, m.failErr
	}
	data, ok := m.docs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	patch, err := models.ParsePatch(data)
	if err != nil {
		return nil, err
	}
	return &patch, nil
}

func (m *Memory) Set(ctx context.Context, userID string, rec models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.failErr != nil {
		return m.failErr
	}
	patch, err := models.PatchFromRecord(rec)
	if err != nil {
		return err
	}
	return m.put(userID, patch)
}

// Put stores raw fields for userID, bypassing the record shape. Tests use it
// to seed partial remote copies.
func (m *Memory) Put(userID string, patch models.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(userID, patch)
}

func (m *Memory) put(userID string, patch models.Patch) error {
	data, err := patch.MarshalJSON()
	if err != nil {
		return err
	}
	m.docs[userID] = data
	return nil
}

func (m *Memory) Close() error { return nil }

// Fail makes every later Get and Set return err (nil to clear).
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Calls reports how many Get and Set calls were made.
func (m *Memory) Calls() (gets, sets int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets, m.sets
}
