package storage

import "sync"

// MemoryStore keeps values in process memory. Used by tests and as a
// session fallback when no backend can be opened.
type MemoryStore struct {
	mu      sync.RWMutex
	values  map[string]string
	failGet error
	failSet error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Init() error  { return nil }
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failGet != nil {
		return "", false, s.failGet
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	s.values[key] = value
	return nil
}

func (s *MemoryStore) GetConfigPath() string {
	return ":memory:"
}

// FailGets makes every subsequent Get return err (nil to clear).
func (s *MemoryStore) FailGets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet = err
}

// FailSets makes every subsequent Set return err (nil to clear).
func (s *MemoryStore) FailSets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSet = err
}
