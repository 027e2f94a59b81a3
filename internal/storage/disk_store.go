package storage

import (
	"errors"
	"fmt"
	"os"

	"github.com/peterbourgon/diskv/v3"
)

// DiskStore keeps one file per key under a base directory.
type DiskStore struct {
	basePath string
	d        *diskv.Diskv
}

func NewDiskStore(basePath string) *DiskStore {
	return &DiskStore{basePath: basePath}
}

func (s *DiskStore) Init() error {
	if s.d != nil {
		return nil
	}
	if err := os.MkdirAll(s.basePath, 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	s.d = diskv.New(diskv.Options{
		BasePath:     s.basePath,
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 0, // other processes write the same directory
		FilePerm:     0600,
		PathPerm:     0700,
	})
	return nil
}

func (s *DiskStore) Close() error {
	return nil
}

func (s *DiskStore) Get(key string) (string, bool, error) {
	if s.d == nil {
		return "", false, fmt.Errorf("storage not loaded")
	}
	if !s.d.Has(key) {
		return "", false, nil
	}
	val, err := s.d.Read(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return string(val), true, nil
}

func (s *DiskStore) Set(key, value string) error {
	if s.d == nil {
		return fmt.Errorf("storage not loaded")
	}
	if err := s.d.Write(key, []byte(value)); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (s *DiskStore) GetConfigPath() string {
	return s.basePath
}
