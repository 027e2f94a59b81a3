package storage

import (
	"os"
	"path/filepath"
	"strings"
)

// KV is a single-scope string key-value store with synchronous get/set.
type KV interface {
	// Lifecycle
	Init() error
	Close() error

	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	Set(key, value string) error

	// Utils
	GetConfigPath() string
}

// IsPostgresConfig reports whether the config value is a PostgreSQL URL.
func IsPostgresConfig(config string) bool {
	return strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://")
}

// Open picks a backend from the config value: a postgres:// URL selects
// PostgreSQL, a path ending in .db selects SQLite, and any other path is used
// as a diskv directory.
func Open(config string) KV {
	switch {
	case IsPostgresConfig(config):
		return NewPostgresStore(config)
	case strings.EqualFold(filepath.Ext(config), ".db"):
		return NewSQLiteStore(ExpandHome(config))
	default:
		return NewDiskStore(ExpandHome(config))
	}
}

// OpenInitialized opens and initializes the backend for config. If the
// backend cannot be initialized it returns an empty MemoryStore for the
// session together with the init error.
func OpenInitialized(config string) (KV, error) {
	kv := Open(config)
	if err := kv.Init(); err != nil {
		return NewMemoryStore(), err
	}
	return kv, nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ConfigDir returns the directory holding auxiliary files (logs, exports)
// for a given store config value.
func ConfigDir(config string) string {
	if IsPostgresConfig(config) {
		if dir, err := os.UserConfigDir(); err == nil {
			return filepath.Join(dir, "salah")
		}
		return "."
	}
	path := ExpandHome(config)
	if strings.EqualFold(filepath.Ext(path), ".db") {
		return filepath.Dir(path)
	}
	return path
}
