package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilupskalvis/pricecmp/internal/catalog"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

var (
	_ catalog.Persister = (*SQLiteStore)(nil)
	_ catalog.Persister = (*BoltStore)(nil)
)

// Backends lists the supported backend names.
var Backends = []string{BackendSQLite, BackendBolt, BackendMemory}

// Open returns the persister for backend at path. The memory backend
// returns a nil persister, which keeps the catalog in memory only.
func Open(backend, path string) (catalog.Persister, error) {
	switch backend {
	case BackendSQLite, "":
		s, err := NewSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendBolt:
		s, err := NewBolt(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// ensureDir creates the parent directory of dbPath.
func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	return nil
}
