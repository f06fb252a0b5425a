package storage

import (
	"fmt"
	"io"
)

// Run-store backend kinds accepted by NewStore and the run configuration.
const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
)

// NewStore builds the run-store backend for a kind. An empty kind selects
// the memory backend; the sqlite backend needs the sqlite build tag and a
// database path.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend %q (want %s or %s)", kind, KindMemory, KindSQLite)
	}
}

// CloseIfSupported closes backends holding external resources; the memory
// backend has none.
func CloseIfSupported(store Store) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
