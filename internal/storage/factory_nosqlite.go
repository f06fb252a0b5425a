//go:build !sqlite

package storage

import "fmt"

func newSQLiteStore(string) (Store, error) {
	return nil, fmt.Errorf("%s backend unavailable in this build; rebuild with -tags sqlite", KindSQLite)
}

// DefaultStoreKind is the backend the CLI falls back to when no -store
// flag is given.
func DefaultStoreKind() string {
	return KindMemory
}
