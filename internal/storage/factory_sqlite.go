//go:build sqlite

package storage

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

// DefaultStoreKind is the backend the CLI falls back to when no -store
// flag is given.
func DefaultStoreKind() string {
	return KindSQLite
}
