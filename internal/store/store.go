// Package store abstracts the spreadsheet-style backend behind the four
// primitives the dashboard actually uses: read a whole table, rewrite a whole
// table, clear it, and list the tables that exist. There is no partial-row
// update in the backend, so every write is a full rewrite guarded by an
// advisory version token.
package store

import (
	"context"
	"errors"
)

var (
	// ErrTableNotFound means the named table (worksheet) does not exist.
	// Callers generally treat this as an empty dataset, not a failure.
	ErrTableNotFound = errors.New("store: table not found")

	// ErrStaleWrite means the table changed since it was read: the version
	// passed to WriteAll no longer matches. The caller must re-read and
	// retry; the write has not touched the backend.
	ErrStaleWrite = errors.New("store: table modified since read")
)

// Table is a full snapshot of one backend table. Version identifies the
// snapshot; passing it back to WriteAll makes the rewrite conditional.
type Table struct {
	Header  []string
	Rows    [][]string
	Version string
}

// Store is the backend contract. Implementations: memory (tests, demo),
// sqlite (local single-binary deployments), sheets (Google Sheets).
type Store interface {
	// ReadAll returns the table snapshot, or ErrTableNotFound.
	ReadAll(ctx context.Context, name string) (Table, error)

	// WriteAll replaces the table contents. The table is created when it
	// does not exist. When expect is non-empty and does not match the
	// current version, nothing is written and ErrStaleWrite is returned.
	WriteAll(ctx context.Context, name string, t Table, expect string) error

	// Clear empties the table but keeps it listed.
	Clear(ctx context.Context, name string) error

	// ListTables returns the existing table names, unordered.
	ListTables(ctx context.Context) ([]string, error)
}

// Invalidator is implemented by caching wrappers so that writers can drop
// stale reads after a confirmed write.
type Invalidator interface {
	Invalidate(name string)
	Reset()
}

// ReadOrEmpty maps ErrTableNotFound to an empty snapshot, for the common
// "missing sheet means no data yet" path.
func ReadOrEmpty(ctx context.Context, s Store, name string) (Table, error) {
	t, err := s.ReadAll(ctx, name)
	if errors.Is(err, ErrTableNotFound) {
		return Table{}, nil
	}
	return t, err
}
