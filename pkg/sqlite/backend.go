// Package sqlite provides the public constructor for the SQLite node
// store while keeping the implementation internal.
package sqlite

import (
	"github.com/grovedb/grove/internal/sqlite"
)

// Options configures Open.
type Options = sqlite.Options

// Store is the SQLite node store. It implements types.Store and the
// optional types.TreeReader capability, so the traversal engine scopes
// offset reads with recursive queries instead of full scans.
type Store = sqlite.Store

// Open opens or creates the database and ensures the node table exists.
//
// Example:
//
//	st, err := sqlite.Open(sqlite.Options{
//	    Path: filepath.Join(dataDir, "grove.db"),
//	})
//	if err != nil { ... }
//	defer st.Close()
func Open(opts Options) (*Store, error) {
	return sqlite.Open(opts)
}
