package types

import (
	"context"
	"errors"
)

// Store is the adjacency-list table abstraction every backend implements.
// All methods honor context cancellation. Writes issued inside WithTx
// participate in one transaction; outside WithTx each write is atomic on
// its own.
type Store interface {
	// Get retrieves the node with the given identity.
	// Returns ErrNotFound if no node exists with that identity.
	Get(ctx context.Context, id string) (Node, error)

	// Insert stores a new node and returns it as stored, with timestamps
	// assigned. Returns ErrConstraint if the write violates a storage-level
	// forest constraint, such as an unresolvable parent reference.
	Insert(ctx context.Context, n Node) (Node, error)

	// SetParent rewrites the node's parent reference. An empty parent makes
	// the node a root. Returns ErrNotFound if the node does not exist.
	SetParent(ctx context.Context, id, parent string) error

	// SetAttrs merges the given values into the node's attributes. Existing
	// keys not named are preserved. Returns ErrNotFound if the node does
	// not exist.
	SetAttrs(ctx context.Context, id string, attrs map[string]any) error

	// Delete removes the node alone. Subtree handling is the mutation
	// protocol's concern, not the store's. Returns ErrNotFound if the node
	// does not exist.
	Delete(ctx context.Context, id string) error

	// Children returns the direct children of the given parent, in storage
	// order. An empty parent selects the root nodes.
	Children(ctx context.Context, parent string) ([]Node, error)

	// All returns every node in the table.
	All(ctx context.Context) ([]Node, error)

	// WithTx runs fn against a transactional view of the store. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// A nested call reuses the ambient transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

// TreeReader is an optional Store capability: a backend that can answer
// scoped structural queries natively (for example with a recursive SQL
// query) instead of the engine fetching every row. The traversal engine
// type-asserts for it and falls back to Store.All when absent. Both paths
// must produce identical results.
type TreeReader interface {
	// Subtree returns the node with the given identity and all of its
	// descendants. Returns ErrNotFound if the node does not exist.
	Subtree(ctx context.Context, id string) ([]Node, error)

	// Ancestors returns the node's ancestor chain, root first, excluding
	// the node itself. Returns ErrNotFound if the node does not exist.
	Ancestors(ctx context.Context, id string) ([]Node, error)

	// IsAncestor reports whether ancestor occurs in descendant's path.
	// A node is not its own ancestor.
	IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error)
}

// Error taxonomy shared by all backends and the mutation protocol.
// Underlying store failures are propagated wrapped, not translated.
var (
	ErrNotFound      = errors.New("node not found")
	ErrInvalidParent = errors.New("parent node not found")
	ErrCycle         = errors.New("move would create a cycle")
	ErrNoSuccessor   = errors.New("no child can be promoted")
	ErrConstraint    = errors.New("tree constraint violated")
)
