// Package types defines the Node entity, the Store contract, the tree
// configuration record, and the standard error values shared by every
// grove storage backend and the traversal engine.
package types
