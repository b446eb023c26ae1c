// Package memstore implements the node store over in-process maps. It is
// the reference backend for library use and tests; the traversal engine
// produces identical results over it and over the SQLite backend.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/grovedb/grove/pkg/types"
)

// Compile-time interface check: Store must implement types.Store.
var _ types.Store = (*Store)(nil)

// Store holds the forest in a map guarded by a read-write mutex. WithTx
// takes the write lock for the whole transaction and restores a snapshot
// of the map when the transaction function fails, so multi-step mutations
// are atomic and fully serialized.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]types.Node
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{nodes: make(map[string]types.Node)}
}

// Get retrieves a node by identity.
func (s *Store) Get(ctx context.Context, id string) (types.Node, error) {
	if err := ctx.Err(); err != nil {
		return types.Node{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(id)
}

// Insert stores a new node. The identity must be set and unused, and a
// non-empty parent reference must resolve.
func (s *Store) Insert(ctx context.Context, n types.Node) (types.Node, error) {
	if err := ctx.Err(); err != nil {
		return types.Node{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(n)
}

// SetParent rewrites the node's parent reference.
func (s *Store) SetParent(ctx context.Context, id, parent string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setParent(id, parent)
}

// SetAttrs merges the given values into the node's attributes.
func (s *Store) SetAttrs(ctx context.Context, id string, attrs map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setAttrs(id, attrs)
}

// Delete removes the node alone. Deleting a node that still has children
// violates the forest constraint.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delete(id)
}

// Children returns the direct children of parent in identity order. An
// empty parent selects the roots.
func (s *Store) Children(ctx context.Context, parent string) ([]types.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.children(parent)
}

// All returns every node in identity order.
func (s *Store) All(ctx context.Context) ([]types.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.all()
}

// WithTx runs fn under the write lock against a transactional view. On
// error the map is restored from a snapshot taken at entry, so either
// every write in fn takes effect or none does.
func (s *Store) WithTx(ctx context.Context, fn func(tx types.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string]types.Node, len(s.nodes))
	for id, n := range s.nodes {
		snapshot[id] = cloneNode(n)
	}

	if err := fn(&txView{s: s}); err != nil {
		s.nodes = snapshot
		return err
	}
	return nil
}

// txView is the store handed to transaction functions. The outer WithTx
// holds the write lock, so txView methods operate on the maps directly.
type txView struct {
	s *Store
}

var _ types.Store = (*txView)(nil)

func (v *txView) Get(ctx context.Context, id string) (types.Node, error) {
	if err := ctx.Err(); err != nil {
		return types.Node{}, err
	}
	return v.s.get(id)
}

func (v *txView) Insert(ctx context.Context, n types.Node) (types.Node, error) {
	if err := ctx.Err(); err != nil {
		return types.Node{}, err
	}
	return v.s.insert(n)
}

func (v *txView) SetParent(ctx context.Context, id, parent string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return v.s.setParent(id, parent)
}

func (v *txView) SetAttrs(ctx context.Context, id string, attrs map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return v.s.setAttrs(id, attrs)
}

func (v *txView) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return v.s.delete(id)
}

func (v *txView) Children(ctx context.Context, parent string) ([]types.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.s.children(parent)
}

func (v *txView) All(ctx context.Context) ([]types.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.s.all()
}

// WithTx on a transactional view reuses the ambient transaction.
func (v *txView) WithTx(ctx context.Context, fn func(tx types.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(v)
}

// Unlocked internals. Callers hold the appropriate lock.

func (s *Store) get(id string) (types.Node, error) {
	n, ok := s.nodes[id]
	if !ok {
		return types.Node{}, types.ErrNotFound
	}
	return cloneNode(n), nil
}

func (s *Store) insert(n types.Node) (types.Node, error) {
	if n.ID == "" {
		return types.Node{}, fmt.Errorf("%w: node identity required", types.ErrConstraint)
	}
	if _, ok := s.nodes[n.ID]; ok {
		return types.Node{}, fmt.Errorf("%w: duplicate identity %s", types.ErrConstraint, n.ID)
	}
	if n.Parent != "" {
		if n.Parent == n.ID {
			return types.Node{}, fmt.Errorf("%w: node %s cannot be its own parent", types.ErrConstraint, n.ID)
		}
		if _, ok := s.nodes[n.Parent]; !ok {
			return types.Node{}, fmt.Errorf("%w: parent %s does not exist", types.ErrConstraint, n.Parent)
		}
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	stored := cloneNode(n)
	s.nodes[n.ID] = stored
	return cloneNode(stored), nil
}

func (s *Store) setParent(id, parent string) error {
	n, ok := s.nodes[id]
	if !ok {
		return types.ErrNotFound
	}
	if parent != "" {
		if parent == id {
			return fmt.Errorf("%w: node %s cannot be its own parent", types.ErrConstraint, id)
		}
		if _, ok := s.nodes[parent]; !ok {
			return fmt.Errorf("%w: parent %s does not exist", types.ErrConstraint, parent)
		}
	}
	n.Parent = parent
	n.UpdatedAt = time.Now().UTC()
	s.nodes[id] = n
	return nil
}

func (s *Store) setAttrs(id string, attrs map[string]any) error {
	n, ok := s.nodes[id]
	if !ok {
		return types.ErrNotFound
	}
	merged := n.CloneAttrs()
	for k, v := range attrs {
		merged[k] = v
	}
	n.Attrs = merged
	n.UpdatedAt = time.Now().UTC()
	s.nodes[id] = n
	return nil
}

func (s *Store) delete(id string) error {
	if _, ok := s.nodes[id]; !ok {
		return types.ErrNotFound
	}
	for _, n := range s.nodes {
		if n.Parent == id {
			return fmt.Errorf("%w: node %s still has children", types.ErrConstraint, id)
		}
	}
	delete(s.nodes, id)
	return nil
}

func (s *Store) children(parent string) ([]types.Node, error) {
	out := make([]types.Node, 0)
	for _, n := range s.nodes {
		if n.Parent == parent {
			out = append(out, cloneNode(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) all() ([]types.Node, error) {
	out := make([]types.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, cloneNode(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// cloneNode copies a node including its attribute map, so stored nodes
// never share mutable state with callers.
func cloneNode(n types.Node) types.Node {
	if n.Attrs != nil {
		n.Attrs = n.CloneAttrs()
	}
	return n
}
