package forest

import (
	"context"
	"fmt"
	"sort"

	"github.com/grovedb/grove/pkg/order"
	"github.com/grovedb/grove/pkg/types"
)

// TreeNode is a node joined with its derived structure. Path and Order have
// one element per level, root first, and both include the node itself.
type TreeNode struct {
	types.Node
	Depth int            `json:"depth"`
	Path  []string       `json:"path"`
	Order order.Ordering `json:"order,omitempty"`
}

// WalkOptions scopes and orders a traversal. The zero value walks the whole
// forest depth-first in the configured default direction.
type WalkOptions struct {
	// Offset scopes the traversal to one node and its descendants. The
	// offset node is included, at its absolute depth. Empty walks from all
	// roots.
	Offset string

	// Traversal is dfs or bfs; empty selects the configured default.
	Traversal string

	// Direction is asc or desc; empty selects the configured default.
	// One direction applies to the whole invocation: structure fields
	// cannot mix ascending and descending in a single walk.
	Direction string
}

// frontierItem is a worklist entry: a node whose parent's structure is
// known, together with the structure derived for the node itself.
type frontierItem struct {
	node  types.Node
	depth int
	path  []string
	ord   order.Ordering
}

// Walk computes depth, path, and ordering for every node in scope and
// returns them sorted by the requested traversal order. Results are derived
// from the store's current rows on every call; nothing is cached.
//
// A node whose parent reference does not resolve inside the scope is never
// emitted. Under an intact forest invariant that cannot happen, so its
// absence from a result is the observable symptom of a violated invariant.
func (f *Forest) Walk(ctx context.Context, opts WalkOptions) ([]TreeNode, error) {
	traversal, descending, err := f.resolveOrder(opts)
	if err != nil {
		return nil, err
	}

	var seeds []frontierItem
	var scope []types.Node
	if opts.Offset == "" {
		scope, err = f.store.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching nodes: %w", err)
		}
		for _, n := range scope {
			if !n.IsRoot() {
				continue
			}
			code, err := f.code(n)
			if err != nil {
				return nil, err
			}
			seeds = append(seeds, frontierItem{
				node:  n,
				depth: 1,
				path:  []string{n.ID},
				ord:   order.Ordering{code},
			})
		}
	} else {
		scope, seeds, err = f.offsetScope(ctx, opts.Offset)
		if err != nil {
			return nil, err
		}
	}

	out, err := f.expand(scope, seeds)
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		var c int
		if traversal == types.TraversalBFS {
			c = order.CompareBreadth(out[i].Depth, out[i].Order, out[j].Depth, out[j].Order)
		} else {
			c = order.Compare(out[i].Order, out[j].Order)
		}
		if descending {
			return c > 0
		}
		return c < 0
	})
	return out, nil
}

// resolveOrder applies config defaults to the requested traversal order and
// direction.
func (f *Forest) resolveOrder(opts WalkOptions) (traversal string, descending bool, err error) {
	traversal = opts.Traversal
	if traversal == "" {
		traversal = f.cfg.Traversal
	}
	switch traversal {
	case types.TraversalDFS, types.TraversalBFS:
	default:
		return "", false, fmt.Errorf("%w: %q", types.ErrTraversalUnknown, traversal)
	}
	switch opts.Direction {
	case "":
		descending = f.cfg.Descending
	case types.DirectionAsc:
		descending = false
	case types.DirectionDesc:
		descending = true
	default:
		return "", false, fmt.Errorf("%w: %q", types.ErrDirectionUnknown, opts.Direction)
	}
	return traversal, descending, nil
}

// offsetScope assembles the rows and the single seed for a traversal scoped
// to one node's subtree. The seed carries the offset node's absolute depth,
// full path, and full ordering, derived from its ancestor chain.
func (f *Forest) offsetScope(ctx context.Context, offset string) ([]types.Node, []frontierItem, error) {
	var sub []types.Node
	var anc []types.Node
	var err error

	if tr, ok := f.store.(types.TreeReader); ok {
		sub, err = tr.Subtree(ctx, offset)
		if err != nil {
			return nil, nil, fmt.Errorf("fetching subtree of %s: %w", offset, err)
		}
		anc, err = tr.Ancestors(ctx, offset)
		if err != nil {
			return nil, nil, fmt.Errorf("fetching ancestors of %s: %w", offset, err)
		}
	} else {
		all, err := f.store.All(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("fetching nodes: %w", err)
		}
		sub, err = subtreeOf(all, offset)
		if err != nil {
			return nil, nil, err
		}
		anc, err = f.ancestorsIn(ctx, f.store, offset)
		if err != nil {
			return nil, nil, err
		}
	}

	var offsetNode types.Node
	found := false
	for _, n := range sub {
		if n.ID == offset {
			offsetNode = n
			found = true
			break
		}
	}
	if !found {
		return nil, nil, fmt.Errorf("offset %s: %w", offset, types.ErrNotFound)
	}

	path := make([]string, 0, len(anc)+1)
	ord := make(order.Ordering, 0, len(anc)+1)
	for _, a := range anc {
		code, err := f.code(a)
		if err != nil {
			return nil, nil, err
		}
		path = append(path, a.ID)
		ord = append(ord, code)
	}
	code, err := f.code(offsetNode)
	if err != nil {
		return nil, nil, err
	}
	seed := frontierItem{
		node:  offsetNode,
		depth: len(anc) + 1,
		path:  append(path, offset),
		ord:   append(ord, code),
	}
	return sub, []frontierItem{seed}, nil
}

// subtreeOf filters rows down to id and its descendants.
func subtreeOf(all []types.Node, id string) ([]types.Node, error) {
	byParent := make(map[string][]types.Node, len(all))
	found := false
	var root types.Node
	for _, n := range all {
		byParent[n.Parent] = append(byParent[n.Parent], n)
		if n.ID == id {
			root = n
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("offset %s: %w", id, types.ErrNotFound)
	}
	sub := []types.Node{root}
	queue := []string{id}
	seen := map[string]bool{id: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range byParent[cur] {
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			sub = append(sub, child)
			queue = append(queue, child.ID)
		}
	}
	return sub, nil
}

// expand runs the fixed-point computation: starting from the seeds, every
// node whose parent's structure is known and whose own is not gains depth,
// path, and ordering derived from the parent's. The loop terminates when no
// node in scope can gain a result.
func (f *Forest) expand(scope []types.Node, seeds []frontierItem) ([]TreeNode, error) {
	byParent := make(map[string][]types.Node, len(scope))
	for _, n := range scope {
		byParent[n.Parent] = append(byParent[n.Parent], n)
	}

	placed := make(map[string]bool, len(scope))
	out := make([]TreeNode, 0, len(scope))
	work := seeds
	for len(work) > 0 {
		item := work[0]
		work = work[1:]
		if placed[item.node.ID] {
			continue
		}
		placed[item.node.ID] = true
		out = append(out, TreeNode{
			Node:  item.node,
			Depth: item.depth,
			Path:  item.path,
			Order: item.ord,
		})
		for _, child := range byParent[item.node.ID] {
			code, err := f.code(child)
			if err != nil {
				return nil, err
			}
			path := make([]string, len(item.path)+1)
			copy(path, item.path)
			path[len(item.path)] = child.ID
			work = append(work, frontierItem{
				node:  child,
				depth: item.depth + 1,
				path:  path,
				ord:   order.Append(item.ord, code),
			})
		}
	}
	return out, nil
}

// PlacementOf derives one node's structure without walking its subtree.
func (f *Forest) PlacementOf(ctx context.Context, id string) (TreeNode, error) {
	n, err := f.store.Get(ctx, id)
	if err != nil {
		return TreeNode{}, fmt.Errorf("resolving %s: %w", id, err)
	}
	anc, err := f.ancestorsIn(ctx, f.store, id)
	if err != nil {
		return TreeNode{}, err
	}
	path := make([]string, 0, len(anc)+1)
	ord := make(order.Ordering, 0, len(anc)+1)
	for _, a := range anc {
		code, err := f.code(a)
		if err != nil {
			return TreeNode{}, err
		}
		path = append(path, a.ID)
		ord = append(ord, code)
	}
	code, err := f.code(n)
	if err != nil {
		return TreeNode{}, err
	}
	return TreeNode{
		Node:  n,
		Depth: len(anc) + 1,
		Path:  append(path, id),
		Order: append(ord, code),
	}, nil
}
