package forest

import (
	"context"
	"fmt"

	"github.com/grovedb/grove/pkg/types"
)

// Roots returns the parentless nodes in ascending sibling order.
func (f *Forest) Roots(ctx context.Context) ([]types.Node, error) {
	return f.sortedChildren(ctx, f.store, "")
}

// ChildrenOf returns a node's direct children in ascending sibling order.
func (f *Forest) ChildrenOf(ctx context.Context, id string) ([]types.Node, error) {
	if _, err := f.store.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("resolving node %s: %w", id, err)
	}
	return f.sortedChildren(ctx, f.store, id)
}

// Siblings returns the nodes sharing a parent with id, excluding id itself,
// in ascending sibling order. Roots count as siblings of each other.
func (f *Forest) Siblings(ctx context.Context, id string) ([]types.Node, error) {
	n, err := f.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolving node %s: %w", id, err)
	}
	peers, err := f.sortedChildren(ctx, f.store, n.Parent)
	if err != nil {
		return nil, err
	}
	out := peers[:0]
	for _, p := range peers {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out, nil
}

// Ancestors returns the chain from the root down to id's parent. A root has
// no ancestors.
func (f *Forest) Ancestors(ctx context.Context, id string) ([]types.Node, error) {
	if _, err := f.store.Get(ctx, id); err != nil {
		return nil, fmt.Errorf("resolving node %s: %w", id, err)
	}
	return f.ancestorsIn(ctx, f.store, id)
}

// Root returns the root of the tree containing id. A root resolves to
// itself.
func (f *Forest) Root(ctx context.Context, id string) (types.Node, error) {
	n, err := f.store.Get(ctx, id)
	if err != nil {
		return types.Node{}, fmt.Errorf("resolving node %s: %w", id, err)
	}
	anc, err := f.ancestorsIn(ctx, f.store, id)
	if err != nil {
		return types.Node{}, err
	}
	if len(anc) == 0 {
		return n, nil
	}
	return anc[0], nil
}

// Descendants walks the subtree below id, excluding id itself, in the
// requested traversal order.
func (f *Forest) Descendants(ctx context.Context, id string, opts WalkOptions) ([]TreeNode, error) {
	opts.Offset = id
	walked, err := f.Walk(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := walked[:0]
	for _, tn := range walked {
		if tn.ID != id {
			out = append(out, tn)
		}
	}
	return out, nil
}

// Leaves returns the walked nodes that have no children, in walk order.
func (f *Forest) Leaves(ctx context.Context, opts WalkOptions) ([]TreeNode, error) {
	return f.walkFiltered(ctx, opts, false)
}

// Branches returns the walked nodes that have at least one child, in walk
// order.
func (f *Forest) Branches(ctx context.Context, opts WalkOptions) ([]TreeNode, error) {
	return f.walkFiltered(ctx, opts, true)
}

func (f *Forest) walkFiltered(ctx context.Context, opts WalkOptions, wantChildren bool) ([]TreeNode, error) {
	walked, err := f.Walk(ctx, opts)
	if err != nil {
		return nil, err
	}
	hasChild := make(map[string]bool, len(walked))
	for _, tn := range walked {
		hasChild[tn.Parent] = true
	}
	out := walked[:0]
	for _, tn := range walked {
		if hasChild[tn.ID] == wantChildren {
			out = append(out, tn)
		}
	}
	return out, nil
}

// IsParentOf reports whether id is the direct parent of childID.
func (f *Forest) IsParentOf(ctx context.Context, id, childID string) (bool, error) {
	child, err := f.store.Get(ctx, childID)
	if err != nil {
		return false, fmt.Errorf("resolving node %s: %w", childID, err)
	}
	return child.Parent == id, nil
}

// IsChildOf reports whether id is a direct child of parentID.
func (f *Forest) IsChildOf(ctx context.Context, id, parentID string) (bool, error) {
	n, err := f.store.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("resolving node %s: %w", id, err)
	}
	return n.Parent == parentID, nil
}

// IsSiblingOf reports whether a and b are distinct nodes under the same
// parent.
func (f *Forest) IsSiblingOf(ctx context.Context, a, b string) (bool, error) {
	if a == b {
		return false, nil
	}
	na, err := f.store.Get(ctx, a)
	if err != nil {
		return false, fmt.Errorf("resolving node %s: %w", a, err)
	}
	nb, err := f.store.Get(ctx, b)
	if err != nil {
		return false, fmt.Errorf("resolving node %s: %w", b, err)
	}
	return na.Parent == nb.Parent, nil
}

// IsAncestorOf reports whether id lies on the path above descendantID. A
// node is not its own ancestor.
func (f *Forest) IsAncestorOf(ctx context.Context, id, descendantID string) (bool, error) {
	for _, want := range []string{id, descendantID} {
		if _, err := f.store.Get(ctx, want); err != nil {
			return false, fmt.Errorf("resolving node %s: %w", want, err)
		}
	}
	return f.isAncestorIn(ctx, f.store, id, descendantID)
}

// IsDescendantOf reports whether id lies in the subtree below ancestorID.
func (f *Forest) IsDescendantOf(ctx context.Context, id, ancestorID string) (bool, error) {
	return f.IsAncestorOf(ctx, ancestorID, id)
}

// IsLeaf reports whether id has no children.
func (f *Forest) IsLeaf(ctx context.Context, id string) (bool, error) {
	if _, err := f.store.Get(ctx, id); err != nil {
		return false, fmt.Errorf("resolving node %s: %w", id, err)
	}
	kids, err := f.store.Children(ctx, id)
	if err != nil {
		return false, fmt.Errorf("listing children of %s: %w", id, err)
	}
	return len(kids) == 0, nil
}

// IsBranch reports whether id has at least one child.
func (f *Forest) IsBranch(ctx context.Context, id string) (bool, error) {
	leaf, err := f.IsLeaf(ctx, id)
	if err != nil {
		return false, err
	}
	return !leaf, nil
}

// AttributePath collects one attribute's value along the path from the root
// down to id, including id itself. Nodes without the attribute contribute
// missing.
func (f *Forest) AttributePath(ctx context.Context, id, name string, missing any) ([]any, error) {
	n, err := f.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolving node %s: %w", id, err)
	}
	anc, err := f.ancestorsIn(ctx, f.store, id)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(anc)+1)
	for _, a := range append(anc, n) {
		if v, ok := a.Attr(name); ok {
			out = append(out, v)
		} else {
			out = append(out, missing)
		}
	}
	return out, nil
}
