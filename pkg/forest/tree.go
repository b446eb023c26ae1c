package forest

import (
	"context"
	"fmt"
	"reflect"

	"github.com/grovedb/grove/pkg/types"
)

// Tree is a walked node with its children attached, in sibling order.
type Tree struct {
	TreeNode
	Children []*Tree `json:"children,omitempty"`
}

// AsTree assembles the walk results into nested trees, one per root in
// scope. Sibling order within each Children slice follows the walk's
// direction.
func (f *Forest) AsTree(ctx context.Context, opts WalkOptions) ([]*Tree, error) {
	walked, err := f.Walk(ctx, opts)
	if err != nil {
		return nil, err
	}

	index := make(map[string]*Tree, len(walked))
	for i := range walked {
		index[walked[i].ID] = &Tree{TreeNode: walked[i]}
	}

	// Attach in walk order so Children slices inherit the traversal's
	// sibling ordering. A node whose parent is out of scope becomes a
	// top-level tree; with no offset that means the true roots.
	var tops []*Tree
	for i := range walked {
		t := index[walked[i].ID]
		parent, ok := index[walked[i].Parent]
		if !ok {
			tops = append(tops, t)
			continue
		}
		parent.Children = append(parent.Children, t)
	}
	return tops, nil
}

// Drilldown resolves a chain of attribute matchers to a single node. The
// first step selects among the roots, each following step among the current
// node's children, taking the first match in ascending sibling order. An
// empty chain resolves to the first root. A step that matches nothing fails
// with ErrNotFound.
func (f *Forest) Drilldown(ctx context.Context, steps []map[string]any) (TreeNode, error) {
	current := ""
	pool, err := f.sortedChildren(ctx, f.store, "")
	if err != nil {
		return TreeNode{}, err
	}

	if len(steps) == 0 {
		if len(pool) == 0 {
			return TreeNode{}, fmt.Errorf("no roots: %w", types.ErrNotFound)
		}
		return f.PlacementOf(ctx, pool[0].ID)
	}

	for i, step := range steps {
		match := ""
		for _, candidate := range pool {
			if matchesStep(candidate, step) {
				match = candidate.ID
				break
			}
		}
		if match == "" {
			return TreeNode{}, fmt.Errorf("drilldown step %d matched nothing: %w", i, types.ErrNotFound)
		}
		current = match
		if i < len(steps)-1 {
			pool, err = f.sortedChildren(ctx, f.store, current)
			if err != nil {
				return TreeNode{}, err
			}
		}
	}
	return f.PlacementOf(ctx, current)
}

// matchesStep reports whether every key in the step is present on the node
// with an equal value.
func matchesStep(n types.Node, step map[string]any) bool {
	for k, want := range step {
		got, ok := n.Attr(k)
		if !ok || !looseEqual(got, want) {
			return false
		}
	}
	return true
}

// looseEqual compares attribute values, treating all numeric types as
// interchangeable so a stored float64 matches a literal int.
func looseEqual(a, b any) bool {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
