package forest

import (
	"context"
	"errors"
	"fmt"

	"github.com/grovedb/grove/pkg/types"
)

// Adjustment is an attribute rewrite requested by a position hook. Attrs are
// merged into the named node before the triggering reparent is written.
type Adjustment struct {
	ID    string
	Attrs map[string]any
}

// PositionFunc decides where a node lands among its future siblings. It runs
// inside the mutation's transaction, before any row is written, and sees the
// pre-mutation state: parent is the destination (nil for root level), moving
// is the node being attached, and siblings are the destination's current
// children in ascending sibling order, excluding the moving node. The hook
// must not write through the store; it reports the writes it wants as
// adjustments.
type PositionFunc func(parent *types.Node, moving types.Node, siblings []types.Node) ([]Adjustment, error)

// SuccessorFunc picks which child replaces a node deleted in monarchy mode.
// It receives the node's children in ascending sibling order and returns the
// ID of one of them.
type SuccessorFunc func(children []types.Node) (string, error)

// DeleteOptions selects the semantics of a Delete call.
type DeleteOptions struct {
	// Mode is one of the delete modes; empty selects the configured
	// default, and an unset config falls back to pharaoh.
	Mode string

	// Successor picks the replacement child in monarchy mode. Nil promotes
	// the first child in ascending sibling order.
	Successor SuccessorFunc

	// Position, when set, runs for every reparent the delete performs.
	Position PositionFunc
}

// Create inserts a new node under parent. An empty parent creates a root.
// The node's identity is generated; attrs become its payload as given.
func (f *Forest) Create(ctx context.Context, parent string, attrs map[string]any) (types.Node, error) {
	var created types.Node
	err := f.store.WithTx(ctx, func(tx types.Store) error {
		if parent != "" {
			if _, err := tx.Get(ctx, parent); err != nil {
				if errors.Is(err, types.ErrNotFound) {
					return fmt.Errorf("parent %s: %w", parent, types.ErrInvalidParent)
				}
				return fmt.Errorf("resolving parent %s: %w", parent, err)
			}
		}
		n := types.Node{
			ID:     generateID(),
			Parent: parent,
			Attrs:  attrs,
		}
		inserted, err := tx.Insert(ctx, n)
		if err != nil {
			return fmt.Errorf("inserting node: %w", err)
		}
		created = inserted
		return nil
	})
	if err != nil {
		return types.Node{}, err
	}
	f.log.Debug("created node", "id", created.ID, "parent", parent)
	return created, nil
}

// Move reparents a node. It fails with ErrNotFound when the node or the
// destination does not exist and with ErrCycle when the destination is the
// node itself or one of its descendants. An empty newParent promotes the
// node to a root. The optional position hook runs before the reparent is
// written; its adjustments are applied in the same transaction.
func (f *Forest) Move(ctx context.Context, id, newParent string, position PositionFunc) error {
	err := f.store.WithTx(ctx, func(tx types.Store) error {
		return f.move(ctx, tx, id, newParent, position)
	})
	if err != nil {
		return err
	}
	f.log.Debug("moved node", "id", id, "parent", newParent)
	return nil
}

func (f *Forest) move(ctx context.Context, tx types.Store, id, newParent string, position PositionFunc) error {
	node, err := tx.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("resolving node %s: %w", id, err)
	}

	var dest *types.Node
	if newParent != "" {
		d, err := tx.Get(ctx, newParent)
		if err != nil {
			return fmt.Errorf("resolving parent %s: %w", newParent, err)
		}
		if newParent == id {
			return fmt.Errorf("moving %s under itself: %w", id, types.ErrCycle)
		}
		below, err := f.isAncestorIn(ctx, tx, id, newParent)
		if err != nil {
			return err
		}
		if below {
			return fmt.Errorf("moving %s under its descendant %s: %w", id, newParent, types.ErrCycle)
		}
		dest = &d
	}

	if position != nil {
		if err := f.applyPosition(ctx, tx, position, dest, node); err != nil {
			return err
		}
	}

	if err := tx.SetParent(ctx, id, newParent); err != nil {
		return fmt.Errorf("reparenting %s: %w", id, err)
	}
	return nil
}

// applyPosition runs a position hook against the pre-write state and merges
// the adjustments it returns.
func (f *Forest) applyPosition(ctx context.Context, tx types.Store, position PositionFunc, dest *types.Node, moving types.Node) error {
	parentID := ""
	if dest != nil {
		parentID = dest.ID
	}
	siblings, err := f.sortedChildren(ctx, tx, parentID)
	if err != nil {
		return err
	}
	trimmed := siblings[:0]
	for _, s := range siblings {
		if s.ID != moving.ID {
			trimmed = append(trimmed, s)
		}
	}
	adjustments, err := position(dest, moving, trimmed)
	if err != nil {
		return fmt.Errorf("position hook: %w", err)
	}
	for _, adj := range adjustments {
		if err := tx.SetAttrs(ctx, adj.ID, adj.Attrs); err != nil {
			return fmt.Errorf("adjusting %s: %w", adj.ID, err)
		}
	}
	return nil
}

// Delete removes a node with the semantics selected by opts.Mode.
//
// Pharaoh takes the whole subtree with it. Grandmother promotes the node's
// children to the node's own parent. Monarchy promotes one child into the
// node's place and reattaches the other children beneath it; on a leaf it
// degenerates to plain deletion.
func (f *Forest) Delete(ctx context.Context, id string, opts DeleteOptions) error {
	mode := opts.Mode
	if mode == "" {
		mode = f.cfg.DeleteMode
	}
	switch mode {
	case types.DeletePharaoh, types.DeleteGrandmother, types.DeleteMonarchy:
	default:
		return fmt.Errorf("%w: %q", types.ErrDeleteModeUnknown, mode)
	}

	err := f.store.WithTx(ctx, func(tx types.Store) error {
		node, err := tx.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("resolving node %s: %w", id, err)
		}
		if mode == types.DeleteGrandmother {
			return f.deletePromote(ctx, tx, node, opts)
		}
		if mode == types.DeleteMonarchy {
			return f.deleteReplace(ctx, tx, node, opts)
		}
		return f.deleteSubtree(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	f.log.Debug("deleted node", "id", id, "mode", mode)
	return nil
}

// deleteSubtree removes id and everything beneath it, children before
// parents so the referential constraint holds at every step.
func (f *Forest) deleteSubtree(ctx context.Context, tx types.Store, id string) error {
	ordered := []string{id}
	seen := map[string]bool{id: true}
	for i := 0; i < len(ordered); i++ {
		children, err := tx.Children(ctx, ordered[i])
		if err != nil {
			return fmt.Errorf("listing children of %s: %w", ordered[i], err)
		}
		for _, child := range children {
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			ordered = append(ordered, child.ID)
		}
	}
	for i := len(ordered) - 1; i >= 0; i-- {
		if err := tx.Delete(ctx, ordered[i]); err != nil {
			return fmt.Errorf("deleting %s: %w", ordered[i], err)
		}
	}
	return nil
}

// deletePromote reparents the node's children to the node's parent, then
// removes the node.
func (f *Forest) deletePromote(ctx context.Context, tx types.Store, node types.Node, opts DeleteOptions) error {
	children, err := f.sortedChildren(ctx, tx, node.ID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := f.reattach(ctx, tx, child, node.Parent, opts.Position); err != nil {
			return err
		}
	}
	if err := tx.Delete(ctx, node.ID); err != nil {
		return fmt.Errorf("deleting %s: %w", node.ID, err)
	}
	return nil
}

// deleteReplace promotes one child into the node's place, hangs the other
// children beneath it, then removes the node.
func (f *Forest) deleteReplace(ctx context.Context, tx types.Store, node types.Node, opts DeleteOptions) error {
	children, err := f.sortedChildren(ctx, tx, node.ID)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		if err := tx.Delete(ctx, node.ID); err != nil {
			return fmt.Errorf("deleting %s: %w", node.ID, err)
		}
		return nil
	}

	successor := children[0]
	if opts.Successor != nil {
		chosen, err := opts.Successor(children)
		if err != nil {
			return fmt.Errorf("selecting successor of %s: %w", node.ID, err)
		}
		found := false
		for _, child := range children {
			if child.ID == chosen {
				successor = child
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("successor %q of %s: %w", chosen, node.ID, types.ErrNoSuccessor)
		}
	}

	if err := f.reattach(ctx, tx, successor, node.Parent, opts.Position); err != nil {
		return err
	}
	for _, child := range children {
		if child.ID == successor.ID {
			continue
		}
		if err := f.reattach(ctx, tx, child, successor.ID, opts.Position); err != nil {
			return err
		}
	}
	if err := tx.Delete(ctx, node.ID); err != nil {
		return fmt.Errorf("deleting %s: %w", node.ID, err)
	}
	return nil
}

// reattach moves child under parentID as part of a delete protocol, running
// the position hook when one is set.
func (f *Forest) reattach(ctx context.Context, tx types.Store, child types.Node, parentID string, position PositionFunc) error {
	if position != nil {
		var dest *types.Node
		if parentID != "" {
			d, err := tx.Get(ctx, parentID)
			if err != nil {
				return fmt.Errorf("resolving parent %s: %w", parentID, err)
			}
			dest = &d
		}
		if err := f.applyPosition(ctx, tx, position, dest, child); err != nil {
			return err
		}
	}
	if err := tx.SetParent(ctx, child.ID, parentID); err != nil {
		return fmt.Errorf("reparenting %s: %w", child.ID, err)
	}
	return nil
}
