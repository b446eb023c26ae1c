// These tests drive the traversal engine and the mutation protocols over
// the relational store and hold the results against the in-memory store,
// which exercises the native TreeReader queries on one side and the
// fallback scan on the other.
package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovedb/grove/pkg/forest"
	"github.com/grovedb/grove/pkg/memstore"
	"github.com/grovedb/grove/pkg/order"
	"github.com/grovedb/grove/pkg/types"
)

// walkRow is the structural projection compared across backends. Attrs
// are omitted on purpose: they travel as JSON in the relational store, so
// numeric types differ even when values agree.
type walkRow struct {
	ID    string
	Depth int
	Path  []string
	Order order.Ordering
}

func project(nodes []forest.TreeNode) []walkRow {
	rows := make([]walkRow, len(nodes))
	for i, tn := range nodes {
		rows[i] = walkRow{ID: tn.ID, Depth: tn.Depth, Path: tn.Path, Order: tn.Order}
	}
	return rows
}

func parityConfig() types.TreeConfig {
	return types.TreeConfig{
		OrderBy: []types.OrderField{{Name: "rank", Kind: order.KindInt}},
	}
}

// seedInto loads the fixture forest into any store backend.
func seedInto(t *testing.T, st types.Store) {
	t.Helper()
	ctx := context.Background()
	nodes := []types.Node{
		{ID: "r", Attrs: map[string]any{"name": "root", "rank": 1}},
		{ID: "m1", Parent: "r", Attrs: map[string]any{"rank": 1}},
		{ID: "m2", Parent: "r", Attrs: map[string]any{"rank": 2}},
		{ID: "a", Parent: "m1", Attrs: map[string]any{"rank": 1}},
		{ID: "b1", Parent: "m1", Attrs: map[string]any{"rank": 2}},
		{ID: "c", Parent: "m2", Attrs: map[string]any{"rank": 1}},
	}
	for _, n := range nodes {
		_, err := st.Insert(ctx, n)
		require.NoError(t, err)
	}
}

// setupForests builds one forest over the relational store and one over
// the in-memory store, both seeded with the fixture.
func setupForests(t *testing.T) (relational, memory *forest.Forest) {
	t.Helper()
	st, err := Open(Options{
		Path:   filepath.Join(t.TempDir(), "grove.db"),
		Config: parityConfig(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	seedInto(t, st)

	mem := memstore.New()
	seedInto(t, mem)

	relational, err = forest.New(forest.Options{Store: st, Config: parityConfig()})
	require.NoError(t, err)
	memory, err = forest.New(forest.Options{Store: mem, Config: parityConfig()})
	require.NoError(t, err)
	return relational, memory
}

func TestWalkParity(t *testing.T) {
	rel, mem := setupForests(t)
	ctx := context.Background()

	for _, traversal := range []string{types.TraversalDFS, types.TraversalBFS} {
		for _, direction := range []string{types.DirectionAsc, types.DirectionDesc} {
			for _, offset := range []string{"", "m1"} {
				opts := forest.WalkOptions{Offset: offset, Traversal: traversal, Direction: direction}
				name := traversal + "/" + direction
				if offset != "" {
					name += "/offset"
				}
				t.Run(name, func(t *testing.T) {
					want, err := mem.Walk(ctx, opts)
					require.NoError(t, err)
					got, err := rel.Walk(ctx, opts)
					require.NoError(t, err)
					assert.Equal(t, project(want), project(got))
				})
			}
		}
	}
}

func TestWalkOffsetMissingParity(t *testing.T) {
	rel, mem := setupForests(t)
	ctx := context.Background()

	_, err := mem.Walk(ctx, forest.WalkOptions{Offset: "ghost"})
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = rel.Walk(ctx, forest.WalkOptions{Offset: "ghost"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestQueryParity(t *testing.T) {
	rel, mem := setupForests(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		check func(t *testing.T, f *forest.Forest) any
	}{
		{
			name: "ancestors",
			check: func(t *testing.T, f *forest.Forest) any {
				anc, err := f.Ancestors(ctx, "a")
				require.NoError(t, err)
				out := make([]string, len(anc))
				for i, n := range anc {
					out[i] = n.ID
				}
				return out
			},
		},
		{
			name: "descendants",
			check: func(t *testing.T, f *forest.Forest) any {
				desc, err := f.Descendants(ctx, "m1", forest.WalkOptions{})
				require.NoError(t, err)
				return project(desc)
			},
		},
		{
			name: "ancestry predicate",
			check: func(t *testing.T, f *forest.Forest) any {
				yes, err := f.IsAncestorOf(ctx, "r", "c")
				require.NoError(t, err)
				no, err := f.IsAncestorOf(ctx, "c", "r")
				require.NoError(t, err)
				return []bool{yes, no}
			},
		},
		{
			name: "attribute path",
			check: func(t *testing.T, f *forest.Forest) any {
				path, err := f.AttributePath(ctx, "c", "name", "?")
				require.NoError(t, err)
				return path
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.check(t, mem), tt.check(t, rel))
		})
	}
}

func TestMoveOverRelationalStore(t *testing.T) {
	rel, _ := setupForests(t)
	ctx := context.Background()

	require.NoError(t, rel.Move(ctx, "b1", "m2", nil))

	walked, err := rel.Walk(ctx, forest.WalkOptions{})
	require.NoError(t, err)
	got := make([]string, len(walked))
	for i, tn := range walked {
		got[i] = tn.ID
	}
	assert.Equal(t, []string{"r", "m1", "a", "m2", "c", "b1"}, got)
}

func TestMoveCycleOverRelationalStore(t *testing.T) {
	rel, _ := setupForests(t)
	ctx := context.Background()

	err := rel.Move(ctx, "r", "a", nil)
	assert.ErrorIs(t, err, types.ErrCycle)
}

// Subtree removal deletes depth by depth from the bottom so the parent
// foreign key never sees an orphan.
func TestDeleteSubtreeOverRelationalStore(t *testing.T) {
	rel, _ := setupForests(t)
	ctx := context.Background()

	require.NoError(t, rel.Delete(ctx, "r", forest.DeleteOptions{Mode: types.DeletePharaoh}))

	all, err := rel.Store().All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDeletePromoteOverRelationalStore(t *testing.T) {
	rel, _ := setupForests(t)
	ctx := context.Background()

	require.NoError(t, rel.Delete(ctx, "m1", forest.DeleteOptions{Mode: types.DeleteGrandmother}))

	kids, err := rel.ChildrenOf(ctx, "r")
	require.NoError(t, err)
	got := make([]string, len(kids))
	for i, n := range kids {
		got[i] = n.ID
	}
	assert.Equal(t, []string{"a", "b1", "m2"}, got, "rank ascending, identity breaking the tie")
}

func TestDeleteReplaceOverRelationalStore(t *testing.T) {
	rel, _ := setupForests(t)
	ctx := context.Background()

	require.NoError(t, rel.Delete(ctx, "m1", forest.DeleteOptions{Mode: types.DeleteMonarchy}))

	a, err := rel.Store().Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "r", a.Parent, "first child succeeds the deleted node")

	b1, err := rel.Store().Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "a", b1.Parent, "remaining children move under the successor")
}
