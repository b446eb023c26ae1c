package forest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovedb/grove/pkg/memstore"
	"github.com/grovedb/grove/pkg/types"
)

func TestAsTree(t *testing.T) {
	f, _ := seedForest(t, testConfig())

	tops, err := f.AsTree(context.Background(), WalkOptions{})
	require.NoError(t, err)
	require.Len(t, tops, 1)

	r := tops[0]
	assert.Equal(t, "r", r.ID)
	require.Len(t, r.Children, 2)
	assert.Equal(t, "m1", r.Children[0].ID)
	assert.Equal(t, "m2", r.Children[1].ID)

	m1 := r.Children[0]
	require.Len(t, m1.Children, 2)
	assert.Equal(t, "a", m1.Children[0].ID)
	assert.Equal(t, "b1", m1.Children[1].ID)
	assert.Empty(t, m1.Children[0].Children)

	m2 := r.Children[1]
	require.Len(t, m2.Children, 1)
	assert.Equal(t, "c", m2.Children[0].ID)
}

func TestAsTreeMultipleRoots(t *testing.T) {
	f, st := seedForest(t, testConfig())

	_, err := st.Insert(context.Background(), types.Node{ID: "r2", Attrs: map[string]any{"rank": 2}})
	require.NoError(t, err)

	tops, err := f.AsTree(context.Background(), WalkOptions{})
	require.NoError(t, err)
	require.Len(t, tops, 2)
	assert.Equal(t, "r", tops[0].ID)
	assert.Equal(t, "r2", tops[1].ID)
}

func TestAsTreeOffset(t *testing.T) {
	f, _ := seedForest(t, testConfig())

	tops, err := f.AsTree(context.Background(), WalkOptions{Offset: "m1"})
	require.NoError(t, err)
	require.Len(t, tops, 1)

	m1 := tops[0]
	assert.Equal(t, "m1", m1.ID)
	assert.Equal(t, 2, m1.Depth)
	require.Len(t, m1.Children, 2)
	assert.Equal(t, "a", m1.Children[0].ID)
}

func TestAsTreeDescendingReversesSiblings(t *testing.T) {
	f, _ := seedForest(t, testConfig())

	tops, err := f.AsTree(context.Background(), WalkOptions{Direction: types.DirectionDesc})
	require.NoError(t, err)
	require.Len(t, tops, 1)

	r := tops[0]
	require.Len(t, r.Children, 2)
	assert.Equal(t, "m2", r.Children[0].ID)
	assert.Equal(t, "m1", r.Children[1].ID)
}

func TestDrilldown(t *testing.T) {
	f, _ := seedForest(t, testConfig())
	ctx := context.Background()

	tn, err := f.Drilldown(ctx, []map[string]any{
		{"name": "root"},
		{"rank": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "m1", tn.ID)
	assert.Equal(t, 2, tn.Depth)
	assert.Equal(t, []string{"r", "m1"}, tn.Path)

	tn, err = f.Drilldown(ctx, []map[string]any{
		{"name": "root"},
		{"rank": 2},
		{"rank": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "c", tn.ID)
}

func TestDrilldownEmptyChain(t *testing.T) {
	f, _ := seedForest(t, testConfig())

	tn, err := f.Drilldown(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "r", tn.ID)
}

func TestDrilldownNoMatch(t *testing.T) {
	f, _ := seedForest(t, testConfig())
	ctx := context.Background()

	_, err := f.Drilldown(ctx, []map[string]any{{"name": "nope"}})
	require.ErrorIs(t, err, types.ErrNotFound)

	_, err = f.Drilldown(ctx, []map[string]any{
		{"name": "root"},
		{"rank": 7},
	})
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestDrilldownEmptyForest(t *testing.T) {
	f, err := New(Options{Store: memstore.New()})
	require.NoError(t, err)

	_, err = f.Drilldown(context.Background(), nil)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestDrilldownNumbersMatchLoosely(t *testing.T) {
	f, _ := seedForest(t, testConfig())
	ctx := context.Background()

	// Ranks are stored as ints; a float64 matcher, as produced by JSON
	// decoding, must still hit.
	tn, err := f.Drilldown(ctx, []map[string]any{
		{"name": "root"},
		{"rank": float64(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, "m2", tn.ID)
}

func TestDrilldownFirstMatchWins(t *testing.T) {
	f, st := seedForest(t, testConfig())
	ctx := context.Background()

	// Two children of r share rank after this; the first in sibling
	// order is taken.
	require.NoError(t, st.SetAttrs(ctx, "m2", map[string]any{"rank": 1}))

	tn, err := f.Drilldown(ctx, []map[string]any{
		{"name": "root"},
		{"rank": 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "m1", tn.ID)
}
