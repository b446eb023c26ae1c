// Package forest derives tree structure from an adjacency-list node store
// and mutates it while preserving the forest invariant. Structure (depth,
// ancestor path, ordering key) is computed per read by a fixed-point
// expansion over the store's rows; it is never persisted. Mutations run the
// create, move, and delete protocols, each inside one store transaction.
package forest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/google/uuid"

	"github.com/grovedb/grove/pkg/order"
	"github.com/grovedb/grove/pkg/types"
)

// Options configures a Forest.
type Options struct {
	Store  types.Store      // required
	Config types.TreeConfig // table metadata, ordering fields, defaults
	Logger *slog.Logger     // optional; stderr text logger when nil
}

// Forest exposes traversal and mutation over one node store. A Forest is
// stateless between calls; it is safe for concurrent use to the extent the
// underlying store is.
type Forest struct {
	store types.Store
	cfg   types.TreeConfig
	kinds []order.Kind
	log   *slog.Logger
}

// New validates the configuration and constructs a Forest. Defaults are
// applied first, so the zero TreeConfig selects depth-first traversal,
// identity ordering, and pharaoh deletion.
func New(opts Options) (*Forest, error) {
	if opts.Store == nil {
		return nil, errors.New("store must not be nil")
	}
	cfg := opts.Config.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating tree config: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = defaultLogger()
	}
	return &Forest{
		store: opts.Store,
		cfg:   cfg,
		kinds: cfg.Kinds(),
		log:   log,
	}, nil
}

// Config returns the effective configuration, defaults applied.
func (f *Forest) Config() types.TreeConfig {
	return f.cfg
}

// Store returns the underlying node store.
func (f *Forest) Store() types.Store {
	return f.store
}

// defaultLogger returns a logger writing text to stderr at Info level.
// Callers can inject their own slog.Logger for other handlers or levels.
func defaultLogger() *slog.Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(h)
}

// generateID generates a new UUID v7 for node identities.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// code produces the node's per-level ordering code: the encoded ordering
// seed followed by the encoded identity, so siblings with equal seeds still
// order deterministically. Without configured ordering fields the identity
// alone is the code.
func (f *Forest) code(n types.Node) ([]byte, error) {
	if len(f.cfg.OrderBy) == 0 {
		return order.IdentityCode(n.ID), nil
	}
	seed, err := order.Encode(f.kinds, f.cfg.Seed(n))
	if err != nil {
		return nil, fmt.Errorf("encoding ordering seed of %s: %w", n.ID, err)
	}
	return append(seed, order.IdentityCode(n.ID)...), nil
}

// sortSiblings orders nodes in place by their ordering code, ascending.
func (f *Forest) sortSiblings(nodes []types.Node) error {
	type coded struct {
		n    types.Node
		code []byte
	}
	arr := make([]coded, len(nodes))
	for i, n := range nodes {
		c, err := f.code(n)
		if err != nil {
			return err
		}
		arr[i] = coded{n: n, code: c}
	}
	sort.Slice(arr, func(i, j int) bool {
		return bytes.Compare(arr[i].code, arr[j].code) < 0
	})
	for i := range arr {
		nodes[i] = arr[i].n
	}
	return nil
}

// sortedChildren returns the direct children of parent in sibling order.
func (f *Forest) sortedChildren(ctx context.Context, st types.Store, parent string) ([]types.Node, error) {
	kids, err := st.Children(ctx, parent)
	if err != nil {
		return nil, fmt.Errorf("fetching children of %q: %w", parent, err)
	}
	if err := f.sortSiblings(kids); err != nil {
		return nil, err
	}
	return kids, nil
}

// isAncestorIn reports whether ancestor occurs in descendant's path,
// using the store's native check when it has one and otherwise chasing
// parent references one step at a time.
func (f *Forest) isAncestorIn(ctx context.Context, st types.Store, ancestor, descendant string) (bool, error) {
	if tr, ok := st.(types.TreeReader); ok {
		return tr.IsAncestor(ctx, ancestor, descendant)
	}
	cur, err := st.Get(ctx, descendant)
	if err != nil {
		return false, fmt.Errorf("resolving %s: %w", descendant, err)
	}
	seen := map[string]bool{descendant: true}
	for cur.Parent != "" {
		if cur.Parent == ancestor {
			return true, nil
		}
		if seen[cur.Parent] {
			return false, fmt.Errorf("%w: parent chain of %s does not terminate", types.ErrConstraint, descendant)
		}
		seen[cur.Parent] = true
		cur, err = st.Get(ctx, cur.Parent)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				return false, fmt.Errorf("%w: dangling parent reference above %s", types.ErrConstraint, descendant)
			}
			return false, fmt.Errorf("resolving ancestor of %s: %w", descendant, err)
		}
	}
	return false, nil
}

// ancestorsIn returns the ancestor chain of id, root first, excluding the
// node itself.
func (f *Forest) ancestorsIn(ctx context.Context, st types.Store, id string) ([]types.Node, error) {
	if tr, ok := st.(types.TreeReader); ok {
		return tr.Ancestors(ctx, id)
	}
	cur, err := st.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", id, err)
	}
	var chain []types.Node
	seen := map[string]bool{id: true}
	for cur.Parent != "" {
		if seen[cur.Parent] {
			return nil, fmt.Errorf("%w: parent chain of %s does not terminate", types.ErrConstraint, id)
		}
		seen[cur.Parent] = true
		cur, err = st.Get(ctx, cur.Parent)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				return nil, fmt.Errorf("%w: dangling parent reference above %s", types.ErrConstraint, id)
			}
			return nil, fmt.Errorf("resolving ancestor of %s: %w", id, err)
		}
		chain = append(chain, cur)
	}
	// Reverse to root-first order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}
