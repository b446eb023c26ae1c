// This file implements the TreeReader capability: scoped structural
// queries answered with recursive CTEs instead of full-table scans.
package sqlite

import (
	"context"
	"fmt"

	"github.com/grovedb/grove/pkg/types"
)

// subtreeQuery renders the descendant query. The CTE walks parent
// references downward from the seed; UNION deduplicates, so a corrupt
// cycle cannot recurse forever. Row order is left to the caller, which
// re-derives structure anyway.
func subtreeQuery(cfg types.TreeConfig) string {
	return fmt.Sprintf(`
WITH RECURSIVE sub(node) AS (
	SELECT %[2]s FROM %[1]s WHERE %[2]s = ?
	UNION
	SELECT n.%[2]s FROM %[1]s n JOIN sub s ON n.%[3]s = s.node
)
SELECT n.%[2]s, n.%[3]s, n.attrs, n.created_at, n.updated_at
FROM %[1]s n JOIN sub s ON n.%[2]s = s.node
ORDER BY n.%[2]s`,
		cfg.Table, cfg.IDColumn, cfg.ParentColumn)
}

// ancestorsQuery renders the ancestor chain query. The CTE walks parent
// references upward with a step counter, capped at maxTreeDepth so a
// corrupt cycle terminates. Ordering by steps descending puts the root
// first; steps zero is the node itself and is filtered out.
func ancestorsQuery(cfg types.TreeConfig) string {
	return fmt.Sprintf(`
WITH RECURSIVE chain(node, parent, steps) AS (
	SELECT %[2]s, %[3]s, 0 FROM %[1]s WHERE %[2]s = ?
	UNION ALL
	SELECT n.%[2]s, n.%[3]s, c.steps + 1
	FROM %[1]s n JOIN chain c ON n.%[2]s = c.parent
	WHERE c.steps < %[4]d
)
SELECT n.%[2]s, n.%[3]s, n.attrs, n.created_at, n.updated_at
FROM %[1]s n JOIN chain c ON n.%[2]s = c.node
WHERE c.steps > 0
ORDER BY c.steps DESC`,
		cfg.Table, cfg.IDColumn, cfg.ParentColumn, maxTreeDepth)
}

// isAncestorQuery renders the ancestry predicate as a single EXISTS over
// the upward chain from the descendant.
func isAncestorQuery(cfg types.TreeConfig) string {
	return fmt.Sprintf(`
SELECT EXISTS (
	WITH RECURSIVE chain(node, parent, steps) AS (
		SELECT %[2]s, %[3]s, 0 FROM %[1]s WHERE %[2]s = ?
		UNION ALL
		SELECT n.%[2]s, n.%[3]s, c.steps + 1
		FROM %[1]s n JOIN chain c ON n.%[2]s = c.parent
		WHERE c.steps < %[4]d
	)
	SELECT 1 FROM chain WHERE steps > 0 AND node = ?
)`,
		cfg.Table, cfg.IDColumn, cfg.ParentColumn, maxTreeDepth)
}

// Subtree returns the node and all of its descendants.
func (s *Store) Subtree(ctx context.Context, id string) ([]types.Node, error) {
	rows, err := s.conn().QueryContext(ctx, s.q.subtree, id)
	if err != nil {
		return nil, fmt.Errorf("querying subtree of %s: %w", id, err)
	}
	nodes, err := collectNodes(rows)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, types.ErrNotFound
	}
	return nodes, nil
}

// Ancestors returns the node's ancestor chain, root first, excluding the
// node itself.
func (s *Store) Ancestors(ctx context.Context, id string) ([]types.Node, error) {
	// The chain query returns no rows for both a missing node and a
	// root, so existence is checked separately.
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.conn().QueryContext(ctx, s.q.ancestors, id)
	if err != nil {
		return nil, fmt.Errorf("querying ancestors of %s: %w", id, err)
	}
	return collectNodes(rows)
}

// IsAncestor reports whether ancestor occurs in descendant's path. Either
// side missing simply yields false; the callers that need existence
// errors check identities first.
func (s *Store) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	var found bool
	err := s.conn().QueryRowContext(ctx, s.q.isAncestor, descendant, ancestor).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("querying ancestry of %s: %w", descendant, err)
	}
	return found, nil
}
