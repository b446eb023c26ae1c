// Package snapshot reads and writes a node table as JSON Lines, one node
// per line. Exports order parents before children, so replaying a file
// line by line never references a node that has not been written yet.
package snapshot

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/grovedb/grove/pkg/types"
)

// Write streams every node to w as one JSON object per line, parents
// before children.
func Write(ctx context.Context, st types.Store, w io.Writer) error {
	nodes, err := st.All(ctx)
	if err != nil {
		return fmt.Errorf("listing nodes: %w", err)
	}
	ordered, err := layered(nodes)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for _, n := range ordered {
		if err := enc.Encode(n); err != nil {
			return fmt.Errorf("encoding node %s: %w", n.ID, err)
		}
	}
	return nil
}

// WriteFile writes the snapshot atomically with the temp-file, fsync,
// rename pattern, so a crash mid-write never leaves a torn file behind.
func WriteFile(ctx context.Context, st types.Store, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".grove-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	if err := Write(ctx, st, w); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming snapshot into place: %w", err)
	}
	return nil
}

// Read decodes nodes from r. Blank lines are skipped; a malformed line
// fails the whole read, since an import should never silently drop data.
func Read(r io.Reader) ([]types.Node, error) {
	var nodes []types.Node
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var n types.Node
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("decoding line %d: %w", line, err)
		}
		nodes = append(nodes, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}
	return nodes, nil
}

// ReadFile reads a snapshot file written by WriteFile.
func ReadFile(path string) ([]types.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Restore inserts nodes into st inside one transaction. Lines may appear
// in any order; parents are resolved before their children are written.
// Timestamps are reassigned by the store on insert.
func Restore(ctx context.Context, st types.Store, nodes []types.Node) error {
	ordered, err := layered(nodes)
	if err != nil {
		return err
	}
	return st.WithTx(ctx, func(tx types.Store) error {
		for _, n := range ordered {
			if _, err := tx.Insert(ctx, n); err != nil {
				return fmt.Errorf("restoring node %s: %w", n.ID, err)
			}
		}
		return nil
	})
}

// layered orders nodes so every parent precedes its children. Nodes whose
// parent chain never resolves, including cycles, are rejected.
func layered(nodes []types.Node) ([]types.Node, error) {
	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}

	placed := make(map[string]bool, len(nodes))
	ordered := make([]types.Node, 0, len(nodes))
	pending := nodes
	for len(pending) > 0 {
		var next []types.Node
		progressed := false
		for _, n := range pending {
			if n.Parent == "" || placed[n.Parent] || !present[n.Parent] {
				// A parent outside the snapshot is left for the store
				// to accept or reject against its own rows.
				ordered = append(ordered, n)
				placed[n.ID] = true
				progressed = true
				continue
			}
			next = append(next, n)
		}
		if !progressed {
			return nil, fmt.Errorf("%w: unresolvable parent reference for %s", types.ErrConstraint, next[0].ID)
		}
		pending = next
	}
	return ordered, nil
}
