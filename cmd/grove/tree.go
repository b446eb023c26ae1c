// Tree command for the grove CLI.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovedb/grove/pkg/forest"
	"github.com/grovedb/grove/pkg/types"
)

var (
	treeTraversal string
	treeDesc      bool
)

var treeCmd = &cobra.Command{
	Use:   "tree [offset]",
	Short: "Render the forest, or one subtree, as a tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := forest.WalkOptions{Traversal: treeTraversal}
		if len(args) == 1 {
			opts.Offset = args[0]
		}
		if treeDesc {
			opts.Direction = types.DirectionDesc
		}

		f, cleanup, err := openForest()
		if err != nil {
			sysErr("tree", err)
		}
		defer cleanup()

		roots, err := f.AsTree(cmd.Context(), opts)
		if err != nil {
			switch {
			case errors.Is(err, types.ErrNotFound):
				userErr("tree: node %q not found", opts.Offset)
			case errors.Is(err, types.ErrTraversalUnknown):
				userErr("tree: unknown traversal %q (dfs, bfs)", treeTraversal)
			}
			sysErr("tree", err)
		}

		if flagJSON {
			printJSON(roots)
			return nil
		}
		for _, root := range roots {
			printTree(root, "", true, true)
		}
		return nil
	},
}

// printTree renders one subtree with box-drawing connectors. Top-level
// nodes print flush left; their descendants hang off the usual branches.
func printTree(t *forest.Tree, prefix string, isLast, isRoot bool) {
	label := t.ID
	if s := attrsString(t.Node); s != "" {
		label += "  " + s
	}

	if prefix == "" && isRoot {
		fmt.Println(label)
	} else {
		connector := "├── "
		if isLast {
			connector = "└── "
		}
		fmt.Println(prefix + connector + label)
	}

	childPrefix := prefix
	if !(prefix == "" && isRoot) {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}
	for i, child := range t.Children {
		printTree(child, childPrefix, i == len(t.Children)-1, false)
	}
}

func init() {
	treeCmd.Flags().StringVarP(&treeTraversal, "traversal", "t", "", "dfs or bfs (default from config)")
	treeCmd.Flags().BoolVar(&treeDesc, "desc", false, "descending sibling order")
}
