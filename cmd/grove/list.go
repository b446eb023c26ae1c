// List command for the grove CLI.
package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovedb/grove/pkg/forest"
	"github.com/grovedb/grove/pkg/types"
)

var (
	listTraversal string
	listDesc      bool
	listDepth     bool
	listPath      bool
)

var listCmd = &cobra.Command{
	Use:   "list [offset]",
	Short: "List nodes in traversal order",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := forest.Projection{
			Traversal: listTraversal,
			WithDepth: listDepth,
			WithPath:  listPath,
		}
		if len(args) == 1 {
			p.Offset = args[0]
		}
		if listDesc {
			p.Direction = types.DirectionDesc
		}

		f, cleanup, err := openForest()
		if err != nil {
			sysErr("list", err)
		}
		defer cleanup()

		rows, err := f.Project(cmd.Context(), p)
		if err != nil {
			switch {
			case errors.Is(err, types.ErrNotFound):
				userErr("list: node %q not found", p.Offset)
			case errors.Is(err, types.ErrTraversalUnknown):
				userErr("list: unknown traversal %q (dfs, bfs)", listTraversal)
			}
			sysErr("list", err)
		}

		if flagJSON {
			printJSON(rows)
			return nil
		}
		for _, row := range rows {
			line := row.ID
			if listDepth {
				line += fmt.Sprintf("\tdepth=%d", row.Depth)
			}
			if listPath {
				line += "\t" + strings.Join(row.Path, "/")
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listTraversal, "traversal", "t", "", "dfs or bfs (default from config)")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "descending sibling order")
	listCmd.Flags().BoolVar(&listDepth, "depth", false, "include depth")
	listCmd.Flags().BoolVar(&listPath, "path", false, "include the root-first path")
}
