// Show command for the grove CLI.
package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovedb/grove/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one node with its placement in the tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, cleanup, err := openForest()
		if err != nil {
			sysErr("show", err)
		}
		defer cleanup()

		tn, err := f.PlacementOf(cmd.Context(), args[0])
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				userErr("show: node %q not found", args[0])
			}
			sysErr("show", err)
		}

		if flagJSON {
			printJSON(tn)
			return nil
		}
		fmt.Printf("id:      %s\n", tn.ID)
		if tn.Parent != "" {
			fmt.Printf("parent:  %s\n", tn.Parent)
		} else {
			fmt.Printf("parent:  (root)\n")
		}
		fmt.Printf("depth:   %d\n", tn.Depth)
		fmt.Printf("path:    %s\n", strings.Join(tn.Path, " / "))
		if len(tn.Attrs) > 0 {
			fmt.Printf("attrs:   %s\n", attrsString(tn.Node))
		}
		fmt.Printf("created: %s\n", tn.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("updated: %s\n", tn.UpdatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}
