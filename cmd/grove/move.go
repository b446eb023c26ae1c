// Move command for the grove CLI.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovedb/grove/pkg/types"
)

var moveCmd = &cobra.Command{
	Use:   "move <id> [new-parent]",
	Short: "Reattach a node under a new parent",
	Long: `Move a node and its whole subtree under new-parent. With no
new-parent the node becomes a root. Moving a node under itself or any
of its descendants is rejected.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		newParent := ""
		if len(args) == 2 {
			newParent = args[1]
		}

		f, cleanup, err := openForest()
		if err != nil {
			sysErr("move", err)
		}
		defer cleanup()

		if err := f.Move(cmd.Context(), id, newParent, nil); err != nil {
			switch {
			case errors.Is(err, types.ErrNotFound):
				userErr("move: %v", err)
			case errors.Is(err, types.ErrCycle):
				userErr("move: %q is in the subtree of %q", newParent, id)
			}
			sysErr("move", err)
		}

		if newParent == "" {
			fmt.Printf("moved %s to root\n", id)
		} else {
			fmt.Printf("moved %s under %s\n", id, newParent)
		}
		return nil
	},
}
