// Rm command for the grove CLI.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovedb/grove/pkg/forest"
	"github.com/grovedb/grove/pkg/types"
)

var (
	rmMode      string
	rmSuccessor string
)

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a node",
	Long: `Delete a node using one of the delete protocols:

  pharaoh      remove the node and its whole subtree
  grandmother  promote the node's children to its parent
  monarchy     promote one child into the node's place; the other
               children become that child's children

Without --mode the configured default applies. --successor picks the
promoted child for monarchy; the first child in sibling order is taken
otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		opts := forest.DeleteOptions{Mode: rmMode}
		if rmSuccessor != "" {
			opts.Successor = func(children []types.Node) (string, error) {
				return rmSuccessor, nil
			}
		}

		f, cleanup, err := openForest()
		if err != nil {
			sysErr("rm", err)
		}
		defer cleanup()

		if err := f.Delete(cmd.Context(), id, opts); err != nil {
			switch {
			case errors.Is(err, types.ErrDeleteModeUnknown):
				userErr("rm: unknown mode %q (pharaoh, grandmother, monarchy)", rmMode)
			case errors.Is(err, types.ErrNotFound):
				userErr("rm: node %q not found", id)
			case errors.Is(err, types.ErrNoSuccessor):
				userErr("rm: %v", err)
			}
			sysErr("rm", err)
		}

		fmt.Printf("deleted %s\n", id)
		return nil
	},
}

func init() {
	rmCmd.Flags().StringVarP(&rmMode, "mode", "m", "", "delete protocol (default from config)")
	rmCmd.Flags().StringVar(&rmSuccessor, "successor", "", "child promoted by the monarchy protocol")
}
