// Import command for the grove CLI.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovedb/grove/internal/snapshot"
	"github.com/grovedb/grove/pkg/types"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load nodes from a JSON Lines snapshot",
	Long: `Import reads a snapshot produced by export and inserts every node.
Lines may appear in any order; parents are resolved before children are
inserted. The import runs in one transaction, so a bad snapshot leaves
the store untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nodes, err := snapshot.ReadFile(args[0])
		if err != nil {
			userErr("import: %v", err)
		}

		f, cleanup, err := openForest()
		if err != nil {
			sysErr("import", err)
		}
		defer cleanup()

		if err := snapshot.Restore(cmd.Context(), f.Store(), nodes); err != nil {
			if errors.Is(err, types.ErrConstraint) {
				userErr("import: %v", err)
			}
			sysErr("import", err)
		}
		fmt.Printf("imported %d nodes\n", len(nodes))
		return nil
	},
}
