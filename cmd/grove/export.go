// Export command for the grove CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grovedb/grove/internal/snapshot"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write all nodes as JSON Lines, parents before children",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, cleanup, err := openForest()
		if err != nil {
			sysErr("export", err)
		}
		defer cleanup()

		if len(args) == 0 {
			if err := snapshot.Write(cmd.Context(), f.Store(), os.Stdout); err != nil {
				sysErr("export", err)
			}
			return nil
		}
		if err := snapshot.WriteFile(cmd.Context(), f.Store(), args[0]); err != nil {
			sysErr("export", err)
		}
		fmt.Printf("exported to %s\n", args[0])
		return nil
	},
}
