// Add command for the grove CLI.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovedb/grove/pkg/types"
)

var addParent string

var addCmd = &cobra.Command{
	Use:   "add [attr=value ...]",
	Short: "Create a node, optionally under a parent",
	Long: `Create a node with the given attributes. Without --parent the
node becomes a root. Values that read as numbers or booleans are stored
typed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		attrs, err := parseAttrs(args)
		if err != nil {
			userErr("add: %v", err)
		}

		f, cleanup, err := openForest()
		if err != nil {
			sysErr("add", err)
		}
		defer cleanup()

		n, err := f.Create(cmd.Context(), addParent, attrs)
		if err != nil {
			if errors.Is(err, types.ErrInvalidParent) {
				userErr("add: parent %q not found", addParent)
			}
			sysErr("add", err)
		}

		if flagJSON {
			printJSON(n)
			return nil
		}
		fmt.Println(n.ID)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addParent, "parent", "p", "", "parent node identity")
}
