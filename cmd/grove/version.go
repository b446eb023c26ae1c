// Version command for the grove CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovedb/grove/pkg/grove"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the grove version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("grove", grove.Version)
	},
}
