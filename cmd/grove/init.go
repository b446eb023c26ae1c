// Init command for the grove CLI.
package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file and an empty node table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Config dir and default config.yaml were ensured before this
		// command ran; opening the forest creates the database.
		_, cleanup, err := openForest()
		if err != nil {
			sysErr("init", err)
		}
		defer cleanup()

		configDir, err := resolveConfigDir()
		if err != nil {
			sysErr("init", err)
		}
		dataDir, err := resolveDataDir()
		if err != nil {
			sysErr("init", err)
		}

		fmt.Println("config:", filepath.Join(configDir, configFileExt))
		fmt.Println("store: ", filepath.Join(dataDir, dbFileName))
		return nil
	},
}
