// Root command for the grove CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/grovedb/grove/internal/paths"
	"github.com/grovedb/grove/pkg/forest"
	"github.com/grovedb/grove/pkg/grove"
	"github.com/grovedb/grove/pkg/sqlite"
	"github.com/grovedb/grove/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
	flagVerbose   bool
)

// configDataDir holds the data_dir value loaded from config.yaml, set by
// PersistentPreRunE so every subcommand resolves the same directory.
var configDataDir string

// treeConfig holds the tree section of config.yaml.
var treeConfig types.TreeConfig

// logger is installed by PersistentPreRunE before any command runs.
var logger *slog.Logger

var rootCmd = &cobra.Command{
	Use:     "grove",
	Short:   "Grove keeps hierarchies in a flat node table",
	Version: grove.Version,
	Long: `Grove stores trees as plain parent-reference rows and derives
depth, path, and ordering on read. Nodes carry free-form attributes;
sibling order follows the configured ordering attributes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(flagVerbose)

		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		configDataDir = cfg.GetString(cfgKeyDataDir)

		treeConfig, err = loadTreeConfig(cfg)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.grove-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveConfigDir follows the precedence chain:
// --config-dir flag > GROVE_CONFIG_DIR env > platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveDataDir follows the precedence chain:
// --data-dir flag > config.yaml data_dir > GROVE_DATA_DIR env > $(CWD)/.grove-db.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// openForest opens the store under the resolved data directory and wraps
// it in a Forest. The caller must call cleanup when done.
func openForest() (f *forest.Forest, cleanup func(), err error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, nil, fmt.Errorf("resolving data dir: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating data dir: %w", err)
	}

	st, err := sqlite.Open(sqlite.Options{
		Path:   filepath.Join(dataDir, dbFileName),
		Config: treeConfig,
		Logger: logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	f, err = forest.New(forest.Options{Store: st, Config: treeConfig, Logger: logger})
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return f, func() { st.Close() }, nil
}

// userErr prints a message and exits with the user-error code.
func userErr(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(exitUserError)
}

// sysErr prints a message and exits with the system-error code.
func sysErr(context string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", context, err)
	os.Exit(exitSysError)
}
