// Config loading for the grove CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/grovedb/grove/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	dbFileName = "grove.db"

	// Config keys.
	cfgKeyDataDir = "data_dir"
	cfgKeyTree    = "tree"
)

// defaultConfigYAML is written to config.yaml on first run. Everything is
// commented out; the zero configuration is fully usable.
const defaultConfigYAML = `# Grove CLI configuration.

# Data directory holding grove.db (overridable by --data-dir).
# data_dir:

# Tree settings. Defaults shown; order_by is empty, which orders
# siblings by identity.
# tree:
#   table: nodes
#   id_column: node_id
#   parent_column: parent_id
#   traversal: dfs
#   descending: false
#   delete_mode: pharaoh
#   order_by:
#     - name: rank
#       kind: int
`

// loadConfig reads config.yaml from the config directory. The directory
// and a commented default file are created on first run; a missing file
// is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return v, nil
}

// loadTreeConfig decodes the tree section. An absent section yields the
// zero TreeConfig, which WithDefaults later fills in.
func loadTreeConfig(v *viper.Viper) (types.TreeConfig, error) {
	var cfg types.TreeConfig
	if err := v.UnmarshalKey(cfgKeyTree, &cfg); err != nil {
		return types.TreeConfig{}, fmt.Errorf("decoding tree config: %w", err)
	}
	if err := cfg.WithDefaults().Validate(); err != nil {
		return types.TreeConfig{}, fmt.Errorf("invalid tree config: %w", err)
	}
	return cfg, nil
}

// ensureDefaultConfigFile creates a commented config.yaml if none exists.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("checking config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
