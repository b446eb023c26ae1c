// Package paths resolves configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDataDirName is the working-directory-relative data directory
// used when nothing else names one.
const DefaultDataDirName = ".grove-db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "GROVE_CONFIG_DIR"
	EnvDataDir   = "GROVE_DATA_DIR"
)

// platformDir holds platform-detection functions overridable in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/grove (fallback ~/.config/grove)
// macOS:   ~/Library/Application Support/grove
// Windows: %APPDATA%/grove
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "grove"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "grove"), nil
	default:
		// os.UserConfigDir covers macOS and Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "grove"), nil
	}
}

// DefaultDataDir returns the platform default data directory.
//
// Linux:   $XDG_DATA_HOME/grove (fallback ~/.local/share/grove)
// macOS:   ~/Library/Application Support/grove
// Windows: %APPDATA%/grove
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "grove"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", "grove"), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "grove"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > GROVE_CONFIG_DIR > platform default.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence
// chain: flag > config file value > GROVE_DATA_DIR > $(CWD)/.grove-db.
// The working-directory default keeps each project's forest next to the
// project it describes.
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
