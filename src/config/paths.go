package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// StoragePaths contains paths for application storage
type StoragePaths struct {
	DatabasePath string
}

// GetDefaultStoragePaths returns default storage paths using XDG base directories
func GetDefaultStoragePaths() StoragePaths {
	// Use XDG_STATE_HOME for runtime state data
	return StoragePaths{
		DatabasePath: filepath.Join(xdg.StateHome, "genie", "threads.db"),
	}
}

// GetConfigPaths returns the configuration file paths to check
func GetConfigPaths() ConfigPrecedence {
	return ConfigPrecedence{
		UserConfig:        filepath.Join(xdg.ConfigHome, "genie", "config.json"),
		ProjectConfig:     "genie.json",
		EnvironmentPrefix: "GENIE",
	}
}
