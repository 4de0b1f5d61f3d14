// Package data provides the foundational data layer for all file I/O operations.
// It encapsulates config and report-history access behind strongly-typed structs.
//
// Architecture: cmd → service → data
// The data layer is the only layer that should directly access files.
package data

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// GetConfigDir returns the application configuration directory.
// Uses os.UserConfigDir() for cross-platform support.
// Example: ~/.config/reportflow on Linux, ~/Library/Application Support/reportflow on macOS
func GetConfigDir() string {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory if UserConfigDir fails
		userConfigDir, _ = homedir.Dir()
		userConfigDir = filepath.Join(userConfigDir, ".config")
	}
	return filepath.Join(userConfigDir, "reportflow")
}

// GetConfigFilePath returns the path to the configuration file.
func GetConfigFilePath() string {
	return filepath.Join(GetConfigDir(), "reportflow.yaml")
}

// GetReportsFilePath returns the path to the saved-report history file.
func GetReportsFilePath() string {
	return filepath.Join(GetConfigDir(), "reports.json")
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	return os.MkdirAll(GetConfigDir(), 0750)
}
