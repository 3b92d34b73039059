package config

import (
	"os"
	"path/filepath"
)

// ConfigDir resolves $XDG_CONFIG_HOME/speak-anywhere, falling back to
// $HOME/.config/speak-anywhere.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "speak-anywhere")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "speak-anywhere")
	}
	return ""
}

// DataDir resolves $XDG_DATA_HOME/speak-anywhere, falling back to
// $HOME/.local/share/speak-anywhere.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "speak-anywhere")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "speak-anywhere")
	}
	return ""
}

// StateDir resolves $XDG_STATE_HOME/speak-anywhere, falling back to
// $HOME/.local/state/speak-anywhere.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "speak-anywhere")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "speak-anywhere")
	}
	return ""
}

// DefaultPath returns the config file path under ConfigDir.
func DefaultPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.json")
}
