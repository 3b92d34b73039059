package config

import (
	"errors"
	"fmt"
	"os"
)

// Warning is a non-fatal condition encountered while loading config.
type Warning struct {
	Message string
}

// Loaded captures the resolved path, the merged config, and any
// non-fatal warnings from loading it. A missing file or a parse error is
// a Warning, not a fatal error — the daemon always ends up with a usable
// Config.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
}

// Load resolves explicitPath (or the default config path when empty),
// reads it, and merges it over Default(). A missing file or malformed
// JSON degrades to Default() plus a Warning rather than failing.
func Load(explicitPath string) (Loaded, error) {
	path := explicitPath
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return Loaded{Config: Default()}, nil
	}

	base := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Loaded{
				Path:   path,
				Config: base,
				Warnings: []Warning{
					{Message: fmt.Sprintf("config file %q not found, using defaults", path)},
				},
			}, nil
		}
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg, err := Parse(data, base)
	if err != nil {
		return Loaded{
			Path:   path,
			Config: base,
			Warnings: []Warning{
				{Message: fmt.Sprintf("config %q parse error: %v; using defaults", path, err)},
			},
		}, nil
	}

	return Loaded{Path: path, Config: cfg}, nil
}
