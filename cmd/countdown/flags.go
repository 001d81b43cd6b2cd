package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var configExtensions = map[string]bool{".yaml": true, ".yml": true, ".toml": true}

// validateConfigPath checks --config before loading. An empty path selects
// the built-in defaults plus COUNTDOWN_* overrides.
func validateConfigPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("config file does not exist: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", abs)
	}
	if ext := strings.ToLower(filepath.Ext(abs)); !configExtensions[ext] {
		return fmt.Errorf("config file %s must be .yaml, .yml or .toml", filepath.Base(abs))
	}

	return nil
}
