package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	countdownerrors "github.com/alexisbeaulieu97/countdown/pkg/errors"
)

// EnvPrefix prefixes environment overrides: COUNTDOWN_TIMEZONE -> timezone.
const EnvPrefix = "COUNTDOWN_"

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseConfig loads a configuration file from disk, validates it, and returns the resulting model.
// Environment variables are not consulted.
func ParseConfig(path string) (*Config, error) {
	return load(path, false)
}

// Load reads the configuration at path, then overlays COUNTDOWN_* environment
// variables and validates the result. An empty path uses the defaults plus
// the environment.
func Load(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, withEnv bool) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, countdownerrors.NewParseError(path, 0, err)
		}
		if _, err := os.Stat(path); err != nil {
			return nil, countdownerrors.NewParseError(path, 0, err)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, countdownerrors.NewParseError(path, extractLine(err), err)
		}
	}

	if withEnv {
		if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
			return nil, fmt.Errorf("loading env overrides: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, countdownerrors.NewParseError(path, 0, err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envKey maps COUNTDOWN_COLOR_MODE to color_mode.
func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".toml":
		return TOML(), nil
	default:
		return nil, fmt.Errorf("unsupported config format %q: use .yaml, .yml or .toml", filepath.Ext(path))
	}
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	var tomlErr toml.ParseError
	if errors.As(err, &tomlErr) {
		return tomlErr.Position.Line
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
