package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"
)

const (
	// DefaultFile is the default filename written to the working directory.
	DefaultFile = ".json-splitter.json"
)

// ErrInvalid marks configuration that cannot be used to start a run.
var ErrInvalid = errors.New("invalid configuration")

// Config captures the options of a split run. Values persisted by init/select
// act as defaults that command-line flags override.
type Config struct {
	InputPath    string `json:"input"`
	ArrayKey     string `json:"array,omitempty"`
	OutputDir    string `json:"output,omitempty"`
	JSONPath     string `json:"jsonPath,omitempty"`
	Separator    string `json:"separator,omitempty"`
	ManifestPath string `json:"manifest,omitempty"`
}

// Load reads configuration from the provided path. If the file does not exist,
// an empty config and an error wrapping os.ErrNotExist are returned to allow
// callers to initialise defaults.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to disk, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Default creates an empty configuration. Nothing has a sensible default
// except the input, which must always be supplied.
func Default() Config {
	return Config{}
}

// LoadOrDefault behaves like Load but falls back to Default when the file is missing.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that cfg describes a runnable split.
func (cfg Config) Validate() error {
	if cfg.InputPath == "" {
		return fmt.Errorf("%w: input file path is required (-i/--input)", ErrInvalid)
	}
	if err := ValidateSeparator(cfg.Separator); err != nil {
		return err
	}
	return nil
}

// ValidateSeparator accepts an empty separator or exactly one character.
func ValidateSeparator(sep string) error {
	if sep != "" && utf8.RuneCountInString(sep) != 1 {
		return fmt.Errorf("%w: separator must be a single character, got %q", ErrInvalid, sep)
	}
	return nil
}
