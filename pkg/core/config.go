// pkg/core/config.go
package core

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds nativekit configuration
type Config struct {
	// Sources are the archives and directories to expand, processed in
	// the order given here. The first writer of a colliding name wins
	// the unsuffixed destination name.
	Sources []string `yaml:"sources"`

	// ClassDest receives classes and resources; empty skips the category
	ClassDest string `yaml:"class_dest"`

	// LibDest receives native libraries and their debug symbols
	LibDest string `yaml:"lib_dest"`

	// FrameworkDest receives frameworks and their debug symbols
	FrameworkDest string `yaml:"framework_dest"`

	// Architectures restricts discovered dependencies to these targets
	// (names as reported by the tools, e.g. "x86_64", "arm64"). Empty
	// means no restriction.
	Architectures []string `yaml:"architectures"`

	// SearchPrefixes are the non-system install-path prefixes whose
	// libraries count as interesting during dependency resolution.
	SearchPrefixes []string `yaml:"search_prefixes"`

	// Debug enables verbose diagnostics
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		SearchPrefixes: DefaultSearchPrefixes(),
	}
}

// DefaultSearchPrefixes returns the well-known non-system install-path
// prefixes used to tell interesting dependencies from system ones.
func DefaultSearchPrefixes() []string {
	return []string{
		"/usr/local/lib",
		"/opt/homebrew/lib",
		"/opt/local/lib",
	}
}

// LoadConfig loads configuration from file
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = filepath.Join(home, ".config", "nativekit", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if len(cfg.SearchPrefixes) == 0 {
		cfg.SearchPrefixes = DefaultSearchPrefixes()
	}

	return &cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, ".config", "nativekit", "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
