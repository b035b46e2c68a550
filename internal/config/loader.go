package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (DOCGEN_*)
// 2. Config file (.docgen/config.yml or .docgen/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".docgen")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	// Replace . with _ in env var names (e.g., DOCGEN_DISCOVERY_FAMILY)
	v.SetEnvPrefix("DOCGEN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("discovery.family")
	v.BindEnv("discovery.ignore")
	v.BindEnv("discovery.extra_ignore")

	v.BindEnv("extraction.concurrency")
	v.BindEnv("extraction.max_file_bytes")
	v.BindEnv("extraction.file_timeout")
	v.BindEnv("extraction.memo_size")

	v.BindEnv("output.path")
	v.BindEnv("output.format")

	v.BindEnv("cache.enabled")
	v.BindEnv("cache.location")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("discovery.family", defaults.Discovery.Family)
	v.SetDefault("discovery.ignore", defaults.Discovery.Ignore)
	v.SetDefault("discovery.extra_ignore", defaults.Discovery.ExtraIgnore)

	v.SetDefault("extraction.concurrency", defaults.Extraction.Concurrency)
	v.SetDefault("extraction.max_file_bytes", defaults.Extraction.MaxFileBytes)
	v.SetDefault("extraction.file_timeout", defaults.Extraction.FileTimeout)
	v.SetDefault("extraction.memo_size", defaults.Extraction.MemoSize)

	v.SetDefault("output.path", defaults.Output.Path)
	v.SetDefault("output.format", defaults.Output.Format)

	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.location", defaults.Cache.Location)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
