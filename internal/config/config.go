// Package config loads docgen settings.
//
// Settings come from .docgen/config.yml (or .yaml) in the project root, with
// DOCGEN_* environment variables taking precedence:
//
//  1. Environment variables (DOCGEN_EXTRACTION_CONCURRENCY, ...)
//  2. Project config (.docgen/config.yml)
//  3. Built-in defaults
//
// Example usage:
//
//	cfg, err := config.LoadConfigFromDir(root)
//	if err != nil {
//	    return err
//	}
//	ix, err := indexer.New(cfg.ToIndexerOptions())
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer"
)

// Config represents the complete docgen configuration.
type Config struct {
	Discovery  DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
}

// DiscoveryConfig selects the project family and the directories to skip.
type DiscoveryConfig struct {
	Family string `yaml:"family" mapstructure:"family" validate:"required,oneof=dotnet angular html"`
	// Ignore replaces the family's default ignore list when non-empty.
	Ignore []string `yaml:"ignore" mapstructure:"ignore" validate:"dive,required"`
	// ExtraIgnore is always added on top of Ignore or the family defaults.
	ExtraIgnore []string `yaml:"extra_ignore" mapstructure:"extra_ignore" validate:"dive,required"`
}

// ExtractionConfig bounds the per-file work.
type ExtractionConfig struct {
	// Concurrency is the worker count; 0 means GOMAXPROCS.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency" validate:"gte=0,lte=1024"`
	// MaxFileBytes is the size guard.
	MaxFileBytes int64 `yaml:"max_file_bytes" mapstructure:"max_file_bytes" validate:"gt=0"`
	// FileTimeout is the time guard.
	FileTimeout time.Duration `yaml:"file_timeout" mapstructure:"file_timeout" validate:"gt=0"`
	// MemoSize is the extraction memo capacity; 0 disables the memo.
	MemoSize int `yaml:"memo_size" mapstructure:"memo_size" validate:"gte=0"`
}

// OutputConfig controls where the index is written.
type OutputConfig struct {
	Path   string `yaml:"path" mapstructure:"path"`
	Format string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=json yaml"` // empty = infer from path
}

// CacheConfig controls the on-disk index cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Location string `yaml:"location" mapstructure:"location"` // empty = ~/.docgen/cache
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			Family:      string(indexer.FamilyDotnet),
			Ignore:      []string{},
			ExtraIgnore: []string{},
		},
		Extraction: ExtractionConfig{
			Concurrency:  0,
			MaxFileBytes: indexer.DefaultMaxFileBytes,
			FileTimeout:  indexer.DefaultFileTimeout,
			MemoSize:     indexer.DefaultMemoSize,
		},
		Output: OutputConfig{
			Path:   filepath.Join(".docgen", "index.json"),
			Format: "",
		},
		Cache: CacheConfig{
			Enabled:  true,
			Location: "",
		},
	}
}

// CacheDir resolves the cache directory, falling back to ~/.docgen/cache.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Location != "" {
		return c.Cache.Location, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".docgen", "cache"), nil
}
