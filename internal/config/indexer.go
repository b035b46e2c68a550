package config

import (
	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer"
)

// ToIndexerOptions converts a Config to the indexer's immutable option bundle.
func (c *Config) ToIndexerOptions(fns ...indexer.Option) indexer.Options {
	memo := c.Extraction.MemoSize
	if memo == 0 {
		memo = -1
	}
	opts := indexer.Options{
		Concurrency:  c.Extraction.Concurrency,
		MaxFileBytes: c.Extraction.MaxFileBytes,
		FileTimeout:  c.Extraction.FileTimeout,
		MemoSize:     memo,
		Ignore:       append([]string(nil), c.Discovery.Ignore...),
		ExtraIgnore:  append([]string(nil), c.Discovery.ExtraIgnore...),
	}
	for _, fn := range fns {
		fn(&opts)
	}
	return opts
}

// Family returns the configured family as an indexer.Family.
func (c *Config) Family() indexer.Family {
	return indexer.Family(c.Discovery.Family)
}
