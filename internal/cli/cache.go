package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/cache"
	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/config"
)

var clearAllFlag bool

// cacheCmd represents the cache command group
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the index cache",
	Long: `Manage the SQLite cache of built indexes.

A cached index is reused by scan and graph while the discovered files of the
project (paths, sizes and modification times) are unchanged.

Available commands:
  list   - Show cached indexes
  clear  - Remove cached indexes for a project, or all with --all`,
}

// cacheListCmd shows the cached indexes
var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show cached indexes",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

// cacheClearCmd removes cached indexes
var cacheClearCmd = &cobra.Command{
	Use:   "clear [root]",
	Short: "Remove cached indexes for a project root",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheClearCmd.Flags().BoolVar(&clearAllFlag, "all", false, "remove every cached index")
}

// openCache opens the cache configured for the current directory.
func openCache() (*cache.Cache, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get cache location: %w", err)
	}
	return cache.Open(dir)
}

func runCacheList(cmd *cobra.Command, args []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}
	defer c.Close()

	entries, err := c.List(cmd.Context())
	if err != nil {
		return err
	}
	printCacheEntries(cmd.OutOrStdout(), c.Path(), entries, time.Now())
	return nil
}

func printCacheEntries(w io.Writer, location string, entries []cache.Entry, now time.Time) {
	fmt.Fprintf(w, "Cache Location: %s\n", location)
	if len(entries) == 0 {
		fmt.Fprintln(w, "No cached indexes")
		return
	}

	fmt.Fprintf(w, "%-18s %-40s %-8s %-8s %-10s %s\n",
		"Key", "Root", "Family", "Files", "Size", "Updated")
	fmt.Fprintln(w, "----------------------------------------------------------------------------------------------------")
	var total int
	for _, e := range entries {
		total += e.SizeBytes
		fmt.Fprintf(w, "%-18s %-40s %-8s %-8s %-10s %s\n",
			e.Key,
			truncate(e.Root, 40),
			e.Family,
			formatNumber(e.Files),
			fmt.Sprintf("%.1f KB", float64(e.SizeBytes)/1024),
			formatDuration(now.Sub(e.UpdatedAt)))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total: %.1f KB across %d index(es)\n", float64(total)/1024, len(entries))
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	root := ""
	if !clearAllFlag {
		abs, err := filepath.Abs(rootArg(args))
		if err != nil {
			return fmt.Errorf("failed to resolve root: %w", err)
		}
		root = abs
	}

	c, err := openCache()
	if err != nil {
		return err
	}
	defer c.Close()

	n, err := c.Clear(cmd.Context(), root)
	if err != nil {
		return err
	}
	if root == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached index(es)\n", n)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached index(es) for %s\n", n, root)
	}
	return nil
}
