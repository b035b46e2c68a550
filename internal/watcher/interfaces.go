package watcher

import "context"

// FileWatcher monitors a project tree for changes with debouncing and pause/resume support.
type FileWatcher interface {
	// Start begins watching, calling callback with debounced batches of
	// changed files (relative slash paths, sorted).
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error

	// Pause stops firing callbacks but continues accumulating events.
	Pause()

	// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
	Resume()
}

// Filter decides which parts of a project tree are watched. It is satisfied
// by the indexer's file discovery so watching and scanning agree.
type Filter interface {
	// Root is the directory watched recursively.
	Root() string
	// IgnoresDir reports whether a directory (relative to Root) is pruned.
	IgnoresDir(relDir string) bool
	// Tracks reports whether a file (relative to Root) is relevant.
	Tracks(relPath string) bool
}
