package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
	// segment patterns contain no '/' and match a single directory name at
	// any depth; the rest match the relative directory path.
	segment bool
}

// FileDiscovery walks a project root and collects the files of one family.
type FileDiscovery struct {
	rootDir        string
	family         Family
	extensions     map[string]bool
	manifests      map[string]bool
	ignorePatterns []compiledPattern
}

// Discovery is the outcome of a walk.
type Discovery struct {
	// Files are relative slash paths, sorted lexicographically.
	Files []string
	// ProjectFiles are solution/project manifests found along the way.
	ProjectFiles []string
	// Skipped lists sub-directories that could not be read.
	Skipped []SkippedFile
}

// NewFileDiscovery creates a new file discovery instance.
func NewFileDiscovery(rootDir string, family Family, ignorePatterns []string) (*FileDiscovery, error) {
	spec, ok := families[family]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
	fd := &FileDiscovery{
		rootDir:    rootDir,
		family:     family,
		extensions: map[string]bool{},
		manifests:  map[string]bool{},
	}
	for _, ext := range spec.extensions {
		fd.extensions[ext] = true
	}
	for _, ext := range spec.manifests {
		fd.manifests[ext] = true
	}

	for _, pattern := range ignorePatterns {
		p := strings.TrimSuffix(strings.TrimSuffix(filepath.ToSlash(pattern), "/**"), "/")
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		fd.ignorePatterns = append(fd.ignorePatterns, compiledPattern{
			pattern: p,
			glob:    g,
			segment: !strings.Contains(p, "/"),
		})
	}
	return fd, nil
}

// Discover walks the root, pruning ignored directories, and returns the
// family's files in lexicographic order. A missing or unreadable root is a
// *DiscoveryError; unreadable sub-directories are skipped and reported.
func (fd *FileDiscovery) Discover(ctx context.Context) (*Discovery, error) {
	if err := fd.checkRoot(); err != nil {
		return nil, err
	}
	out := &Discovery{Files: []string{}}

	err := filepath.WalkDir(fd.rootDir, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		relPath := fd.relative(p)
		if err != nil {
			if p == fd.rootDir {
				return err
			}
			out.Skipped = append(out.Skipped, SkippedFile{Path: relPath, Reason: SkipDiscoveryError, Detail: err.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if p != fd.rootDir && fd.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(p))
		switch {
		case fd.extensions[ext]:
			out.Files = append(out.Files, relPath)
		case fd.manifests[ext]:
			out.ProjectFiles = append(out.ProjectFiles, relPath)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &DiscoveryError{Root: fd.rootDir, Err: err}
	}

	sort.Strings(out.Files)
	sort.Strings(out.ProjectFiles)
	return out, nil
}

// ExtensionHistogram counts the extensions of every non-ignored file under the
// root. It explains runs that found nothing for the selected family.
func (fd *FileDiscovery) ExtensionHistogram(ctx context.Context) (map[string]int, error) {
	if err := fd.checkRoot(); err != nil {
		return nil, err
	}
	counts := map[string]int{}
	err := filepath.WalkDir(fd.rootDir, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if d != nil && d.IsDir() && p != fd.rootDir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != fd.rootDir && fd.shouldIgnore(fd.relative(p)) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext == "" {
			ext = "(none)"
		}
		counts[ext]++
		return nil
	})
	return counts, err
}

func (fd *FileDiscovery) checkRoot() error {
	info, err := os.Stat(fd.rootDir)
	if err != nil {
		return &DiscoveryError{Root: fd.rootDir, Err: err}
	}
	if !info.IsDir() {
		return &DiscoveryError{Root: fd.rootDir, Err: errors.New("not a directory")}
	}
	return nil
}

// relative returns p relative to the root with forward slashes.
func (fd *FileDiscovery) relative(p string) string {
	rel, err := filepath.Rel(fd.rootDir, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// shouldIgnore checks if a directory matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relDir string) bool {
	base := path.Base(relDir)
	for _, cp := range fd.ignorePatterns {
		if cp.segment {
			if cp.glob.Match(base) {
				return true
			}
		} else if cp.glob.Match(relDir) {
			return true
		}
	}
	return false
}

// IgnoresDir reports whether the directory at relDir is pruned by the ignore
// patterns.
func (fd *FileDiscovery) IgnoresDir(relDir string) bool {
	return fd.shouldIgnore(filepath.ToSlash(relDir))
}

// Tracks reports whether a file at relPath belongs to the family, either as a
// source file or a project manifest.
func (fd *FileDiscovery) Tracks(relPath string) bool {
	ext := strings.ToLower(filepath.Ext(relPath))
	return fd.extensions[ext] || fd.manifests[ext]
}

// Root returns the directory being walked.
func (fd *FileDiscovery) Root() string {
	return fd.rootDir
}
