package indexer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrDiscovery marks a fatal failure to walk the project root.
	ErrDiscovery = errors.New("discovery failed")
	// ErrNoFiles marks a run that found nothing to extract.
	ErrNoFiles = errors.New("no usable source files")
	// ErrUnknownFamily marks an unsupported project family.
	ErrUnknownFamily = errors.New("unknown project family")
)

// DiscoveryError reports a missing, unreadable or non-directory root.
type DiscoveryError struct {
	Root string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed for %s: %v", e.Root, e.Err)
}

func (e *DiscoveryError) Unwrap() []error {
	return []error{ErrDiscovery, e.Err}
}

// NoFilesError is returned when a run yields no usable files. Found is a
// histogram of the extensions that were present, to explain the mismatch.
type NoFilesError struct {
	Family Family
	Root   string
	Found  map[string]int
}

func (e *NoFilesError) Error() string {
	msg := fmt.Sprintf("no %s source files (%s) under %s",
		e.Family, strings.Join(e.Family.Extensions(), " "), e.Root)
	if len(e.Found) == 0 {
		return msg
	}
	exts := make([]string, 0, len(e.Found))
	for ext := range e.Found {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		if e.Found[exts[i]] != e.Found[exts[j]] {
			return e.Found[exts[i]] > e.Found[exts[j]]
		}
		return exts[i] < exts[j]
	})
	if len(exts) > 5 {
		exts = exts[:5]
	}
	parts := make([]string, len(exts))
	for i, ext := range exts {
		parts[i] = fmt.Sprintf("%s=%d", ext, e.Found[ext])
	}
	return msg + "; found " + strings.Join(parts, ", ")
}

func (e *NoFilesError) Unwrap() error {
	return ErrNoFiles
}
