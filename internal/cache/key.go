package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// GetCacheKey returns the cache key for a project root and family.
// Format: {rootHash}-{family} where the hash is 8 chars of the absolute root.
func GetCacheKey(projectPath, family string) (string, error) {
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project path: %w", err)
	}
	return hashString(filepath.ToSlash(abs))[:8] + "-" + family, nil
}

// Fingerprint summarizes the discovered files of a run. Any added, removed,
// resized or touched file changes it, and so does any change to settings,
// the extraction parameters the index was built with. Paths are relative to
// root.
func Fingerprint(root string, files []string, settings ...string) (string, error) {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	h := sha256.New()
	for _, s := range settings {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	h.Write([]byte{'\n'})
	for _, rel := range sorted {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", rel, err)
		}
		h.Write([]byte(rel))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(info.Size(), 10)))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(info.ModTime().UnixNano(), 10)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// hashString returns the SHA-256 hash of a string as hex.
func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
