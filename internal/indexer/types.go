package indexer

import (
	"sort"
	"time"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/extraction"
)

// Family selects which file extensions a run collects and which directories it
// ignores by default.
type Family string

const (
	FamilyDotnet  Family = "dotnet"
	FamilyAngular Family = "angular"
	FamilyHTML    Family = "html"
)

type familySpec struct {
	extensions []string
	ignore     []string
	manifests  []string // project files collected alongside sources
}

var families = map[Family]familySpec{
	FamilyDotnet: {
		extensions: []string{".cs", ".cshtml", ".razor"},
		ignore:     []string{"bin", "obj", "node_modules", ".git", ".vs", "packages", "TestResults", ".idea", ".vscode", "docs", "Documentation"},
		manifests:  []string{".sln", ".csproj"},
	},
	FamilyAngular: {
		extensions: []string{".ts", ".html", ".css", ".scss"},
		ignore:     []string{"node_modules", ".git", ".angular", "dist", "build", "coverage", ".idea", ".vscode", "docs"},
	},
	FamilyHTML: {
		extensions: []string{".html", ".htm", ".css", ".js"},
		ignore:     []string{"node_modules", ".git", "dist", "build", ".idea", ".vscode"},
	},
}

// Families returns the supported families in name order.
func Families() []Family {
	out := make([]Family, 0, len(families))
	for f := range families {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Valid reports whether f is a supported family.
func (f Family) Valid() bool {
	_, ok := families[f]
	return ok
}

// Extensions returns the lowercase source extensions of the family.
func (f Family) Extensions() []string {
	return append([]string(nil), families[f].extensions...)
}

// DefaultIgnore returns the directory patterns ignored unless overridden.
func (f Family) DefaultIgnore() []string {
	return append([]string(nil), families[f].ignore...)
}

// SkipReason explains why a discovered file contributed nothing to the index.
type SkipReason string

const (
	SkipUnknownLanguage   SkipReason = "UnknownLanguage"
	SkipDiscoveryError    SkipReason = "DiscoveryError"
	SkipPartialExtraction SkipReason = "PartialExtraction"
)

// SkippedFile is one entry of the run summary's skip list.
type SkippedFile struct {
	Path   string     `json:"path" yaml:"path"`
	Reason SkipReason `json:"reason" yaml:"reason"`
	Detail string     `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Request describes one pipeline run.
type Request struct {
	Root   string
	Family Family
	// IgnoreDirs are added to the family defaults and configured patterns.
	IgnoreDirs []string
}

// Result is the output of a successful run.
type Result struct {
	Index  *extraction.ProjectIndex
	Report *Report
}

// Report is the run summary handed to the caller alongside the index.
type Report struct {
	RunID           string                  `json:"runId" yaml:"runId"`
	Root            string                  `json:"root" yaml:"root"`
	Family          Family                  `json:"family" yaml:"family"`
	StartedAt       time.Time               `json:"startedAt" yaml:"startedAt"`
	FilesDiscovered int                     `json:"filesDiscovered" yaml:"filesDiscovered"`
	// FilesScanned counts files extracted completely; a file is never both
	// scanned and skipped.
	FilesScanned    int                     `json:"filesScanned" yaml:"filesScanned"`
	Skipped         []SkippedFile           `json:"skipped" yaml:"skipped"`
	Warnings        []extraction.Issue      `json:"warnings" yaml:"warnings"`
	Totals          extraction.IndexSummary `json:"totals" yaml:"totals"`
	Duration        time.Duration           `json:"duration" yaml:"duration"`
}

// SkippedBy counts skipped files per reason.
func (r *Report) SkippedBy() map[SkipReason]int {
	counts := map[SkipReason]int{}
	for _, s := range r.Skipped {
		counts[s.Reason]++
	}
	return counts
}
