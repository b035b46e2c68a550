package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer"
)

// maxListedWarnings caps the warnings printed without --verbose.
const maxListedWarnings = 10

// printSummary writes the run summary: scanned and skipped counts, totals and
// warnings.
func printSummary(w io.Writer, out *scanOutcome, destination string, all bool) {
	r := out.Report
	source := "scanned"
	if out.Cached {
		source = "unchanged, from cache"
	}
	fmt.Fprintf(w, "Index of %s (%s, %s)\n", r.Root, r.Family, source)
	fmt.Fprintf(w, "  Files:      %s discovered, %s scanned, %s skipped\n",
		formatNumber(r.FilesDiscovered), formatNumber(r.FilesScanned), formatNumber(len(r.Skipped)))

	if by := r.SkippedBy(); len(by) > 0 {
		reasons := make([]string, 0, len(by))
		for reason := range by {
			reasons = append(reasons, string(reason))
		}
		sort.Strings(reasons)
		parts := make([]string, len(reasons))
		for i, reason := range reasons {
			parts[i] = fmt.Sprintf("%s=%d", reason, by[indexer.SkipReason(reason)])
		}
		fmt.Fprintf(w, "  Skipped:    %s\n", strings.Join(parts, ", "))
	}

	t := r.Totals
	fmt.Fprintf(w, "  Types:      %d classes, %d interfaces, %d enums, %d static\n",
		t.Classes, t.Interfaces, t.Enums, t.StaticTypes)
	fmt.Fprintf(w, "  Members:    %s methods, %s properties\n",
		formatNumber(t.Methods), formatNumber(t.Properties))
	if t.Components+t.Services > 0 {
		fmt.Fprintf(w, "  Components: %d components, %d services\n", t.Components, t.Services)
	}
	if t.StyleRules+t.Elements > 0 {
		fmt.Fprintf(w, "  Markup:     %s style rules, %s elements\n",
			formatNumber(t.StyleRules), formatNumber(t.Elements))
	}
	if t.Collisions > 0 {
		fmt.Fprintf(w, "  Collisions: %d\n", t.Collisions)
	}
	if r.Duration > 0 {
		fmt.Fprintf(w, "  Duration:   %s\n", r.Duration.Round(time.Millisecond))
	}
	if destination != "" {
		fmt.Fprintf(w, "  Output:     %s\n", destination)
	}

	if len(r.Warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "Warnings (%d):\n", len(r.Warnings))
	for i, warn := range r.Warnings {
		if !all && i == maxListedWarnings {
			fmt.Fprintf(w, "  ... %d more (use --verbose)\n", len(r.Warnings)-i)
			break
		}
		loc := warn.File
		if warn.Line > 0 {
			loc = fmt.Sprintf("%s:%d", warn.File, warn.Line)
		}
		fmt.Fprintf(w, "  [%s] %s: %s\n", warn.Kind, loc, warn.Message)
	}
}

// formatNumber adds thousands separators.
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d mins ago", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen+3:]
}
