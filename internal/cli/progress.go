package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer"
)

// CLIProgressReporter implements indexer.ProgressReporter with progress bars.
type CLIProgressReporter struct {
	quiet bool
	out   io.Writer

	mu             sync.Mutex
	fileBar        *progressbar.ProgressBar
	totalFiles     int
	processedFiles int
}

// NewCLIProgressReporter creates a reporter that draws on out.
func NewCLIProgressReporter(out io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet, out: out}
}

func (c *CLIProgressReporter) OnDiscoveryStart() {
	if c.quiet {
		return
	}
	fmt.Fprintln(c.out, "Discovering files...")
}

func (c *CLIProgressReporter) OnDiscoveryComplete(sourceFiles, projectFiles int) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, "Found %s source files and %s project files\n",
		formatNumber(sourceFiles), formatNumber(projectFiles))
}

func (c *CLIProgressReporter) OnFileProcessingStart(totalFiles int) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalFiles = totalFiles
	c.processedFiles = 0

	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Extracting"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

// OnFileProcessed runs on worker goroutines.
func (c *CLIProgressReporter) OnFileProcessed(fileName string) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fileBar != nil {
		c.processedFiles++
		_ = c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnAggregationStart(records int) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	if c.fileBar != nil {
		_ = c.fileBar.Finish()
		c.fileBar = nil
	}
	c.mu.Unlock()
	fmt.Fprintf(c.out, "Aggregating %s records...\n", formatNumber(records))
}

func (c *CLIProgressReporter) OnComplete(report *indexer.Report, elapsed time.Duration) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, "✓ Index built: %s files in %.1fs\n",
		formatNumber(report.FilesScanned), elapsed.Seconds())
}

// Processed returns how many files were reported since the last processing start.
func (c *CLIProgressReporter) Processed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processedFiles
}
