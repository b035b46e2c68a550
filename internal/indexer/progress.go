package indexer

import "time"

// ProgressReporter provides callbacks for reporting indexing progress.
// Implementations can display progress bars, log messages, or remain silent.
// Callbacks may be invoked from worker goroutines and must be safe for
// concurrent use.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(sourceFiles, projectFiles int)

	// OnFileProcessingStart is called before extraction starts.
	OnFileProcessingStart(totalFiles int)

	// OnFileProcessed is called after each file is extracted or skipped.
	OnFileProcessed(fileName string)

	// OnAggregationStart is called before per-file records are merged.
	OnAggregationStart(records int)

	// OnComplete is called when a run completes successfully.
	OnComplete(report *Report, elapsed time.Duration)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                                 {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(sourceFiles, projectFiles int) {}
func (n *NoOpProgressReporter) OnFileProcessingStart(totalFiles int)              {}
func (n *NoOpProgressReporter) OnFileProcessed(fileName string)                   {}
func (n *NoOpProgressReporter) OnAggregationStart(records int)                    {}
func (n *NoOpProgressReporter) OnComplete(report *Report, elapsed time.Duration)  {}
