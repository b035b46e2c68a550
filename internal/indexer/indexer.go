package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/maypok86/otter"
	"github.com/sourcegraph/conc/iter"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/extraction"
	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/parsers"
)

const (
	DefaultMaxFileBytes = 2 << 20
	DefaultFileTimeout  = 10 * time.Second
	DefaultMemoSize     = 4096
)

// Options is the immutable parameter bundle of an Indexer.
type Options struct {
	// Concurrency bounds the extraction worker pool. Zero means GOMAXPROCS.
	Concurrency int
	// MaxFileBytes is the size guard; larger files are skipped.
	MaxFileBytes int64
	// FileTimeout is the time guard applied to each extraction.
	FileTimeout time.Duration
	// MemoSize is the capacity of the extraction memo. Negative disables it.
	MemoSize int
	// Ignore replaces the family's default ignore list when non-empty.
	Ignore []string
	// ExtraIgnore is added to Ignore or the family defaults.
	ExtraIgnore []string

	Logger   *slog.Logger
	Progress ProgressReporter
}

// Option adjusts Options at construction time.
type Option func(*Options)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithProgress sets the progress reporter.
func WithProgress(p ProgressReporter) Option {
	return func(o *Options) { o.Progress = p }
}

// WithConcurrency sets the worker pool size.
func WithConcurrency(n int) Option {
	return func(o *Options) { o.Concurrency = n }
}

// DefaultOptions returns the options used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		Concurrency:  runtime.GOMAXPROCS(0),
		MaxFileBytes: DefaultMaxFileBytes,
		FileTimeout:  DefaultFileTimeout,
		MemoSize:     DefaultMemoSize,
	}
}

// Indexer runs the discovery → classification → extraction → aggregation
// pipeline. It is safe for sequential reuse; the memo carries over between
// runs so unchanged files are not re-extracted.
type Indexer struct {
	opts   Options
	logger *slog.Logger
	memo   *otter.Cache[string, *extraction.StructuralRecord]
	// extractorFor picks the extractor for a classified language.
	extractorFor func(extraction.Language) parsers.Extractor
}

// New creates an indexer. Zero-valued options fall back to DefaultOptions.
func New(opts Options, fns ...Option) (*Indexer, error) {
	for _, fn := range fns {
		fn(&opts)
	}
	def := DefaultOptions()
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = def.MaxFileBytes
	}
	if opts.FileTimeout <= 0 {
		opts.FileTimeout = def.FileTimeout
	}
	if opts.MemoSize == 0 {
		opts.MemoSize = def.MemoSize
	}
	if opts.Progress == nil {
		opts.Progress = &NoOpProgressReporter{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	opts.Ignore = append([]string(nil), opts.Ignore...)
	opts.ExtraIgnore = append([]string(nil), opts.ExtraIgnore...)

	ix := &Indexer{opts: opts, logger: opts.Logger, extractorFor: parsers.ForLanguage}
	if opts.MemoSize > 0 {
		memo, err := otter.MustBuilder[string, *extraction.StructuralRecord](opts.MemoSize).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to create extraction memo: %w", err)
		}
		ix.memo = &memo
	}
	return ix, nil
}

// Options returns a copy of the effective options.
func (ix *Indexer) Options() Options {
	o := ix.opts
	o.Ignore = append([]string(nil), ix.opts.Ignore...)
	o.ExtraIgnore = append([]string(nil), ix.opts.ExtraIgnore...)
	return o
}

// Close releases the extraction memo.
func (ix *Indexer) Close() error {
	if ix.memo != nil {
		ix.memo.Close()
	}
	return nil
}

// IgnorePatterns returns the effective ignore list for a request.
func (ix *Indexer) IgnorePatterns(req Request) []string {
	base := ix.opts.Ignore
	if len(base) == 0 {
		base = req.Family.DefaultIgnore()
	}
	out := append([]string(nil), base...)
	out = append(out, ix.opts.ExtraIgnore...)
	return append(out, req.IgnoreDirs...)
}

// fileOutcome is what one worker hands back for one discovered path.
type fileOutcome struct {
	record  *extraction.StructuralRecord
	skipped *SkippedFile
}

// Run indexes one project tree. Only a root-level discovery failure or a run
// with zero usable files is returned as an error; every per-file problem is
// accumulated into the report.
func (ix *Indexer) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	report := &Report{
		RunID:     uuid.New().String(),
		Root:      req.Root,
		Family:    req.Family,
		StartedAt: start,
		Skipped:   []SkippedFile{},
		Warnings:  []extraction.Issue{},
	}
	log := ix.logger.With("run_id", report.RunID, "family", string(req.Family))

	if !req.Family.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, req.Family)
	}

	discovery, err := NewFileDiscovery(req.Root, req.Family, ix.IgnorePatterns(req))
	if err != nil {
		return nil, err
	}

	ix.opts.Progress.OnDiscoveryStart()
	found, err := discovery.Discover(ctx)
	if err != nil {
		return nil, err
	}
	ix.opts.Progress.OnDiscoveryComplete(len(found.Files), len(found.ProjectFiles))
	report.FilesDiscovered = len(found.Files)
	report.Skipped = append(report.Skipped, found.Skipped...)
	log.Debug("discovery complete", "root", req.Root, "files", len(found.Files), "project_files", len(found.ProjectFiles))

	ix.opts.Progress.OnFileProcessingStart(len(found.Files))
	mapper := iter.Mapper[string, fileOutcome]{MaxGoroutines: ix.opts.Concurrency}
	outcomes := mapper.Map(found.Files, func(rel *string) fileOutcome {
		out := ix.processFile(ctx, req.Root, *rel)
		ix.opts.Progress.OnFileProcessed(*rel)
		return out
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Outcomes are in discovery order regardless of completion order.
	records := make([]*extraction.StructuralRecord, 0, len(outcomes))
	complete := 0
	for _, out := range outcomes {
		if out.skipped != nil {
			report.Skipped = append(report.Skipped, *out.skipped)
			log.Debug("file skipped", "path", out.skipped.Path, "reason", string(out.skipped.Reason), "detail", out.skipped.Detail)
			if out.skipped.Reason == SkipPartialExtraction && out.record == nil {
				report.Warnings = append(report.Warnings, extraction.Issue{
					File:    out.skipped.Path,
					Kind:    extraction.IssuePartialExtraction,
					Message: out.skipped.Detail,
				})
			}
		}
		if out.record == nil {
			continue
		}
		if out.skipped == nil {
			complete++
		}
		records = append(records, out.record)
		for _, issue := range out.record.Issues {
			report.Warnings = append(report.Warnings, issue)
			log.Debug("extraction warning", "path", issue.File, "line", issue.Line, "message", issue.Message)
		}
	}
	// A file cut short by the time guard keeps its partial record in the
	// index but counts as skipped, not scanned.
	report.FilesScanned = complete

	if len(records) == 0 {
		hist, histErr := discovery.ExtensionHistogram(ctx)
		if histErr != nil {
			log.Debug("extension histogram failed", "error", histErr)
		}
		return nil, &NoFilesError{Family: req.Family, Root: req.Root, Found: hist}
	}

	ix.opts.Progress.OnAggregationStart(len(records))
	idx, conflicts := Aggregate(records)
	idx.ProjectFiles = found.ProjectFiles
	report.Warnings = append(report.Warnings, conflicts...)
	report.Totals = idx.Summary
	report.Duration = time.Since(start)

	log.Info("index built",
		"root", req.Root,
		"scanned", report.FilesScanned,
		"skipped", len(report.Skipped),
		"warnings", len(report.Warnings),
		"types", idx.Summary.Classes+idx.Summary.Interfaces+idx.Summary.Enums+idx.Summary.StaticTypes,
		"components", idx.Summary.Components,
		"style_rules", idx.Summary.StyleRules,
		"duration", report.Duration)
	ix.opts.Progress.OnComplete(report, report.Duration)

	return &Result{Index: idx, Report: report}, nil
}

// processFile reads, classifies and extracts one file. It never returns an
// error: every failure becomes a skip entry.
func (ix *Indexer) processFile(ctx context.Context, root, rel string) fileOutcome {
	abs := filepath.Join(root, filepath.FromSlash(rel))

	info, err := os.Stat(abs)
	if err != nil {
		return skip(rel, SkipDiscoveryError, err.Error())
	}
	if info.Size() > ix.opts.MaxFileBytes {
		return fileOutcome{
			skipped: &SkippedFile{Path: rel, Reason: SkipPartialExtraction,
				Detail: fmt.Sprintf("file size %d exceeds limit %d", info.Size(), ix.opts.MaxFileBytes)},
		}
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return skip(rel, SkipDiscoveryError, err.Error())
	}

	lang := Classify(rel, data)
	extractor := ix.extractorFor(lang)
	if extractor == nil {
		return skip(rel, SkipUnknownLanguage, "no extractor for "+filepath.Ext(rel))
	}

	file := extraction.SourceFile{Path: rel, Language: lang, Text: string(data)}
	key := memoKey(file)
	if ix.memo != nil {
		if rec, ok := ix.memo.Get(key); ok {
			return fileOutcome{record: rec}
		}
	}

	fctx, cancel := context.WithTimeout(ctx, ix.opts.FileTimeout)
	rec := extractor.Extract(fctx, file)
	expired := fctx.Err() != nil
	cancel()

	out := fileOutcome{record: rec}
	if expired {
		// Partial records are not memoized; a later run gets another chance.
		out.skipped = &SkippedFile{Path: rel, Reason: SkipPartialExtraction, Detail: "extraction time limit reached"}
		return out
	}
	if ix.memo != nil {
		ix.memo.Set(key, rec)
	}
	return out
}

func skip(rel string, reason SkipReason, detail string) fileOutcome {
	return fileOutcome{skipped: &SkippedFile{Path: rel, Reason: reason, Detail: detail}}
}

// memoKey hashes the three inputs extraction depends on.
func memoKey(f extraction.SourceFile) string {
	h := sha256.New()
	h.Write([]byte(f.Path))
	h.Write([]byte{0})
	h.Write([]byte(f.Language))
	h.Write([]byte{0})
	h.Write([]byte(f.Text))
	return hex.EncodeToString(h.Sum(nil))
}
