package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/extraction"
	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/parsers"
)

// Test Plan for Indexer.Run:
// - A dotnet tree is discovered, extracted and aggregated end to end
// - Same type in the same namespace across two files is flagged in the index
// - The index does not depend on the worker count
// - Binary content under a known extension is skipped as UnknownLanguage
// - Oversized files are skipped as PartialExtraction with a warning
// - A tree with no family files fails with NoFilesError naming what was found
// - A missing root fails with a DiscoveryError
// - Re-running with the memo gives the same index
// - A file stopped by the time guard keeps its partial record, is listed as a
//   PartialExtraction skip instead of scanned, and is extracted again next run
// - Progress callbacks fire for every file

func newTestIndexer(t *testing.T, opts Options, fns ...Option) *Indexer {
	t.Helper()
	ix, err := New(opts, fns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

var shopTree = map[string]string{
	"Shop.sln":                   "",
	"src/Shop/Shop.csproj":       "<Project />",
	"src/Shop/Calculator.cs":     "namespace CalculatorApp { public class Calculator { public int Add(int a, int b) { return a + b; } } }",
	"src/Shop/Widgets/Widget.cs": "namespace Shared\n{\n    public class Widget\n    {\n        public string Name { get; set; }\n    }\n}\n",
	"src/Legacy/Widget.cs":       "namespace Shared\n{\n    internal class Widget\n    {\n    }\n}\n",
	"src/Shop/bin/Debug/Gen.cs":  "namespace Generated { public class Gen { } }",
}

func TestRun_DotnetTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, shopTree)
	ix := newTestIndexer(t, Options{Concurrency: 4})

	// Test: end-to-end run produces the aggregated index and report
	res, err := ix.Run(context.Background(), Request{Root: root, Family: FamilyDotnet})
	require.NoError(t, err)

	idx := res.Index
	assert.Equal(t, []string{"CalculatorApp", "Shared"}, idx.NamespaceNames())
	assert.Equal(t, []string{"Shop.sln", "src/Shop/Shop.csproj"}, idx.ProjectFiles)

	calc := idx.Namespaces["CalculatorApp"].Classes
	require.Len(t, calc, 1)
	require.Len(t, calc[0].Methods, 1)
	assert.Equal(t, "Add", calc[0].Methods[0].Name)

	// Test: discovery order puts src/Legacy before src/Shop
	widgets := idx.Namespaces["Shared"].Classes
	require.Len(t, widgets, 2)
	assert.Equal(t, "src/Legacy/Widget.cs", widgets[0].SourceFile)
	assert.Equal(t, "src/Shop/Widgets/Widget.cs", widgets[1].SourceFile)
	assert.True(t, widgets[0].Colliding)
	assert.True(t, widgets[1].Colliding)

	rep := res.Report
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, FamilyDotnet, rep.Family)
	assert.Equal(t, 3, rep.FilesDiscovered)
	assert.Equal(t, 3, rep.FilesScanned)
	assert.Empty(t, rep.Skipped)
	assert.Equal(t, 3, rep.Totals.Classes)
	assert.Equal(t, 1, rep.Totals.Collisions)

	var conflicts int
	for _, w := range rep.Warnings {
		if w.Kind == extraction.IssueAggregationConflict {
			conflicts++
		}
	}
	assert.Equal(t, 1, conflicts)
}

func TestRun_IndependentOfConcurrency(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 40; i++ {
		files[fmt.Sprintf("src/M%02d/Type%02d.cs", i%7, i)] = fmt.Sprintf(
			"namespace Mod%d\n{\n    public class Type%02d\n    {\n        public void Run(int n) { }\n    }\n}\n", i%3, i)
	}
	writeTree(t, root, files)

	// Test: one worker and many workers produce the same index
	serial := newTestIndexer(t, Options{Concurrency: 1, MemoSize: -1})
	parallel := newTestIndexer(t, Options{Concurrency: 16, MemoSize: -1})

	a, err := serial.Run(context.Background(), Request{Root: root, Family: FamilyDotnet})
	require.NoError(t, err)
	b, err := parallel.Run(context.Background(), Request{Root: root, Family: FamilyDotnet})
	require.NoError(t, err)

	assert.Equal(t, a.Index, b.Index)
	assert.Equal(t, 40, a.Index.Summary.Classes)
	assert.Equal(t, 40, a.Index.Summary.Methods)
}

func TestRun_SkipsUnknownAndOversized(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Good.cs":   "class Good { }",
		"Binary.cs": "\x00\x01\x02\x03\x04\x05\x06\x07\x00\xff\xfe",
		"Huge.cs":   "class Huge { " + strings.Repeat("int f; ", 40) + "}",
	})
	ix := newTestIndexer(t, Options{MaxFileBytes: 64})

	// Test: per-file problems are reported, not returned
	res, err := ix.Run(context.Background(), Request{Root: root, Family: FamilyDotnet})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Report.FilesDiscovered)
	assert.Equal(t, 1, res.Report.FilesScanned)
	assert.Equal(t, map[SkipReason]int{
		SkipUnknownLanguage:   1,
		SkipPartialExtraction: 1,
	}, res.Report.SkippedBy())

	require.Len(t, res.Report.Warnings, 1)
	assert.Equal(t, "Huge.cs", res.Report.Warnings[0].File)
	assert.Equal(t, extraction.IssuePartialExtraction, res.Report.Warnings[0].Kind)

	assert.Len(t, res.Index.Namespaces[extraction.GlobalNamespace].Classes, 1)
}

func TestRun_NoFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app/main.py":  "print()",
		"app/util.py":  "x = 1",
		"web/site.css": "body {}",
	})
	ix := newTestIndexer(t, Options{})

	// Test: a run with nothing to extract is a single terminal error
	_, err := ix.Run(context.Background(), Request{Root: root, Family: FamilyDotnet})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoFiles)

	var nf *NoFilesError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, FamilyDotnet, nf.Family)
	assert.Equal(t, root, nf.Root)
	assert.Equal(t, map[string]int{".py": 2, ".css": 1}, nf.Found)
	assert.Contains(t, err.Error(), "dotnet")
	assert.Contains(t, err.Error(), ".py=2")
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	ix := newTestIndexer(t, Options{})

	// Test: a missing root is fatal
	_, err := ix.Run(context.Background(), Request{Root: filepath.Join(t.TempDir(), "nope"), Family: FamilyAngular})
	assert.ErrorIs(t, err, ErrDiscovery)

	// Test: an unknown family is rejected
	_, err = ix.Run(context.Background(), Request{Root: t.TempDir(), Family: "cobol"})
	assert.ErrorIs(t, err, ErrUnknownFamily)
}

func TestRun_MemoReuse(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, shopTree)
	ix := newTestIndexer(t, Options{MemoSize: 128})

	// Test: a second run over unchanged files yields the same index
	first, err := ix.Run(context.Background(), Request{Root: root, Family: FamilyDotnet})
	require.NoError(t, err)
	second, err := ix.Run(context.Background(), Request{Root: root, Family: FamilyDotnet})
	require.NoError(t, err)

	assert.Equal(t, first.Index, second.Index)
	assert.NotEqual(t, first.Report.RunID, second.Report.RunID)
}

// stallUntilDone returns a one-class partial record only after ctx has ended.
func stallUntilDone(ctx context.Context, file extraction.SourceFile) *extraction.StructuralRecord {
	<-ctx.Done()
	rec := extraction.NewRecord(file.Path, file.Language)
	ns := rec.Namespace(extraction.GlobalNamespace)
	ns.Classes = append(ns.Classes, &extraction.TypeEntity{
		Name: "Slow", Kind: extraction.KindClass, SourceFile: file.Path,
		Modifiers: []string{}, Methods: []extraction.Method{}, Properties: []extraction.Property{},
	})
	rec.AddIssue(extraction.IssuePartialExtraction, 1, "extraction stopped early")
	return rec
}

func TestRun_TimeGuard(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Good.cs": "class Good { }",
		"Slow.cs": "class Slow { }",
	})
	ix := newTestIndexer(t, Options{FileTimeout: 20 * time.Millisecond, MemoSize: 128})
	var calls atomic.Int32
	ix.extractorFor = func(lang extraction.Language) parsers.Extractor {
		base := parsers.ForLanguage(lang)
		if base == nil {
			return nil
		}
		return extractorFunc(func(ctx context.Context, file extraction.SourceFile) *extraction.StructuralRecord {
			if file.Path == "Slow.cs" {
				calls.Add(1)
				return stallUntilDone(ctx, file)
			}
			return base.Extract(ctx, file)
		})
	}

	// Test: the partial record is kept and the file is skipped, not scanned
	res, err := ix.Run(context.Background(), Request{Root: root, Family: FamilyDotnet})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Report.FilesDiscovered)
	assert.Equal(t, 1, res.Report.FilesScanned)
	require.Len(t, res.Report.Skipped, 1)
	assert.Equal(t, SkippedFile{Path: "Slow.cs", Reason: SkipPartialExtraction, Detail: "extraction time limit reached"}, res.Report.Skipped[0])

	var names []string
	for _, c := range res.Index.Namespaces[extraction.GlobalNamespace].Classes {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"Good", "Slow"}, names)
	require.Len(t, res.Report.Warnings, 1)
	assert.Equal(t, "Slow.cs", res.Report.Warnings[0].File)

	// Test: the partial record is not memoized
	_, err = ix.Run(context.Background(), Request{Root: root, Family: FamilyDotnet})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

type extractorFunc func(context.Context, extraction.SourceFile) *extraction.StructuralRecord

func (f extractorFunc) Extract(ctx context.Context, file extraction.SourceFile) *extraction.StructuralRecord {
	return f(ctx, file)
}

type recordingProgress struct {
	NoOpProgressReporter
	mu        sync.Mutex
	processed []string
	total     int
	completed bool
}

func (r *recordingProgress) OnFileProcessingStart(total int) { r.total = total }

func (r *recordingProgress) OnFileProcessed(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed = append(r.processed, name)
}

func (r *recordingProgress) OnComplete(*Report, time.Duration) { r.completed = true }

func TestRun_Progress(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, shopTree)
	progress := &recordingProgress{}
	ix := newTestIndexer(t, Options{}, WithProgress(progress), WithConcurrency(2))

	// Test: every discovered file is reported once
	_, err := ix.Run(context.Background(), Request{Root: root, Family: FamilyDotnet})
	require.NoError(t, err)

	assert.Equal(t, 3, progress.total)
	assert.ElementsMatch(t, []string{
		"src/Legacy/Widget.cs",
		"src/Shop/Calculator.cs",
		"src/Shop/Widgets/Widget.cs",
	}, progress.processed)
	assert.True(t, progress.completed)
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	// Test: zero options fall back to the defaults
	ix := newTestIndexer(t, Options{})
	opts := ix.Options()
	def := DefaultOptions()
	assert.Equal(t, def.Concurrency, opts.Concurrency)
	assert.Equal(t, def.MaxFileBytes, opts.MaxFileBytes)
	assert.Equal(t, def.FileTimeout, opts.FileTimeout)
	assert.NotNil(t, opts.Logger)
	assert.NotNil(t, opts.Progress)
}
