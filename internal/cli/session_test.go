package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer"
)

// Test Plan for CLI sessions:
// - A first scan runs the pipeline and fills the cache
// - A second session over the unchanged tree is served from the cache
// - Touching a file invalidates the cached index
// - Changing an extraction limit invalidates the cached index
// - --no-cache never opens the cache
// - An unknown --family fails before any work
// - Output path and format resolve from flag, config, then extension
// - An index written to stdout sends the summary to the command's stderr

const orderCS = "namespace Shop\n{\n    public class Order\n    {\n        public void Pay(int amount) { }\n    }\n}\n"

// newProject writes a one-file dotnet project whose config points the cache
// at a private directory.
func newProject(t *testing.T) (root, cacheDir string) {
	t.Helper()
	root = t.TempDir()
	cacheDir = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".docgen"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Shop"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".docgen", "config.yml"),
		[]byte("cache:\n  location: "+cacheDir+"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Shop", "Order.cs"), []byte(orderCS), 0644))
	return root, cacheDir
}

func openTestSession(t *testing.T, p sessionParams) *session {
	t.Helper()
	s, err := openSession(p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSession_ScanUsesCache(t *testing.T) {
	t.Parallel()

	root, cacheDir := newProject(t)
	ctx := context.Background()

	// Test: first scan runs the pipeline
	first := openTestSession(t, sessionParams{Root: root})
	out, err := first.scan(ctx)
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Equal(t, 1, out.Report.Totals.Classes)
	assert.FileExists(t, filepath.Join(cacheDir, "index.db"))

	// Test: unchanged tree is served from the cache
	second := openTestSession(t, sessionParams{Root: root})
	cached, err := second.scan(ctx)
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Equal(t, out.Index.Summary, cached.Index.Summary)
	assert.Equal(t, "Order", cached.Index.Namespaces["Shop"].Classes[0].Name)
	assert.NotEmpty(t, cached.Report.RunID)

	// Test: touching a file invalidates the entry
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "Shop", "Order.cs"), later, later))
	fresh, err := second.scan(ctx)
	require.NoError(t, err)
	assert.False(t, fresh.Cached)

	// Test: a new size limit invalidates the entry
	require.NoError(t, os.WriteFile(filepath.Join(root, ".docgen", "config.yml"),
		[]byte("cache:\n  location: "+cacheDir+"\nextraction:\n  max_file_bytes: 4096\n"), 0644))
	third := openTestSession(t, sessionParams{Root: root})
	limited, err := third.scan(ctx)
	require.NoError(t, err)
	assert.False(t, limited.Cached)
	again, err := third.scan(ctx)
	require.NoError(t, err)
	assert.True(t, again.Cached)
}

func TestSession_NoCache(t *testing.T) {
	t.Parallel()

	root, cacheDir := newProject(t)

	// Test: --no-cache leaves the cache untouched
	s := openTestSession(t, sessionParams{Root: root, NoCache: true})
	assert.Nil(t, s.cache)
	out, err := s.scan(context.Background())
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.NoFileExists(t, filepath.Join(cacheDir, "index.db"))
}

func TestSession_Errors(t *testing.T) {
	t.Parallel()

	root, _ := newProject(t)

	// Test: unknown family
	_, err := openSession(sessionParams{Root: root, Family: "cobol"})
	assert.ErrorIs(t, err, indexer.ErrUnknownFamily)

	// Test: a family with no files ends in NoFilesError
	s := openTestSession(t, sessionParams{Root: root, Family: "angular", NoCache: true})
	_, err = s.scan(context.Background())
	assert.ErrorIs(t, err, indexer.ErrNoFiles)
}

func TestSession_Output(t *testing.T) {
	t.Parallel()

	root, _ := newProject(t)
	s := openTestSession(t, sessionParams{Root: root, NoCache: true})

	// Test: path resolution
	assert.Equal(t, filepath.Join(s.root, ".docgen", "index.json"), s.outputPath(""))
	assert.Equal(t, filepath.Join(s.root, "out.yaml"), s.outputPath("out.yaml"))
	assert.Equal(t, "-", s.outputPath("-"))
	abs := filepath.Join(t.TempDir(), "x.json")
	assert.Equal(t, abs, s.outputPath(abs))

	// Test: format resolution
	assert.Equal(t, indexer.FormatYAML, s.outputFormat("yaml", "index.json"))
	assert.Equal(t, indexer.FormatYAML, s.outputFormat("", "index.yml"))
	assert.Equal(t, indexer.FormatJSON, s.outputFormat("", "-"))
}

func TestScanAndWrite(t *testing.T) {
	t.Parallel()

	root, _ := newProject(t)
	s := openTestSession(t, sessionParams{Root: root, NoCache: true})

	// Test: the index lands at the configured path, summary is printed
	var summary, stdout, stderr bytes.Buffer
	require.NoError(t, scanAndWrite(context.Background(), s, streams{stdout: &stdout, stderr: &stderr, summary: &summary}))
	data, err := os.ReadFile(filepath.Join(s.root, ".docgen", "index.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"namespaceMap"`)
	assert.Contains(t, summary.String(), "1 classes")
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())

	// Test: with the index on stdout the summary moves to the command's stderr
	require.NoError(t, os.WriteFile(filepath.Join(root, ".docgen", "config.yml"),
		[]byte("output:\n  path: \"-\"\n"), 0644))
	piped := openTestSession(t, sessionParams{Root: root, NoCache: true})
	stdout.Reset()
	out := streams{stdout: &stdout, stderr: &stderr}
	out.summary = out.stdout
	require.NoError(t, scanAndWrite(context.Background(), piped, out))
	assert.Contains(t, stdout.String(), `"namespaceMap"`)
	assert.NotContains(t, stdout.String(), "Index of")
	assert.Contains(t, stderr.String(), "Output:     stdout")
}
