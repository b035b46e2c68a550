package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer"
)

// Test Plan for FileWatcher:
// - NewFileWatcher fails for a missing root
// - Changes arrive as one debounced, sorted batch of relative paths
// - Rapid writes to one file coalesce into a single callback
// - Pause accumulates; Resume fires immediately
// - Deletions are reported
// - New sub-directories are watched; ignored ones are not
// - Untracked extensions never fire
// - Stop is idempotent and safe concurrently; context cancellation stops the loop

const testDebounce = 100 * time.Millisecond

func newTestWatcher(t *testing.T, root string) FileWatcher {
	t.Helper()
	fd, err := indexer.NewFileDiscovery(root, indexer.FamilyDotnet, indexer.FamilyDotnet.DefaultIgnore())
	require.NoError(t, err)
	w, err := NewFileWatcher(fd, WithDebounce(testDebounce))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

// batches collects callback invocations.
type batches struct {
	mu    sync.Mutex
	calls [][]string
	ch    chan struct{}
}

func newBatches() *batches {
	return &batches{ch: make(chan struct{}, 16)}
}

func (b *batches) callback(files []string) {
	b.mu.Lock()
	b.calls = append(b.calls, files)
	b.mu.Unlock()
	b.ch <- struct{}{}
}

func (b *batches) wait(t *testing.T) {
	t.Helper()
	select {
	case <-b.ch:
	case <-time.After(3 * time.Second):
		t.Fatal("callback not called before timeout")
	}
}

func (b *batches) snapshot() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.calls...)
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// Test: NewFileWatcher fails for a missing root
func TestNewFileWatcher_InvalidRoot(t *testing.T) {
	t.Parallel()

	fd, err := indexer.NewFileDiscovery(filepath.Join(t.TempDir(), "missing"), indexer.FamilyDotnet, nil)
	require.NoError(t, err)
	w, err := NewFileWatcher(fd)
	assert.Error(t, err)
	assert.Nil(t, w)
}

// Test: several changes arrive as one sorted batch
func TestFileWatcher_BatchesChanges(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Shop"), 0755))
	w := newTestWatcher(t, root)
	b := newBatches()
	require.NoError(t, w.Start(context.Background(), b.callback))
	time.Sleep(50 * time.Millisecond)

	write(t, filepath.Join(root, "Shop", "Order.cs"), "class Order {}")
	write(t, filepath.Join(root, "App.razor"), "<h1/>")
	write(t, filepath.Join(root, "Shop.sln"), "")
	b.wait(t)

	calls := b.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"App.razor", "Shop.sln", "Shop/Order.cs"}, calls[0])
}

// Test: rapid writes coalesce into one callback
func TestFileWatcher_Debouncing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := newTestWatcher(t, root)
	b := newBatches()
	require.NoError(t, w.Start(context.Background(), b.callback))
	time.Sleep(50 * time.Millisecond)

	file := filepath.Join(root, "Order.cs")
	for _, v := range []string{"v1", "v2", "v3"} {
		write(t, file, "// "+v)
		time.Sleep(20 * time.Millisecond)
	}
	b.wait(t)
	time.Sleep(3 * testDebounce)

	calls := b.snapshot()
	require.Len(t, calls, 1, "rapid writes should coalesce")
	assert.Equal(t, []string{"Order.cs"}, calls[0])
}

// Test: pause accumulates, resume fires immediately
func TestFileWatcher_PauseResume(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := newTestWatcher(t, root)
	b := newBatches()
	require.NoError(t, w.Start(context.Background(), b.callback))
	time.Sleep(50 * time.Millisecond)

	w.Pause()
	write(t, filepath.Join(root, "Paused.cs"), "class Paused {}")
	time.Sleep(4 * testDebounce)
	assert.Empty(t, b.snapshot(), "no callbacks while paused")

	w.Resume()
	b.wait(t)
	calls := b.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"Paused.cs"}, calls[0])
}

// Test: deleting a tracked file is reported
func TestFileWatcher_FileDeleted(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	file := filepath.Join(root, "Gone.cs")
	write(t, file, "class Gone {}")

	w := newTestWatcher(t, root)
	b := newBatches()
	require.NoError(t, w.Start(context.Background(), b.callback))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.Remove(file))
	b.wait(t)
	assert.Equal(t, []string{"Gone.cs"}, b.snapshot()[0])
}

// Test: new directories are watched, ignored ones are not
func TestFileWatcher_NewDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := newTestWatcher(t, root)
	b := newBatches()
	require.NoError(t, w.Start(context.Background(), b.callback))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Billing"), 0755))
	time.Sleep(100 * time.Millisecond)

	write(t, filepath.Join(root, "bin", "Generated.cs"), "class Generated {}")
	write(t, filepath.Join(root, "Billing", "Invoice.cs"), "class Invoice {}")
	b.wait(t)
	time.Sleep(2 * testDebounce)

	var all []string
	for _, c := range b.snapshot() {
		all = append(all, c...)
	}
	assert.Contains(t, all, "Billing/Invoice.cs")
	assert.NotContains(t, all, "bin/Generated.cs")
}

// Test: untracked extensions never fire
func TestFileWatcher_ExtensionFiltering(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := newTestWatcher(t, root)
	b := newBatches()
	require.NoError(t, w.Start(context.Background(), b.callback))
	time.Sleep(50 * time.Millisecond)

	write(t, filepath.Join(root, "notes.md"), "# notes")
	write(t, filepath.Join(root, "site.css"), "a {}")
	time.Sleep(4 * testDebounce)
	assert.Empty(t, b.snapshot())
}

// Test: cancelling the context stops the loop and Stop stays safe
func TestFileWatcher_ContextCancellation(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w := newTestWatcher(t, root)
	b := newBatches()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx, b.callback))

	cancel()
	time.Sleep(50 * time.Millisecond)
	write(t, filepath.Join(root, "Late.cs"), "class Late {}")
	time.Sleep(4 * testDebounce)

	assert.Empty(t, b.snapshot())
	assert.NoError(t, w.Stop())
}

// Test: concurrent Stop calls are safe, including before Start
func TestFileWatcher_ConcurrentStop(t *testing.T) {
	t.Parallel()

	for _, started := range []bool{true, false} {
		root := t.TempDir()
		fd, err := indexer.NewFileDiscovery(root, indexer.FamilyAngular, nil)
		require.NoError(t, err)
		w, err := NewFileWatcher(fd)
		require.NoError(t, err)
		if started {
			require.NoError(t, w.Start(context.Background(), func([]string) {}))
		}

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = w.Stop()
			}()
		}
		wg.Wait()
	}
}
