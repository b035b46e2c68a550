package indexer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileDiscovery:
// - Only family extensions are returned, sorted, as relative slash paths
// - Ignored directory names are pruned at any depth
// - Glob segment patterns and path patterns both prune
// - .sln/.csproj manifests are collected for the dotnet family
// - A missing root or a file root is a DiscoveryError
// - An unknown family is rejected
// - The extension histogram counts what is present outside ignored dirs

func TestDiscover_FiltersAndSorts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/Zeta.cs":             "class Zeta {}",
		"src/Alpha.cs":            "class Alpha {}",
		"Views/Home/Index.cshtml": "<h1></h1>",
		"Shared/Nav.razor":        "<nav></nav>",
		"README.md":               "# readme",
		"src/app.ts":              "export class A {}",
	})

	// Test: non-family files are dropped and output is lexicographic
	fd, err := NewFileDiscovery(root, FamilyDotnet, nil)
	require.NoError(t, err)
	got, err := fd.Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Shared/Nav.razor",
		"Views/Home/Index.cshtml",
		"src/Alpha.cs",
		"src/Zeta.cs",
	}, got.Files)
	assert.Empty(t, got.Skipped)
}

func TestDiscover_IgnoredDirectoriesAtAnyDepth(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"App/Program.cs":                   "class Program {}",
		"App/bin/Debug/Generated.cs":       "class Generated {}",
		"App/obj/AssemblyInfo.cs":          "class AssemblyInfo {}",
		"node_modules/pkg/index.cs":        "class X {}",
		"App.Tests/ProgramTests.cs":        "class ProgramTests {}",
		"App/Migrations/Generated/Init.cs": "class Init {}",
		"App/Migrations/AddOrders.cs":      "class AddOrders {}",
	})

	// Test: defaults plus a segment glob and a path glob
	ignore := append(FamilyDotnet.DefaultIgnore(), "*.Tests", "App/Migrations/Generated/**")
	fd, err := NewFileDiscovery(root, FamilyDotnet, ignore)
	require.NoError(t, err)
	got, err := fd.Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"App/Migrations/AddOrders.cs", "App/Program.cs"}, got.Files)
}

func TestDiscover_ProjectFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Shop.sln":             "",
		"src/Shop/Shop.csproj": "<Project />",
		"src/Shop/Order.cs":    "class Order {}",
		"web/package.json":     "{}",
	})

	// Test: manifests are returned separately from sources
	fd, err := NewFileDiscovery(root, FamilyDotnet, nil)
	require.NoError(t, err)
	got, err := fd.Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"src/Shop/Order.cs"}, got.Files)
	assert.Equal(t, []string{"Shop.sln", "src/Shop/Shop.csproj"}, got.ProjectFiles)
}

func TestDiscover_BadRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{"file.cs": "class A {}"})

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(root, "does-not-exist")},
		{"not a directory", filepath.Join(root, "file.cs")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Test: root problems are fatal discovery errors
			fd, err := NewFileDiscovery(tt.path, FamilyDotnet, nil)
			require.NoError(t, err)
			_, err = fd.Discover(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDiscovery)

			var de *DiscoveryError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.path, de.Root)
		})
	}
}

func TestNewFileDiscovery_UnknownFamily(t *testing.T) {
	t.Parallel()

	// Test: unsupported families are rejected up front
	_, err := NewFileDiscovery(t.TempDir(), Family("cobol"), nil)
	assert.ErrorIs(t, err, ErrUnknownFamily)
}

func TestExtensionHistogram(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.py":             "print()",
		"lib/util.py":         "x = 1",
		"lib/README":          "",
		"node_modules/a/b.py": "",
		"web/index.HTML":      "<p></p>",
	})

	// Test: ignored dirs are not counted and extensions are lowercased
	fd, err := NewFileDiscovery(root, FamilyDotnet, FamilyDotnet.DefaultIgnore())
	require.NoError(t, err)
	hist, err := fd.ExtensionHistogram(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{".py": 2, "(none)": 1, ".html": 1}, hist)
}

func TestFileDiscovery_Filter(t *testing.T) {
	t.Parallel()

	fd, err := NewFileDiscovery("/src", FamilyDotnet, []string{"bin", "App/Generated/**"})
	require.NoError(t, err)

	// Test: directory pruning matches the walk
	assert.True(t, fd.IgnoresDir("bin"))
	assert.True(t, fd.IgnoresDir("Shop/bin"))
	assert.True(t, fd.IgnoresDir("App/Generated"))
	assert.False(t, fd.IgnoresDir("App"))

	// Test: sources and manifests are tracked, other files are not
	assert.True(t, fd.Tracks("Shop/Order.CS"))
	assert.True(t, fd.Tracks("Shop.sln"))
	assert.False(t, fd.Tracks("readme.md"))
	assert.Equal(t, "/src", fd.Root())
}
