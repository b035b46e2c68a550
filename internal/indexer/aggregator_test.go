package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/extraction"
)

// Test Plan for Aggregate:
// - Same namespace + same type name in two files: both kept and both tagged
// - Partial types across files are tagged as partial collisions
// - Different generic arity does not collide
// - Namespaces from different files merge in record order
// - Components, style rules and markup inventories concatenate in order
// - Summary tallies every kind
// - Input records are not mutated
// - Output is identical for identical input

func typeRecord(path, ns string, types ...*extraction.TypeEntity) *extraction.StructuralRecord {
	rec := extraction.NewRecord(path, extraction.LanguageCSharp)
	target := rec.Namespace(ns)
	for _, t := range types {
		t.SourceFile = path
		if t.Kind == "" {
			t.Kind = extraction.KindClass
		}
		target.Classes = append(target.Classes, t)
	}
	return rec
}

func TestAggregate_DuplicateTypesAcrossFiles(t *testing.T) {
	t.Parallel()

	a := typeRecord("A.cs", "Shared", &extraction.TypeEntity{Name: "Widget", Modifiers: []string{"public"}, Line: 3})
	b := typeRecord("B.cs", "Shared", &extraction.TypeEntity{Name: "Widget", Modifiers: []string{"internal"}, Line: 7})

	// Test: both entries survive and both are flagged
	idx, issues := Aggregate([]*extraction.StructuralRecord{a, b})

	require.Contains(t, idx.Namespaces, "Shared")
	widgets := idx.Namespaces["Shared"].Classes
	require.Len(t, widgets, 2)
	assert.Equal(t, "A.cs", widgets[0].SourceFile)
	assert.Equal(t, "B.cs", widgets[1].SourceFile)
	for _, w := range widgets {
		assert.True(t, w.Colliding)
		assert.Equal(t, extraction.CollisionDuplicate, w.CollisionKind)
	}
	assert.Equal(t, []string{"B.cs"}, widgets[0].CollidesWith)
	assert.Equal(t, []string{"A.cs"}, widgets[1].CollidesWith)

	require.Len(t, issues, 1)
	assert.Equal(t, extraction.IssueAggregationConflict, issues[0].Kind)
	assert.Equal(t, "A.cs", issues[0].File)
	assert.Contains(t, issues[0].Message, "Shared.Widget")
	assert.Equal(t, 1, idx.Summary.Collisions)
	assert.Equal(t, 2, idx.Summary.Classes)

	// Test: inputs are untouched
	assert.False(t, a.Namespaces[0].Classes[0].Colliding)
	assert.False(t, b.Namespaces[0].Classes[0].Colliding)
}

func TestAggregate_PartialTypes(t *testing.T) {
	t.Parallel()

	a := typeRecord("Order.cs", "Shop", &extraction.TypeEntity{Name: "Order", Modifiers: []string{"public", "partial"}})
	b := typeRecord("Order.Totals.cs", "Shop", &extraction.TypeEntity{Name: "Order", Modifiers: []string{"partial"}})

	// Test: every participant is partial, so the kind is partial
	idx, issues := Aggregate([]*extraction.StructuralRecord{a, b})
	require.Len(t, issues, 1)
	for _, o := range idx.Namespaces["Shop"].Classes {
		assert.Equal(t, extraction.CollisionPartial, o.CollisionKind)
	}
}

func TestAggregate_NoCollision(t *testing.T) {
	t.Parallel()

	a := typeRecord("Result.cs", "Core", &extraction.TypeEntity{Name: "Result"})
	b := typeRecord("ResultT.cs", "Core", &extraction.TypeEntity{Name: "Result", TypeParameters: []string{"T"}})
	c := typeRecord("Other.cs", "Other", &extraction.TypeEntity{Name: "Result"})
	d := typeRecord("Twice.cs", "Twice",
		&extraction.TypeEntity{Name: "Dup"},
		&extraction.TypeEntity{Name: "Dup"},
	)

	// Test: arity, namespace and same-file repeats never collide
	idx, issues := Aggregate([]*extraction.StructuralRecord{a, b, c, d})
	assert.Empty(t, issues)
	assert.Equal(t, 0, idx.Summary.Collisions)
	for _, typ := range idx.Types() {
		assert.False(t, typ.Colliding, typ.Name)
	}
	assert.Equal(t, []string{"Core", "Other", "Twice"}, idx.NamespaceNames())
	assert.Len(t, idx.Namespaces["Core"].Classes, 2)
}

func TestAggregate_ConcatenatesAndTallies(t *testing.T) {
	t.Parallel()

	cs := typeRecord("Api.cs", "Api",
		&extraction.TypeEntity{Name: "IRepo", Kind: extraction.KindInterface, Methods: []extraction.Method{{Name: "Get"}, {Name: "Put"}}},
		&extraction.TypeEntity{Name: "Status", Kind: extraction.KindEnum, Members: []string{"On", "Off"}},
		&extraction.TypeEntity{Name: "Guards", Kind: extraction.KindStaticType, Properties: []extraction.Property{{Name: "Max"}}},
	)

	ts := extraction.NewRecord("src/app/foo.component.ts", extraction.LanguageTypeScript)
	ts.Components = append(ts.Components,
		extraction.ComponentEntity{ClassName: "FooComponent", DecoratorKind: extraction.DecoratorComponent},
		extraction.ComponentEntity{ClassName: "FooService", DecoratorKind: extraction.DecoratorService},
		extraction.ComponentEntity{ClassName: "FooModule", DecoratorKind: extraction.DecoratorOther},
	)

	css := extraction.NewRecord("a.css", extraction.LanguageCSS)
	css.StyleRules = append(css.StyleRules, extraction.StyleRule{Selector: ".a"}, extraction.StyleRule{Selector: ".b"})

	html := extraction.NewRecord("index.html", extraction.LanguageHTML)
	html.Elements = append(html.Elements, extraction.MarkupElement{Tag: "div"}, extraction.MarkupElement{Tag: "app-foo", Custom: true})

	empty := extraction.NewRecord("empty.cs", extraction.LanguageCSharp)

	// Test: order is preserved and every counter is filled
	idx, issues := Aggregate([]*extraction.StructuralRecord{cs, ts, css, html, empty})
	assert.Empty(t, issues)

	assert.Equal(t, extraction.IndexSummary{
		Files:       5,
		Interfaces:  1,
		Enums:       1,
		StaticTypes: 1,
		Components:  1,
		Services:    1,
		Methods:     2,
		Properties:  1,
		StyleRules:  2,
		Elements:    2,
	}, idx.Summary)

	require.Len(t, idx.Components, 3)
	assert.Equal(t, "FooComponent", idx.Components[0].ClassName)
	assert.Equal(t, "FooModule", idx.Components[2].ClassName)
	assert.Equal(t, ".a", idx.StyleRules[0].Selector)
	require.Len(t, idx.Templates, 1)
	assert.Equal(t, "index.html", idx.Templates[0].FilePath)
}

func TestAggregate_EmptyAndDeterministic(t *testing.T) {
	t.Parallel()

	// Test: no records is an empty but valid index
	idx, issues := Aggregate(nil)
	assert.True(t, idx.IsEmpty())
	assert.Empty(t, issues)

	// Test: the same sequence aggregates to the same index
	build := func() []*extraction.StructuralRecord {
		return []*extraction.StructuralRecord{
			typeRecord("A.cs", "N", &extraction.TypeEntity{Name: "X"}),
			typeRecord("B.cs", "N", &extraction.TypeEntity{Name: "X"}),
			typeRecord("C.cs", "M", &extraction.TypeEntity{Name: "Y"}),
		}
	}
	first, firstIssues := Aggregate(build())
	second, secondIssues := Aggregate(build())
	assert.Equal(t, first, second)
	assert.Equal(t, firstIssues, secondIssues)
}
