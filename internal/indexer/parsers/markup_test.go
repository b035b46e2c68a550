package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/extraction"
)

// Test Plan for Markup Extractor:
// - Angular bindings keep their original attribute casing
// - Stylesheet links record their href
// - Razor components are custom elements; @code blocks are ignored
// - Inline <style> blocks become style rules with file line numbers
// - Malformed markup still yields the elements that were read

func extractMarkup(t *testing.T, lang extraction.Language, src string) *extraction.StructuralRecord {
	t.Helper()
	rec := ForLanguage(lang).Extract(context.Background(), extraction.SourceFile{
		Path:     "view.html",
		Language: lang,
		Text:     src,
	})
	require.NotNil(t, rec)
	return rec
}

func TestMarkupExtractor_AngularBindings(t *testing.T) {
	t.Parallel()

	// Test: structural directives, refs, two-way and event bindings
	rec := extractMarkup(t, extraction.LanguageHTML,
		`<div *ngIf="show"><input #box [(ngModel)]="name" (keyup.enter)="save()"></div>`)

	require.Len(t, rec.Elements, 2)
	assert.Equal(t, "div", rec.Elements[0].Tag)
	assert.Equal(t, []string{"*ngIf=show"}, rec.Elements[0].Bindings)

	input := rec.Elements[1]
	assert.Equal(t, "input", input.Tag)
	assert.Equal(t, []string{"#box", "[(ngModel)]=name", "(keyup.enter)=save()"}, input.Bindings)
	assert.False(t, input.Custom)
	assert.Equal(t, 1, input.Line)
}

func TestMarkupExtractor_StylesheetLink(t *testing.T) {
	t.Parallel()

	// Test: <link rel=stylesheet> keeps the referenced file, other hrefs do not
	rec := extractMarkup(t, extraction.LanguageHTML, `<!DOCTYPE html>
<html>
<head>
  <link rel="stylesheet" href="styles.css">
</head>
<body><a href="/home" id="home-link">Home</a></body>
</html>`)

	var link, anchor *extraction.MarkupElement
	for i := range rec.Elements {
		switch rec.Elements[i].Tag {
		case "link":
			link = &rec.Elements[i]
		case "a":
			anchor = &rec.Elements[i]
		}
	}
	require.NotNil(t, link)
	assert.Equal(t, []string{"rel", "href=styles.css"}, link.Attributes)
	assert.Equal(t, 4, link.Line)

	require.NotNil(t, anchor)
	assert.Equal(t, "home-link", anchor.ID)
	assert.Equal(t, []string{"href"}, anchor.Attributes)
	assert.Equal(t, 6, anchor.Line)
}

func TestMarkupExtractor_RazorView(t *testing.T) {
	t.Parallel()

	// Test: PascalCase components, Razor bindings, inline styles, @code blocks
	rec := extractMarkup(t, extraction.LanguageRazor, `@page "/counter"
@inject NavigationManager Nav

<h1 id="title" class="display-4 mb-2">Counter</h1>
<Counter @bind-Value="count" />
<button class="btn" @onclick="Increment">Click</button>
<style>
  .btn { padding: 4px; }
</style>

@code {
    private int count;
    private bool Small => count <Limit;
    private void Increment() { if (count < 5) { count++; } }
}
`)

	var tags []string
	for _, el := range rec.Elements {
		tags = append(tags, el.Tag)
	}
	assert.Equal(t, []string{"h1", "Counter", "button", "style"}, tags)

	h1 := rec.Elements[0]
	assert.Equal(t, "title", h1.ID)
	assert.Equal(t, []string{"display-4", "mb-2"}, h1.Classes)
	assert.Equal(t, 4, h1.Line)

	counter := rec.Elements[1]
	assert.True(t, counter.Custom)
	assert.Equal(t, []string{"@bind-Value=count"}, counter.Bindings)
	assert.Equal(t, 5, counter.Line)

	assert.Equal(t, []string{"@onclick=Increment"}, rec.Elements[2].Bindings)

	require.Len(t, rec.StyleRules, 1)
	assert.Equal(t, ".btn", rec.StyleRules[0].Selector)
	assert.Equal(t, []extraction.Declaration{{Property: "padding", Value: "4px"}}, rec.StyleRules[0].Declarations)
	assert.Equal(t, 8, rec.StyleRules[0].Line)
	assert.Equal(t, "view.html", rec.StyleRules[0].FilePath)
}

func TestMarkupExtractor_Malformed(t *testing.T) {
	t.Parallel()

	// Test: unclosed tags and stray text never fail the extraction
	rec := extractMarkup(t, extraction.LanguageHTML, "<div class=\"a\"><span>text\n<app-card")

	require.NotEmpty(t, rec.Elements)
	assert.Equal(t, "div", rec.Elements[0].Tag)
	assert.Equal(t, "span", rec.Elements[1].Tag)
}

func TestOriginalCase(t *testing.T) {
	t.Parallel()

	// Test: names are matched whole, skipping occurrences inside values
	raw := `<input title="ngmodel" [ngModel]="x">`
	assert.Equal(t, "[ngModel]", originalCase(raw, 6, "[ngmodel]"))
	assert.Equal(t, "title", originalCase(raw, 6, "title"))
	assert.Equal(t, "missing", originalCase(raw, 6, "missing"))
}
