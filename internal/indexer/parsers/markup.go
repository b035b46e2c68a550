package parsers

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/extraction"
)

// markupExtractor builds a flat element inventory from HTML, Angular templates
// and Razor views.
type markupExtractor struct{}

var razorCodeBlockRe = regexp.MustCompile(`@(?:code|functions)\s*\{`)

func (markupExtractor) Extract(ctx context.Context, file extraction.SourceFile) *extraction.StructuralRecord {
	rec := extraction.NewRecord(file.Path, file.Language)
	text := file.Text
	if file.Language == extraction.LanguageRazor {
		text = blankRazorCode(text)
	}

	z := html.NewTokenizer(strings.NewReader(text))
	line := 1
	inStyle := false
	for n := 0; ; n++ {
		if n%checkEvery == 0 && timedOut(ctx, rec, line) {
			break
		}
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		// TagName and TagAttr lowercase the token buffer in place, so the raw
		// text has to be copied first.
		raw := string(z.Raw())
		tokLine := line
		line += strings.Count(raw, "\n")

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			el := readElement(z, raw, tokLine)
			rec.Elements = append(rec.Elements, el)
			inStyle = tt == html.StartTagToken && strings.EqualFold(el.Tag, "style")
		case html.TextToken:
			if inStyle {
				inlineStyles(ctx, rec, raw, tokLine)
			}
		case html.EndTagToken:
			inStyle = false
		}
	}
	return rec
}

func readElement(z *html.Tokenizer, raw string, line int) extraction.MarkupElement {
	name, hasAttr := z.TagName()
	tag := originalCase(raw, 1, string(name))
	el := extraction.MarkupElement{
		Tag:    tag,
		Custom: strings.Contains(tag, "-") || tag != "" && tag[0] >= 'A' && tag[0] <= 'Z',
		Line:   line,
	}
	stylesheet := false
	var href string
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		k := originalCase(raw, 1+len(tag), string(key))
		v := string(val)
		switch {
		case k == "id":
			el.ID = v
		case k == "class":
			el.Classes = strings.Fields(v)
		case isBinding(k):
			if v != "" {
				el.Bindings = append(el.Bindings, k+"="+v)
			} else {
				el.Bindings = append(el.Bindings, k)
			}
		case k == "href":
			href = v
		default:
			el.Attributes = append(el.Attributes, k)
			if k == "rel" {
				stylesheet = strings.EqualFold(v, "stylesheet")
			}
		}
	}
	switch {
	case strings.EqualFold(tag, "link") && stylesheet:
		el.Attributes = append(el.Attributes, "href="+href)
	case href != "":
		el.Attributes = append(el.Attributes, "href")
	}
	return el
}

// isBinding reports Angular and Razor binding syntax: [x], (y), [(z)], *ngIf,
// #ref and @bind/@onclick.
func isBinding(attr string) bool {
	return attr != "" && strings.IndexByte("[(*#@", attr[0]) >= 0
}

// originalCase finds lower as a whole name in raw, starting the search at
// from, and returns it with the casing it was written in.
func originalCase(raw string, from int, lower string) string {
	if lower == "" || from > len(raw) {
		return lower
	}
	folded := strings.ToLower(raw)
	if len(folded) != len(raw) {
		return lower
	}
	for i := from; i+len(lower) <= len(raw); {
		k := strings.Index(folded[i:], lower)
		if k < 0 {
			break
		}
		at := i + k
		end := at + len(lower)
		if (at == 0 || isNameBoundary(raw[at-1]) || raw[at-1] == '<') && (end == len(raw) || isNameBoundary(raw[end]) || raw[end] == '=') {
			return raw[at:end]
		}
		i = at + 1
	}
	return lower
}

func isNameBoundary(c byte) bool {
	return isSpace(c) || c == '/' || c == '>'
}

// inlineStyles runs the stylesheet extractor over the text of a <style>
// element and merges the rules, shifted to the element's position.
func inlineStyles(ctx context.Context, rec *extraction.StructuralRecord, css string, line int) {
	sub := stylesheetExtractor{}.Extract(ctx, extraction.SourceFile{
		Path:     rec.FilePath,
		Language: extraction.LanguageCSS,
		Text:     css,
	})
	for _, r := range sub.StyleRules {
		r.Line += line - 1
		rec.StyleRules = append(rec.StyleRules, r)
	}
	for _, is := range sub.Issues {
		is.Line += line - 1
		rec.Issues = append(rec.Issues, is)
	}
}

// blankRazorCode replaces the bodies of @code and @functions blocks with
// spaces so C# comparisons are not read as tags. Newlines are kept.
func blankRazorCode(text string) string {
	locs := razorCodeBlockRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	out := []byte(text)
	for _, loc := range locs {
		open := loc[1] - 1
		masked := mask(text[open:], csharpSyntax)
		end := len(masked)
		if c := matchClose(masked, 0, len(masked)); c >= 0 {
			end = c
		}
		for k := open + 1; k < open+end; k++ {
			if out[k] != '\n' {
				out[k] = ' '
			}
		}
	}
	return string(out)
}
