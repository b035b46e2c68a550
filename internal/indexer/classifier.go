package indexer

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/extraction"
)

// headSize is how much of a file the classifier looks at.
const headSize = 3072

var extLanguages = map[string]extraction.Language{
	".cs":     extraction.LanguageCSharp,
	".cshtml": extraction.LanguageRazor,
	".razor":  extraction.LanguageRazor,
	".ts":     extraction.LanguageTypeScript,
	".js":     extraction.LanguageJavaScript,
	".html":   extraction.LanguageHTML,
	".htm":    extraction.LanguageHTML,
	".css":    extraction.LanguageCSS,
	".scss":   extraction.LanguageSCSS,
}

var razorDirectives = []string{"@page", "@model", "@using", "@inherits", "@inject", "@code"}

// Classify assigns a language tag from the file extension, using the first
// bytes of content to settle ambiguous cases: binary content (such as an
// MPEG transport stream saved as .ts) is unknown, and HTML that opens with a
// Razor directive is razor.
func Classify(path string, head []byte) extraction.Language {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extLanguages[ext]
	if !ok {
		return extraction.LanguageUnknown
	}
	if len(head) > headSize {
		head = head[:headSize]
	}
	if len(head) > 0 && !isText(head) {
		return extraction.LanguageUnknown
	}
	if lang == extraction.LanguageHTML && hasRazorDirective(head) {
		return extraction.LanguageRazor
	}
	return lang
}

// isText reports whether the detected MIME type is textual.
func isText(head []byte) bool {
	for m := mimetype.Detect(head); m != nil; m = m.Parent() {
		if m.Is("text/plain") || strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}

func hasRazorDirective(head []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(head))
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\uFEFF"))
		if line == "" {
			continue
		}
		for _, d := range razorDirectives {
			if line == d || strings.HasPrefix(line, d+" ") || strings.HasPrefix(line, d+"{") {
				return true
			}
		}
		return false
	}
	return false
}
