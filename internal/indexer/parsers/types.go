package parsers

import (
	"context"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/extraction"
)

// Extractor turns one classified source file into a StructuralRecord.
//
// Implementations never fail: malformed input yields a partial record with a
// PartialExtraction issue, and an unparseable file yields an empty record.
// When ctx expires mid-scan the record built so far is returned.
type Extractor interface {
	Extract(ctx context.Context, file extraction.SourceFile) *extraction.StructuralRecord
}

// ForLanguage returns the extractor for a classified language, or nil when the
// language has no extractor.
func ForLanguage(lang extraction.Language) Extractor {
	switch lang {
	case extraction.LanguageCSharp:
		return csharpExtractor{}
	case extraction.LanguageTypeScript, extraction.LanguageJavaScript:
		return componentExtractor{}
	case extraction.LanguageHTML, extraction.LanguageRazor:
		return markupExtractor{}
	case extraction.LanguageCSS, extraction.LanguageSCSS:
		return stylesheetExtractor{}
	default:
		return nil
	}
}

// checkEvery is how many scanner events pass between context checks.
const checkEvery = 64

// timedOut records a PartialExtraction issue when ctx ended the scan early.
func timedOut(ctx context.Context, rec *extraction.StructuralRecord, line int) bool {
	if ctx.Err() == nil {
		return false
	}
	rec.AddIssue(extraction.IssuePartialExtraction, line, "extraction stopped: "+ctx.Err().Error())
	return true
}
