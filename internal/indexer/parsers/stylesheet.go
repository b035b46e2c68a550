package parsers

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/css/scanner"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/extraction"
)

// stylesheetExtractor inventories selectors and declarations from CSS and
// SCSS. SCSS nesting is flattened into full selectors.
type stylesheetExtractor struct{}

// groupingAtRules carry their nested rules through with an AtRule prelude.
// Every other block at-rule (@keyframes, @font-face, @mixin, ...) is skipped.
var groupingAtRules = map[string]bool{
	"@media": true, "@supports": true, "@container": true, "@layer": true, "@document": true,
}

type frameKind int

const (
	frameRule frameKind = iota
	frameGroup
	frameSkip
)

type cssFrame struct {
	kind     frameKind
	selector string // resolved selector, inherited by nested rules
	atRule   string
	rule     int // index into StyleRules for frameRule
}

func (stylesheetExtractor) Extract(ctx context.Context, file extraction.SourceFile) *extraction.StructuralRecord {
	rec := extraction.NewRecord(file.Path, file.Language)
	text := file.Text
	if file.Language == extraction.LanguageSCSS {
		text = blankLineComments(text)
	}

	p := &cssParser{rec: rec}
	s := scanner.New(text)
	for n := 0; ; n++ {
		if n%checkEvery == 0 && timedOut(ctx, rec, p.line) {
			return rec
		}
		tok := s.Next()
		p.line = tok.Line
		switch tok.Type {
		case scanner.TokenEOF:
			if len(p.stack) > 0 {
				rec.AddIssue(extraction.IssuePartialExtraction, tok.Line,
					fmt.Sprintf("%d unclosed block(s) at end of stylesheet", len(p.stack)))
			}
			return rec
		case scanner.TokenError:
			rec.AddIssue(extraction.IssuePartialExtraction, tok.Line,
				fmt.Sprintf("unreadable token %q at column %d", tok.Value, tok.Column))
			return rec
		case scanner.TokenComment:
			p.buf.WriteByte(' ')
		case scanner.TokenS:
			p.buf.WriteByte(' ')
		case scanner.TokenChar:
			switch tok.Value {
			case "{":
				p.open()
			case "}":
				p.close()
			case ";":
				p.declaration()
			default:
				p.add(tok)
			}
		default:
			p.add(tok)
		}
	}
}

type cssParser struct {
	rec     *extraction.StructuralRecord
	stack   []cssFrame
	buf     strings.Builder
	bufLine int
	line    int
}

func (p *cssParser) add(tok *scanner.Token) {
	if strings.TrimSpace(p.buf.String()) == "" {
		p.bufLine = tok.Line
	}
	p.buf.WriteString(tok.Value)
}

func (p *cssParser) take() string {
	s := squash(p.buf.String())
	p.buf.Reset()
	return s
}

func (p *cssParser) top() *cssFrame {
	if len(p.stack) == 0 {
		return nil
	}
	return &p.stack[len(p.stack)-1]
}

func (p *cssParser) open() {
	line := p.bufLine
	prelude := p.take()
	top := p.top()
	var parentSel, at string
	if top != nil {
		if top.kind == frameSkip {
			p.stack = append(p.stack, cssFrame{kind: frameSkip})
			return
		}
		parentSel, at = top.selector, top.atRule
	}

	if strings.HasPrefix(prelude, "@") {
		name := prelude
		if k := strings.IndexByte(prelude, ' '); k >= 0 {
			name = prelude[:k]
		}
		if !groupingAtRules[strings.ToLower(name)] {
			p.stack = append(p.stack, cssFrame{kind: frameSkip})
			return
		}
		if at != "" {
			prelude = at + " " + prelude
		}
		p.stack = append(p.stack, cssFrame{kind: frameGroup, selector: parentSel, atRule: prelude, rule: -1})
		return
	}

	sel := nestSelector(parentSel, prelude)
	p.rec.StyleRules = append(p.rec.StyleRules, extraction.StyleRule{
		Selector:     sel,
		Declarations: []extraction.Declaration{},
		AtRule:       at,
		FilePath:     p.rec.FilePath,
		Line:         line,
	})
	p.stack = append(p.stack, cssFrame{
		kind:     frameRule,
		selector: sel,
		atRule:   at,
		rule:     len(p.rec.StyleRules) - 1,
	})
}

func (p *cssParser) close() {
	p.declaration()
	if len(p.stack) == 0 {
		p.rec.AddIssue(extraction.IssuePartialExtraction, p.line, "unmatched '}' in stylesheet")
		return
	}
	p.stack = p.stack[:len(p.stack)-1]
}

// declaration turns the buffered text into a property: value pair when the
// innermost frame is a rule, or a @media block nested inside one. Anything
// else (@import, $variables, @include) is discarded.
func (p *cssParser) declaration() {
	line := p.bufLine
	text := p.take()
	top := p.top()
	if text == "" || top == nil || top.kind == frameSkip || strings.HasPrefix(text, "@") {
		return
	}
	k := strings.IndexByte(text, ':')
	if k <= 0 {
		return
	}
	if top.kind == frameGroup {
		if top.selector == "" {
			return
		}
		if top.rule < 0 {
			p.rec.StyleRules = append(p.rec.StyleRules, extraction.StyleRule{
				Selector:     top.selector,
				Declarations: []extraction.Declaration{},
				AtRule:       top.atRule,
				FilePath:     p.rec.FilePath,
				Line:         line,
			})
			top.rule = len(p.rec.StyleRules) - 1
		}
	}
	rule := &p.rec.StyleRules[top.rule]
	rule.Declarations = append(rule.Declarations, extraction.Declaration{
		Property: strings.TrimSpace(text[:k]),
		Value:    strings.TrimSpace(text[k+1:]),
	})
}

// nestSelector resolves a nested selector list against its parent. '&' is
// replaced by each parent selector; otherwise the child becomes a descendant.
func nestSelector(parent, child string) string {
	if parent == "" {
		return strings.Join(splitSelectors(child), ", ")
	}
	var out []string
	for _, ps := range splitSelectors(parent) {
		for _, cs := range splitSelectors(child) {
			if strings.Contains(cs, "&") {
				out = append(out, strings.ReplaceAll(cs, "&", ps))
			} else {
				out = append(out, ps+" "+cs)
			}
		}
	}
	return strings.Join(out, ", ")
}

// splitSelectors splits a selector list at commas outside parentheses and
// attribute brackets.
func splitSelectors(list string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(list); i++ {
		switch list[i] {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				if s := strings.TrimSpace(list[start:i]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(list[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// blankLineComments removes SCSS "//" comments, leaving strings, block
// comments and protocol-relative urls such as url(//cdn.example.com) intact.
func blankLineComments(text string) string {
	out := []byte(text)
	n := len(text)
	for i := 0; i < n; i++ {
		switch c := text[i]; {
		case c == '"' || c == '\'':
			i = skipQuoted(text, i, c) - 1
		case c == '/' && i+1 < n && text[i+1] == '*':
			k := strings.Index(text[i+2:], "*/")
			if k < 0 {
				return string(out)
			}
			i += k + 3
		case c == '/' && i+1 < n && text[i+1] == '/':
			if i > 0 && (text[i-1] == ':' || text[i-1] == '(') {
				i++
				continue
			}
			end := lineEnd(text, i)
			for k := i; k < end; k++ {
				out[k] = ' '
			}
			i = end
		}
	}
	return string(out)
}
