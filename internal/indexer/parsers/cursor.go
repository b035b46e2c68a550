package parsers

import (
	"sort"
	"strings"
)

// syntax selects the string and comment forms recognized by the masker.
type syntax struct {
	csharp    bool // verbatim and raw strings, preprocessor lines
	templates bool // template literals with ${} nesting
	regex     bool // regex literals
}

var (
	csharpSyntax = syntax{csharp: true}
	scriptSyntax = syntax{templates: true, regex: true}
)

// mask returns a copy of src with the contents of comments and string literals
// replaced by spaces. Length and newlines are preserved, so an offset found in
// the masked text indexes the same byte of src.
func mask(src string, syn syntax) string {
	m := &masker{src: src, out: []byte(src), syn: syn, lineStart: true}
	m.run()
	return string(m.out)
}

type masker struct {
	src       string
	out       []byte
	syn       syntax
	lineStart bool
	last      byte // last significant byte outside comments
}

func (m *masker) blank(from, to int) {
	if to > len(m.out) {
		to = len(m.out)
	}
	for k := from; k < to; k++ {
		if m.out[k] != '\n' {
			m.out[k] = ' '
		}
	}
}

func (m *masker) run() {
	src := m.src
	n := len(src)
	for i := 0; i < n; {
		c := src[i]
		switch c {
		case '\n':
			m.lineStart = true
			i++
			continue
		case ' ', '\t', '\r':
			i++
			continue
		}
		atLineStart := m.lineStart
		m.lineStart = false

		switch {
		case m.syn.csharp && atLineStart && c == '#':
			end := lineEnd(src, i)
			m.blank(i, end)
			i = end
		case c == '/' && i+1 < n && src[i+1] == '/':
			end := lineEnd(src, i)
			m.blank(i, end)
			i = end
		case c == '/' && i+1 < n && src[i+1] == '*':
			end := n
			if k := strings.Index(src[i+2:], "*/"); k >= 0 {
				end = i + 2 + k + 2
			}
			m.blank(i, end)
			i = end
		case m.syn.csharp && (c == '"' || c == '@' || c == '$'):
			lit, ok := csharpString(src, i)
			if !ok {
				m.last = c
				i++
				continue
			}
			m.blank(lit.body, lit.closing)
			m.last = '"'
			i = lit.end
		case c == '"' || c == '\'':
			i = m.quoted(i, c)
		case m.syn.templates && c == '`':
			i = m.template(i)
		case m.syn.regex && c == '/' && regexAllowed(m.last):
			i = m.regexLiteral(i)
		default:
			m.last = c
			i++
		}
	}
}

func (m *masker) quoted(i int, q byte) int {
	end := skipQuoted(m.src, i, q)
	closing := end
	if end > i+1 && end <= len(m.src) && m.src[end-1] == q {
		closing = end - 1
	}
	m.blank(i+1, closing)
	m.last = q
	return end
}

func (m *masker) template(i int) int {
	end := skipTemplate(m.src, i)
	closing := end
	if end > i+1 && m.src[end-1] == '`' {
		closing = end - 1
	}
	m.blank(i+1, closing)
	m.last = '`'
	return end
}

func (m *masker) regexLiteral(i int) int {
	src := m.src
	inClass := false
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '\n':
			// Not a regex after all; treat the slash as an operator.
			m.last = '/'
			return i + 1
		case '/':
			if inClass {
				continue
			}
			m.blank(i+1, j)
			m.last = '/'
			j++
			for j < len(src) && isIdentByte(src[j]) {
				j++
			}
			return j
		}
	}
	m.last = '/'
	return i + 1
}

func regexAllowed(last byte) bool {
	return last == 0 || strings.IndexByte("(,=:[!&|?{};", last) >= 0
}

// skipQuoted returns the index just past the quoted literal starting at i. An
// unterminated literal stops at the end of its line.
func skipQuoted(src string, i int, q byte) int {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '\n':
			return j
		case q:
			return j + 1
		}
	}
	return len(src)
}

// skipTemplate returns the index just past the template literal starting at i.
func skipTemplate(src string, i int) int {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '`':
			return j + 1
		case '$':
			if j+1 < len(src) && src[j+1] == '{' {
				j = skipInterpolation(src, j+2) - 1
			}
		}
	}
	return len(src)
}

func skipInterpolation(src string, j int) int {
	depth := 1
	for j < len(src) {
		switch c := src[j]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j + 1
			}
		case '`':
			j = skipTemplate(src, j)
			continue
		case '"', '\'':
			j = skipQuoted(src, j, c)
			continue
		}
		j++
	}
	return len(src)
}

// csLiteral locates a C# string literal: the body runs from body up to
// closing, and end is just past the closing quotes.
type csLiteral struct {
	body, closing, end int
}

// csharpString reads the C# string literal whose prefix starts at i. It
// understands regular, verbatim (@"), raw (""") and interpolated ($", $@",
// @$", $$""") forms. Interpolation holes are walked as code, so quotes and
// braces of nested literals stay inside the outer literal.
func csharpString(src string, i int) (csLiteral, bool) {
	n := len(src)
	j := i
	dollars := 0
	for j < n && src[j] == '$' {
		dollars++
		j++
	}
	verbatim := false
	if j < n && src[j] == '@' {
		verbatim = true
		j++
		if dollars == 0 {
			for j < n && src[j] == '$' {
				dollars++
				j++
			}
		}
	}
	if j >= n || src[j] != '"' {
		return csLiteral{}, false
	}

	quotes := 0
	for j+quotes < n && src[j+quotes] == '"' {
		quotes++
	}
	if quotes >= 3 && !verbatim {
		return csharpRaw(src, j, quotes, dollars), true
	}

	body := j + 1
	for p := body; p < n; p++ {
		switch src[p] {
		case '\\':
			if !verbatim {
				p++
			}
		case '\n':
			if !verbatim {
				return csLiteral{body: body, closing: p, end: p}, true
			}
		case '"':
			if verbatim && p+1 < n && src[p+1] == '"' {
				p++
				continue
			}
			return csLiteral{body: body, closing: p, end: p + 1}, true
		case '{':
			if dollars == 0 {
				continue
			}
			if p+1 < n && src[p+1] == '{' {
				p++
				continue
			}
			p = skipCSharpHole(src, p+1, 1) - 1
		}
	}
	return csLiteral{body: body, closing: n, end: n}, true
}

// csharpRaw reads a raw literal opened by k quotes at q. With dollars > 0 a
// run of that many braces opens a hole.
func csharpRaw(src string, q, k, dollars int) csLiteral {
	n := len(src)
	body := q + k
	for p := body; p < n; {
		switch src[p] {
		case '"':
			run := 0
			for p+run < n && src[p+run] == '"' {
				run++
			}
			if run >= k {
				return csLiteral{body: body, closing: p, end: p + run}
			}
			p += run
		case '{':
			run := 0
			for p+run < n && src[p+run] == '{' {
				run++
			}
			if dollars > 0 && run >= dollars {
				p = skipCSharpHole(src, p+run, dollars)
				continue
			}
			p += run
		default:
			p++
		}
	}
	return csLiteral{body: body, closing: n, end: n}
}

// skipCSharpHole returns the index just past the interpolation hole whose code
// starts at j, with depth braces still to close.
func skipCSharpHole(src string, j, depth int) int {
	for j < len(src) {
		switch c := src[j]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j + 1
			}
		case '\'':
			j = skipQuoted(src, j, c)
			continue
		case '"', '@', '$':
			if lit, ok := csharpString(src, j); ok {
				j = lit.end
				continue
			}
		case '/':
			if j+1 < len(src) && src[j+1] == '*' {
				if k := strings.Index(src[j+2:], "*/"); k >= 0 {
					j += 2 + k + 2
					continue
				}
				return len(src)
			}
		}
		j++
	}
	return len(src)
}

func lineEnd(src string, i int) int {
	if k := strings.IndexByte(src[i:], '\n'); k >= 0 {
		return i + k
	}
	return len(src)
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex []int

func newLineIndex(src string) lineIndex {
	idx := lineIndex{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (l lineIndex) line(offset int) int {
	return sort.Search(len(l), func(k int) bool { return l[k] > offset })
}

type eventKind int

const (
	// eventOpen: the header text [start,end) is followed by '{' at end.
	eventOpen eventKind = iota
	// eventStatement: the text [start,end) is terminated by ';' or a line break.
	eventStatement
	// eventBroken: the text [start,end) was cut at a line break because a
	// parenthesis never closed before the next member began.
	eventBroken
	// eventClose: '}' at end; [start,end) is any unterminated text before it.
	eventClose
	// eventEOF: trailing text [start,end) at the end of input.
	eventEOF
)

type event struct {
	kind       eventKind
	start, end int
}

// blockScanner walks masked text and reports scope openings, statements and
// scope closings. Braces inside parentheses, brackets or type-parameter lists
// are expression braces and do not open scopes.
type blockScanner struct {
	text     string
	pos      int
	segStart int
	nest     int // ( and [ depth in the current segment
	inline   int // expression braces currently open
	angle    int // < depth, only tracked at container level

	// container is set by the caller when the innermost scope can declare
	// members (file, namespace or type body).
	container bool
	// resetWords end a segment at a line break while a parenthesis is still
	// open, when the next line starts with one of them.
	resetWords map[string]bool
	// splitLines ends container-level statements at line breaks, for
	// languages where semicolons are optional.
	splitLines bool
}

func newBlockScanner(masked string) *blockScanner {
	return &blockScanner{text: masked}
}

func (b *blockScanner) reset(at int) {
	b.segStart = at
	b.nest = 0
	b.inline = 0
	b.angle = 0
}

func (b *blockScanner) next() (event, bool) {
	text := b.text
	for b.pos < len(text) {
		i := b.pos
		c := text[i]
		b.pos++

		switch c {
		case '(', '[':
			b.nest++
		case ')', ']':
			if b.nest > 0 {
				b.nest--
			}
		case '<':
			if b.container && b.nest == 0 && isIdentByte(prevNonSpace(text, b.segStart, i)) {
				if b.splitLines && !closesOnLine(text, i) {
					continue
				}
				b.angle++
			}
		case '>':
			if b.angle > 0 && i > 0 && text[i-1] != '=' {
				b.angle--
			}
		case '{':
			if b.nest > 0 || b.inline > 0 || b.angle > 0 {
				b.inline++
				continue
			}
			ev := event{kind: eventOpen, start: b.segStart, end: i}
			b.reset(i + 1)
			return ev, true
		case '}':
			if b.inline > 0 {
				b.inline--
				continue
			}
			ev := event{kind: eventClose, start: b.segStart, end: i}
			b.reset(i + 1)
			return ev, true
		case ';':
			if b.nest > 0 || b.inline > 0 {
				continue
			}
			ev := event{kind: eventStatement, start: b.segStart, end: i}
			b.reset(i + 1)
			return ev, true
		case '\n':
			if !b.container {
				continue
			}
			if b.nest > 0 && b.resetWords != nil {
				if b.resetWords[wordAt(text, skipSpace(text, i+1))] {
					ev := event{kind: eventBroken, start: b.segStart, end: i}
					b.reset(i + 1)
					return ev, true
				}
				continue
			}
			if b.splitLines && b.nest == 0 && b.inline == 0 && b.angle == 0 && b.endsStatement(i) {
				ev := event{kind: eventStatement, start: b.segStart, end: i}
				b.reset(i + 1)
				return ev, true
			}
		}
	}
	if b.segStart < len(text) {
		start := b.segStart
		b.segStart = len(text)
		if strings.TrimSpace(text[start:]) != "" {
			return event{kind: eventEOF, start: start, end: len(text)}, true
		}
	}
	return event{}, false
}

// closesOnLine reports whether the '<' at i can be a type-argument opener,
// that is, a '>' other than part of "=>" or ">=" follows on the same line.
func closesOnLine(text string, i int) bool {
	for k := i + 1; k < len(text) && text[k] != '\n'; k++ {
		if text[k] == '>' && text[k-1] != '=' && (k+1 >= len(text) || text[k+1] != '=') {
			return true
		}
	}
	return false
}

// endsStatement decides whether a line break at i terminates the current
// container-level statement in a semicolon-optional language.
func (b *blockScanner) endsStatement(i int) bool {
	seg := strings.TrimSpace(b.text[b.segStart:i])
	if seg == "" || onlyDecorators(seg) {
		return false
	}
	if strings.HasSuffix(seg, "=>") || strings.IndexByte(",=|&:(<.+-?*/!{[", seg[len(seg)-1]) >= 0 {
		return false
	}
	switch seg {
	case "export", "export default", "abstract", "declare", "async", "static":
		return false
	}
	next := skipSpace(b.text, i+1)
	if next >= len(b.text) {
		return true
	}
	if strings.IndexByte("{.=:|&?(<", b.text[next]) >= 0 {
		return false
	}
	switch wordAt(b.text, next) {
	case "extends", "implements":
		return false
	}
	return true
}

// onlyDecorators reports whether seg consists solely of decorators such as
// @Input() or @HostListener('click', ['$event']).
func onlyDecorators(seg string) bool {
	i := 0
	for i < len(seg) {
		i = skipSpace(seg, i)
		if i >= len(seg) {
			return true
		}
		if seg[i] != '@' {
			return false
		}
		i++
		for i < len(seg) && (isIdentByte(seg[i]) || seg[i] == '.') {
			i++
		}
		i = skipSpace(seg, i)
		if i < len(seg) && seg[i] == '(' {
			end := matchClose(seg, i, len(seg))
			if end < 0 {
				return true
			}
			i = end + 1
		}
	}
	return true
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func prevNonSpace(s string, floor, i int) byte {
	for k := i - 1; k >= floor; k-- {
		if !isSpace(s[k]) {
			return s[k]
		}
	}
	return 0
}

// wordAt returns the identifier starting at i, or "".
func wordAt(s string, i int) string {
	j := i
	for j < len(s) && isIdentByte(s[j]) {
		j++
	}
	return s[i:j]
}
