package parsers

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/extraction"
)

// componentExtractor handles TypeScript and JavaScript component scripts:
// classes, interfaces and enums, plus the decorator metadata that turns a
// class into a UI component or injectable service.
type componentExtractor struct{}

var (
	scriptTypeRe      = regexp.MustCompile(`^((?:(?:export|default|declare|abstract|const)\s+)*)(class|interface|enum)\s+([A-Za-z_$][\w$]*)`)
	scriptNamespaceRe = regexp.MustCompile(`^(?:export\s+)?(?:declare\s+)?(?:namespace|module)\s+([A-Za-z_$][\w$.]*)$`)
	heritageRe        = regexp.MustCompile(`\b(?:extends|implements)\b`)
	scriptFunctionRe  = regexp.MustCompile(`^((?:(?:export|default|declare|async)\s+)*)function\b\s*\*?\s*([A-Za-z_$][\w$]*)`)
)

var scriptModifiers = map[string]bool{
	"public": true, "private": true, "protected": true, "static": true, "readonly": true,
	"async": true, "abstract": true, "override": true, "declare": true, "get": true,
	"set": true, "accessor": true,
}

var decoratorKinds = map[string]extraction.DecoratorKind{
	"Component":  extraction.DecoratorComponent,
	"Injectable": extraction.DecoratorService,
	"NgModule":   extraction.DecoratorOther,
	"Directive":  extraction.DecoratorOther,
	"Pipe":       extraction.DecoratorOther,
}

func (componentExtractor) Extract(ctx context.Context, file extraction.SourceFile) *extraction.StructuralRecord {
	w := &scriptWalker{
		ctx:              ctx,
		rec:              extraction.NewRecord(file.Path, file.Language),
		src:              file.Text,
		masked:           mask(file.Text, scriptSyntax),
		lines:            newLineIndex(file.Text),
		defaultNamespace: moduleNamespace(file.Path),
		modules:          map[string]*extraction.TypeEntity{},
	}
	w.walk()
	return w.rec
}

// moduleNamespace names the namespace of a script file without an explicit
// namespace declaration after its directory.
func moduleNamespace(p string) string {
	dir := path.Dir(filepath.ToSlash(p))
	dir = strings.TrimPrefix(dir, "./")
	if dir == "." || dir == "/" || dir == "" {
		return extraction.GlobalNamespace
	}
	return dir
}

type decorator struct {
	name     string
	at       int
	argOpen  int // -1 when written without an argument list
	argClose int
}

// short drops any qualifier: "core.Component" becomes "Component".
func (d decorator) short() string {
	if k := strings.LastIndexByte(d.name, '.'); k >= 0 {
		return d.name[k+1:]
	}
	return d.name
}

// parseDecorators reads consecutive decorators starting at i and returns them
// with the offset of the first byte after them.
func parseDecorators(masked string, i, end int) ([]decorator, int) {
	var out []decorator
	for {
		i = skipSpace(masked, i)
		if i >= end || masked[i] != '@' {
			return out, i
		}
		j := i + 1
		for j < end && (isIdentByte(masked[j]) || masked[j] == '.') {
			j++
		}
		d := decorator{name: masked[i+1 : j], at: i, argOpen: -1, argClose: -1}
		if d.name == "" {
			return out, i
		}
		if k := skipSpace(masked, j); k < end && masked[k] == '(' {
			c := matchClose(masked, k, end)
			if c < 0 {
				return append(out, d), end
			}
			d.argOpen, d.argClose = k, c
			j = c + 1
		}
		out = append(out, d)
		i = j
	}
}

func skipDecorators(masked string, i, end int) int {
	_, j := parseDecorators(masked, i, end)
	return j
}

func decoratorModifiers(decos []decorator) []string {
	var mods []string
	for _, d := range decos {
		mods = append(mods, "@"+d.short())
	}
	return mods
}

type scriptWalker struct {
	ctx              context.Context
	rec              *extraction.StructuralRecord
	src              string
	masked           string
	lines            lineIndex
	stack            []*scope
	defaultNamespace string
	modules          map[string]*extraction.TypeEntity // per namespace
}

func (w *scriptWalker) walk() {
	b := newBlockScanner(w.masked)
	b.splitLines = true
	for n := 0; ; n++ {
		if n%checkEvery == 0 && timedOut(w.ctx, w.rec, w.lines.line(b.pos)) {
			return
		}
		b.container = w.atContainer()
		ev, ok := b.next()
		if !ok {
			return
		}
		switch ev.kind {
		case eventOpen:
			w.open(ev.start, ev.end)
		case eventStatement, eventBroken, eventEOF:
			w.statement(ev.start, ev.end)
		case eventClose:
			w.close(ev.start, ev.end)
		}
	}
}

func (w *scriptWalker) top() *scope {
	if len(w.stack) == 0 {
		return nil
	}
	return w.stack[len(w.stack)-1]
}

func (w *scriptWalker) atContainer() bool {
	top := w.top()
	return top == nil || top.kind != scopeBlock
}

func (w *scriptWalker) push(s *scope) {
	w.stack = append(w.stack, s)
}

func (w *scriptWalker) namespace() string {
	var parts []string
	for _, s := range w.stack {
		if s.kind == scopeNamespace {
			parts = append(parts, s.name)
		}
	}
	if len(parts) == 0 {
		return w.defaultNamespace
	}
	return strings.Join(parts, ".")
}

func (w *scriptWalker) open(start, end int) {
	top := w.top()
	if top != nil && top.kind == scopeBlock {
		w.push(&scope{kind: scopeBlock})
		return
	}
	decos, s := parseDecorators(w.masked, start, end)
	header := strings.TrimSpace(w.masked[s:end])

	if m := scriptNamespaceRe.FindStringSubmatch(header); m != nil && (top == nil || top.kind == scopeNamespace) {
		w.push(&scope{kind: scopeNamespace, name: m[1]})
		return
	}
	if top == nil || top.kind == scopeNamespace {
		if t := w.declareType(decos, s, end); t != nil {
			w.push(&scope{kind: scopeType, typ: t, bodyStart: end + 1})
			return
		}
		w.function(s, end)
	}
	if top != nil && top.kind == scopeType && top.typ.Kind != extraction.KindEnum {
		w.member(top.typ, decos, s, end, true)
	}
	w.push(&scope{kind: scopeBlock})
}

func (w *scriptWalker) statement(start, end int) {
	top := w.top()
	if top != nil && top.kind == scopeBlock {
		return
	}
	decos, s := parseDecorators(w.masked, start, end)
	if strings.TrimSpace(w.masked[s:end]) == "" {
		return
	}
	if top == nil || top.kind == scopeNamespace {
		if w.declareType(decos, s, end) == nil {
			w.function(s, end)
		}
		return
	}
	if top.typ.Kind != extraction.KindEnum {
		w.member(top.typ, decos, s, end, false)
	}
}

func (w *scriptWalker) close(start, end int) {
	top := w.top()
	if top == nil {
		return
	}
	if top.kind == scopeType {
		if top.typ.Kind == extraction.KindEnum {
			w.enumMembers(top.typ, top.bodyStart, end)
		} else if strings.TrimSpace(w.masked[start:end]) != "" {
			w.statement(start, end)
		}
	}
	w.stack = w.stack[:len(w.stack)-1]
}

func (w *scriptWalker) declareType(decos []decorator, s, end int) *extraction.TypeEntity {
	m := scriptTypeRe.FindStringSubmatchIndex(w.masked[s:end])
	if m == nil {
		return nil
	}
	t := &extraction.TypeEntity{
		Name:       w.masked[s+m[6] : s+m[7]],
		Kind:       extraction.KindClass,
		Modifiers:  append(words(w.masked[s+m[2]:s+m[3]]), decoratorModifiers(decos)...),
		Methods:    []extraction.Method{},
		Properties: []extraction.Property{},
		SourceFile: w.rec.FilePath,
		Line:       w.lines.line(s + m[6]),
	}
	if t.Modifiers == nil {
		t.Modifiers = []string{}
	}
	switch w.masked[s+m[4] : s+m[5]] {
	case "interface":
		t.Kind = extraction.KindInterface
	case "enum":
		t.Kind = extraction.KindEnum
	}

	i := skipSpace(w.masked, s+m[1])
	if i < end && w.masked[i] == '<' {
		if c := matchClose(w.masked, i, end); c > 0 {
			t.TypeParameters = typeParameters(w.masked, i, c)
			i = c + 1
		}
	}
	clauses := heritageRe.FindAllStringIndex(w.masked[i:end], -1)
	for k, loc := range clauses {
		stop := end
		if k+1 < len(clauses) {
			stop = i + clauses[k+1][0]
		}
		for _, sp := range splitTopLevel(w.masked, i+loc[1], stop, ',') {
			if base := tidyType(w.src[sp.start:sp.end]); base != "" {
				t.BaseTypes = append(t.BaseTypes, base)
			}
		}
	}

	ns := w.rec.Namespace(w.namespace())
	ns.Classes = append(ns.Classes, t)

	for _, d := range decos {
		if c, ok := w.component(t, d); ok {
			w.rec.Components = append(w.rec.Components, c)
		}
	}
	return t
}

// function records a top-level function declaration as a method of the
// file's module type.
func (w *scriptWalker) function(s, end int) bool {
	m := scriptFunctionRe.FindStringSubmatchIndex(w.masked[s:end])
	if m == nil {
		return false
	}
	name := w.masked[s+m[4] : s+m[5]]
	p := indexTopLevel(w.masked, s+m[5], end, func(k int) bool { return w.masked[k] == '(' })
	if p < 0 {
		return false
	}
	mods := words(w.masked[s+m[2] : s+m[3]])
	if mods == nil {
		mods = []string{}
	}
	vis := ""
	if containsWord(mods, "export") {
		vis = "public"
	}
	t := w.moduleType(s)
	w.addMethod(t, extraction.Method{
		Name:       name,
		Visibility: vis,
		Modifiers:  mods,
		Line:       w.lines.line(s + m[4]),
	}, p, end)
	return true
}

// moduleType returns the static type holding the top-level functions of the
// current namespace, named after the file.
func (w *scriptWalker) moduleType(at int) *extraction.TypeEntity {
	ns := w.namespace()
	if t, ok := w.modules[ns]; ok {
		return t
	}
	base := path.Base(filepath.ToSlash(w.rec.FilePath))
	t := &extraction.TypeEntity{
		Name:       strings.TrimSuffix(base, path.Ext(base)),
		Kind:       extraction.KindStaticType,
		Modifiers:  []string{"module"},
		Methods:    []extraction.Method{},
		Properties: []extraction.Property{},
		SourceFile: w.rec.FilePath,
		Line:       w.lines.line(at),
	}
	n := w.rec.Namespace(ns)
	n.Classes = append(n.Classes, t)
	w.modules[ns] = t
	return t
}

func containsWord(list []string, word string) bool {
	for _, s := range list {
		if s == word {
			return true
		}
	}
	return false
}

// component reads the object literal passed to a class decorator.
func (w *scriptWalker) component(t *extraction.TypeEntity, d decorator) (extraction.ComponentEntity, bool) {
	kind, ok := decoratorKinds[d.short()]
	if !ok {
		return extraction.ComponentEntity{}, false
	}
	c := extraction.ComponentEntity{
		ClassName:     t.Name,
		DecoratorKind: kind,
		Decorator:     d.short(),
		StyleRefs:     []string{},
		FilePath:      w.rec.FilePath,
		Line:          w.lines.line(d.at),
	}
	if d.argOpen < 0 {
		return c, true
	}
	m := w.masked
	open := indexTopLevel(m, d.argOpen+1, d.argClose, func(k int) bool { return m[k] == '{' })
	if open < 0 {
		return c, true
	}
	closeAt := matchClose(m, open, d.argClose)
	if closeAt < 0 {
		w.rec.AddIssue(extraction.IssuePartialExtraction, c.Line,
			fmt.Sprintf("unterminated @%s metadata on %s", c.Decorator, t.Name))
		closeAt = d.argClose
	}
	for _, entry := range splitTopLevel(m, open+1, closeAt, ',') {
		colon := indexTopLevel(m, entry.start, entry.end, func(k int) bool { return m[k] == ':' })
		if colon < 0 {
			continue
		}
		key := unquote(strings.TrimSpace(w.src[entry.start:colon]))
		val := trimSpan(m, span{colon + 1, entry.end})
		if val.start >= val.end {
			continue
		}
		switch key {
		case "selector":
			c.Selector = w.literal(val)
		case "templateUrl":
			c.TemplateRef = w.literal(val)
		case "template":
			c.InlineTemplate = true
			w.inline(val, extraction.LanguageHTML)
		case "styleUrls", "styleUrl":
			for _, sp := range w.literalSpans(val) {
				c.StyleRefs = append(c.StyleRefs, w.literal(sp))
			}
		case "styles":
			for _, sp := range w.literalSpans(val) {
				w.inline(sp, extraction.LanguageCSS)
			}
		case "providedIn":
			c.ProvidedIn = w.literal(val)
		}
	}
	return c, true
}

// literal returns the value of a string literal, or the squashed expression
// text when sp is not a literal.
func (w *scriptWalker) literal(sp span) string {
	return unquote(strings.TrimSpace(w.src[sp.start:sp.end]))
}

// literalSpans expands an array literal into its element spans.
func (w *scriptWalker) literalSpans(sp span) []span {
	if w.masked[sp.start] != '[' {
		return []span{sp}
	}
	c := matchClose(w.masked, sp.start, sp.end)
	if c < 0 {
		return nil
	}
	var out []span
	for _, el := range splitTopLevel(w.masked, sp.start+1, c, ',') {
		if el = trimSpan(w.masked, el); el.start < el.end {
			out = append(out, el)
		}
	}
	return out
}

// inline runs the markup or stylesheet extractor over a string literal
// embedded in decorator metadata and merges the result into this record.
func (w *scriptWalker) inline(sp span, lang extraction.Language) {
	q := w.src[sp.start]
	if q != '\'' && q != '"' && q != '`' {
		return
	}
	end := sp.end
	if end-1 > sp.start && w.src[end-1] == q {
		end--
	}
	sub := ForLanguage(lang).Extract(w.ctx, extraction.SourceFile{
		Path:     w.rec.FilePath,
		Language: lang,
		Text:     w.src[sp.start+1 : end],
	})
	shift := w.lines.line(sp.start) - 1
	for _, el := range sub.Elements {
		el.Line += shift
		w.rec.Elements = append(w.rec.Elements, el)
	}
	for _, r := range sub.StyleRules {
		r.Line += shift
		w.rec.StyleRules = append(w.rec.StyleRules, r)
	}
	for _, is := range sub.Issues {
		is.Line += shift
		w.rec.Issues = append(w.rec.Issues, is)
	}
}

func (w *scriptWalker) enumMembers(t *extraction.TypeEntity, from, to int) {
	for _, sp := range splitTopLevel(w.masked, from, to, ',') {
		i := skipSpace(w.masked, sp.start)
		if name := wordAt(w.masked, i); name != "" {
			t.Members = append(t.Members, name)
		}
	}
}

func (w *scriptWalker) member(t *extraction.TypeEntity, decos []decorator, s, end int, opensBody bool) {
	m := w.masked
	if s >= end || m[s] == '[' {
		return
	}
	p := indexTopLevel(m, s, end, func(k int) bool { return m[k] == '(' })
	colon := indexTopLevel(m, s, end, func(k int) bool { return m[k] == ':' })
	eq := indexTopLevel(m, s, end, func(k int) bool { return isAssign(m, k) })

	if p >= 0 && (colon < 0 || p < colon) && (eq < 0 || p < eq) {
		w.method(t, decos, s, p, end)
		return
	}
	w.property(t, decos, s, colon, eq, end)
}

// memberName finds the member name ending h, including a '#' private prefix.
func memberName(h string) (int, string) {
	h = strings.TrimRight(h, " \t\r\n")
	h = strings.TrimRight(strings.TrimSuffix(strings.TrimSuffix(h, "?"), "!"), " \t\r\n")
	start, name := lastIdent(h)
	if start > 0 && h[start-1] == '#' {
		return start - 1, "#" + name
	}
	return start, name
}

func scriptVisibility(name string, mods []string) string {
	if strings.HasPrefix(name, "#") {
		return "private"
	}
	return visibility(mods)
}

func (w *scriptWalker) method(t *extraction.TypeEntity, decos []decorator, s, p, end int) {
	h := strings.TrimRight(w.masked[s:p], " \t\r\n")
	if strings.HasSuffix(h, ">") {
		if lt := matchOpenBack(h, len(h)-1); lt > 0 {
			h = h[:lt]
		}
	}
	start, name := memberName(h)
	if start < 0 {
		return
	}
	mods, rest := splitModifiers(w.src[s:s+start], scriptModifiers)
	if rest != "" && rest != "*" {
		return
	}
	w.addMethod(t, extraction.Method{
		Name:       name,
		Visibility: scriptVisibility(name, mods),
		Modifiers:  append(decoratorModifiers(decos), mods...),
		Line:       w.lines.line(s + start),
	}, p, end)
}

// addMethod fills in the parameters and return type of method from the
// parameter list opening at p and appends it to t.
func (w *scriptWalker) addMethod(t *extraction.TypeEntity, method extraction.Method, p, end int) {
	name, line := method.Name, method.Line
	closeAt := matchClose(w.masked, p, end)
	if closeAt < 0 {
		method.Parameters, _ = parseParams(w.masked, w.src, p+1, end, scriptParam)
		method.Partial = true
		w.rec.AddIssue(extraction.IssuePartialExtraction, line,
			fmt.Sprintf("unterminated parameter list in %s.%s", t.Name, name))
		t.Methods = append(t.Methods, method)
		return
	}
	var ok bool
	method.Parameters, ok = parseParams(w.masked, w.src, p+1, closeAt, scriptParam)
	if !ok {
		method.Partial = true
		w.rec.AddIssue(extraction.IssuePartialExtraction, line,
			fmt.Sprintf("unrecognized parameter in %s.%s", t.Name, name))
	}
	if k := skipSpace(w.masked, closeAt+1); k < end && w.masked[k] == ':' {
		method.ReturnType = tidyType(w.src[k+1 : end])
	}
	t.Methods = append(t.Methods, method)
}

func (w *scriptWalker) property(t *extraction.TypeEntity, decos []decorator, s, colon, eq, end int) {
	cut := end
	if colon >= 0 && colon < cut {
		cut = colon
	}
	if eq >= 0 && eq < cut {
		cut = eq
	}
	start, name := memberName(w.masked[s:cut])
	if start < 0 {
		return
	}
	mods, rest := splitModifiers(w.src[s:s+start], scriptModifiers)
	if rest != "" {
		return
	}
	var typ string
	switch {
	case colon >= 0 && (eq < 0 || colon < eq):
		stop := end
		if eq >= 0 {
			stop = eq
		}
		typ = tidyType(w.src[colon+1 : stop])
	case eq >= 0:
		typ = constructedType(strings.TrimSpace(w.src[eq+1 : end]))
	}
	t.Properties = append(t.Properties, extraction.Property{
		Name:       name,
		Type:       typ,
		Visibility: scriptVisibility(name, mods),
		Modifiers:  append(decoratorModifiers(decos), mods...),
		Line:       w.lines.line(s + start),
	})
}

// constructedType infers "EventEmitter<string>" from "new EventEmitter<string>()".
func constructedType(init string) string {
	if !strings.HasPrefix(init, "new ") {
		return ""
	}
	init = init[4:]
	if k := strings.IndexByte(init, '('); k >= 0 {
		init = init[:k]
	}
	return tidyType(init)
}

// unquote strips matching quote characters from a literal.
func unquote(s string) string {
	if len(s) >= 2 {
		switch q := s[0]; q {
		case '\'', '"', '`':
			if s[len(s)-1] == q {
				return s[1 : len(s)-1]
			}
		}
	}
	return squash(s)
}
