package parsers

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/extraction"
)

// csharpExtractor extracts namespaces, types and member signatures from C#
// source.
type csharpExtractor struct{}

var (
	csharpNamespaceRe = regexp.MustCompile(`^namespace\s+(@?[A-Za-z_][\w.]*)$`)
	csharpTypeRe      = regexp.MustCompile(`^((?:[a-z]+\s+)*?)(class|interface|enum|record\s+struct|record\s+class|record|struct)\s+(@?[A-Za-z_]\w*)`)
	whereClauseRe     = regexp.MustCompile(`\bwhere\b`)
)

var csharpModifiers = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true, "file": true,
	"static": true, "virtual": true, "override": true, "abstract": true, "sealed": true,
	"async": true, "extern": true, "unsafe": true, "new": true, "partial": true,
	"readonly": true, "const": true, "volatile": true, "event": true, "required": true,
	"implicit": true, "explicit": true, "delegate": true, "fixed": true, "ref": true,
}

// csharpMemberStarts never appear inside a parameter list, so a line starting
// with one of them ends any signature whose parenthesis never closed.
var csharpMemberStarts = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true,
}

type scopeKind int

const (
	scopeNamespace scopeKind = iota
	scopeType
	scopeBlock
)

type scope struct {
	kind      scopeKind
	name      string
	typ       *extraction.TypeEntity
	bodyStart int
}

func (csharpExtractor) Extract(ctx context.Context, file extraction.SourceFile) *extraction.StructuralRecord {
	w := &csharpWalker{
		rec:    extraction.NewRecord(file.Path, file.Language),
		src:    file.Text,
		masked: mask(file.Text, csharpSyntax),
		lines:  newLineIndex(file.Text),
	}
	w.walk(ctx)
	return w.rec
}

type csharpWalker struct {
	rec    *extraction.StructuralRecord
	src    string
	masked string
	lines  lineIndex
	stack  []*scope

	// fileNamespace is set by a file-scoped "namespace X;" declaration.
	fileNamespace string
}

func (w *csharpWalker) walk(ctx context.Context) {
	b := newBlockScanner(w.masked)
	b.resetWords = csharpMemberStarts
	for n := 0; ; n++ {
		if n%checkEvery == 0 && timedOut(ctx, w.rec, w.lines.line(b.pos)) {
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

func (w *csharpWalker) top() *scope {
	if len(w.stack) == 0 {
		return nil
	}
	return w.stack[len(w.stack)-1]
}

func (w *csharpWalker) atContainer() bool {
	top := w.top()
	return top == nil || top.kind != scopeBlock
}

func (w *csharpWalker) push(s *scope) {
	w.stack = append(w.stack, s)
}

// namespace returns the dotted name of the enclosing namespaces.
func (w *csharpWalker) namespace() string {
	var parts []string
	for _, s := range w.stack {
		if s.kind == scopeNamespace {
			parts = append(parts, s.name)
		}
	}
	if len(parts) == 0 {
		return w.fileNamespace
	}
	if w.fileNamespace != "" {
		parts = append([]string{w.fileNamespace}, parts...)
	}
	return strings.Join(parts, ".")
}

func (w *csharpWalker) open(start, end int) {
	top := w.top()
	if top != nil && top.kind == scopeBlock {
		w.push(&scope{kind: scopeBlock})
		return
	}
	s := skipBracketGroups(w.masked, start, end, '[')
	header := strings.TrimSpace(w.masked[s:end])

	if m := csharpNamespaceRe.FindStringSubmatch(header); m != nil && (top == nil || top.kind == scopeNamespace) {
		w.push(&scope{kind: scopeNamespace, name: m[1]})
		return
	}
	if t := w.declareType(s, end); t != nil {
		w.push(&scope{kind: scopeType, typ: t, bodyStart: end + 1})
		return
	}
	if top != nil && top.kind == scopeType && top.typ.Kind != extraction.KindEnum {
		w.member(top.typ, s, end, true)
	}
	w.push(&scope{kind: scopeBlock})
}

func (w *csharpWalker) statement(start, end int) {
	top := w.top()
	if top != nil && top.kind == scopeBlock {
		return
	}
	s := skipBracketGroups(w.masked, start, end, '[')
	header := strings.TrimSpace(w.masked[s:end])
	if header == "" {
		return
	}
	if top == nil || top.kind == scopeNamespace {
		if m := csharpNamespaceRe.FindStringSubmatch(header); m != nil && top == nil {
			w.fileNamespace = m[1]
			return
		}
		w.declareType(s, end)
		return
	}
	if top.typ.Kind == extraction.KindEnum {
		return
	}
	if w.declareType(s, end) != nil {
		return
	}
	w.member(top.typ, s, end, false)
}

func (w *csharpWalker) close(start, end int) {
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

// declareType records the type declared by the header at [s,end), or returns
// nil when the header is not a type declaration.
func (w *csharpWalker) declareType(s, end int) *extraction.TypeEntity {
	m := csharpTypeRe.FindStringSubmatchIndex(w.masked[s:end])
	if m == nil {
		return nil
	}
	mods := words(w.masked[s+m[2] : s+m[3]])
	for _, mod := range mods {
		if !csharpModifiers[mod] {
			return nil
		}
	}
	keyword := words(w.masked[s+m[4] : s+m[5]])
	name := w.masked[s+m[6] : s+m[7]]

	t := &extraction.TypeEntity{
		Name:       name,
		Kind:       extraction.KindClass,
		Modifiers:  append([]string{}, mods...),
		Methods:    []extraction.Method{},
		Properties: []extraction.Property{},
		SourceFile: w.rec.FilePath,
		Line:       w.lines.line(s + m[6]),
	}
	switch keyword[0] {
	case "interface":
		t.Kind = extraction.KindInterface
	case "enum":
		t.Kind = extraction.KindEnum
	case "class":
		if t.HasModifier("static") {
			t.Kind = extraction.KindStaticType
		}
	}
	for _, kw := range keyword {
		if kw != "class" && kw != "interface" && kw != "enum" {
			t.Modifiers = append(t.Modifiers, kw)
		}
	}
	if top := w.top(); top != nil && top.kind == scopeType {
		t.Name = top.typ.Name + "." + name
	}

	i := skipSpace(w.masked, s+m[1])
	if i < end && w.masked[i] == '<' {
		if c := matchClose(w.masked, i, end); c > 0 {
			t.TypeParameters = typeParameters(w.masked, i, c)
			i = skipSpace(w.masked, c+1)
		}
	}
	if i < end && w.masked[i] == '(' {
		if c := matchClose(w.masked, i, end); c > 0 {
			w.primaryConstructor(t, name, i, c)
			i = skipSpace(w.masked, c+1)
		}
	}
	if i < end && w.masked[i] == ':' {
		stop := end
		if loc := whereClauseRe.FindStringIndex(w.masked[i:end]); loc != nil {
			stop = i + loc[0]
		}
		for _, sp := range splitTopLevel(w.masked, i+1, stop, ',') {
			if base := tidyType(w.src[sp.start:sp.end]); base != "" {
				t.BaseTypes = append(t.BaseTypes, base)
			}
		}
	}

	ns := w.rec.Namespace(w.namespace())
	ns.Classes = append(ns.Classes, t)
	return t
}

// primaryConstructor handles "record Point(int X, int Y)" and C# 12 primary
// constructors. Record parameters become public properties.
func (w *csharpWalker) primaryConstructor(t *extraction.TypeEntity, name string, open, closeAt int) {
	params, _ := parseParams(w.masked, w.src, open+1, closeAt, csharpParam)
	line := w.lines.line(open)
	if t.HasModifier("record") {
		for _, p := range params {
			t.Properties = append(t.Properties, extraction.Property{
				Name: p.Name, Type: p.Type, Visibility: "public", Line: line,
			})
		}
		return
	}
	t.Methods = append(t.Methods, extraction.Method{
		Name: name, Parameters: params, Line: line,
	})
}

func (w *csharpWalker) enumMembers(t *extraction.TypeEntity, from, to int) {
	for _, sp := range splitTopLevel(w.masked, from, to, ',') {
		i := skipBracketGroups(w.masked, sp.start, sp.end, '[')
		if name := wordAt(w.masked, i); name != "" {
			t.Members = append(t.Members, name)
		}
	}
}

// member classifies a member header at [s,end) as a method, property or field.
// opensBody is set when the header is followed by '{'.
func (w *csharpWalker) member(t *extraction.TypeEntity, s, end int, opensBody bool) {
	m := w.masked
	paren := func(k int) bool { return m[k] == '(' }
	p := indexTopLevel(m, s, end, paren)
	if p >= 0 {
		// A tuple return type: "public (int, string) Split()".
		if _, rest := splitModifiers(m[s:p], csharpModifiers); rest == "" {
			c := matchClose(m, p, end)
			if c < 0 {
				return
			}
			p = indexTopLevel(m, c+1, end, paren)
		}
	}
	eq := indexTopLevel(m, s, end, func(k int) bool { return isAssign(m, k) })
	arrow := indexTopLevel(m, s, end, func(k int) bool { return isArrow(m, k) })

	if p >= 0 && (eq < 0 || p < eq) && (arrow < 0 || p < arrow) {
		w.method(t, s, p, end)
		return
	}
	cut := end
	if eq >= 0 {
		cut = eq
	}
	if arrow >= 0 && arrow < cut {
		cut = arrow
	}
	field := eq >= 0 && (arrow < 0 || eq < arrow) || !opensBody && arrow < 0
	w.property(t, s, cut, field)
}

func (w *csharpWalker) method(t *extraction.TypeEntity, s, p, end int) {
	h := strings.TrimRight(w.masked[s:p], " \t\r\n")
	if strings.HasSuffix(h, ">") {
		if lt := matchOpenBack(h, len(h)-1); lt > 0 {
			h = h[:lt]
		}
	}
	start, name := lastIdent(h)
	if start < 0 {
		return
	}
	mods, ret := splitModifiers(w.src[s:s+start], csharpModifiers)
	ret = tidyType(ret)
	if ret == "operator" || strings.HasSuffix(ret, " operator") || hasWord(mods, "delegate") || hasWord(mods, "event") {
		return
	}
	// Explicit interface implementation: "void IDisposable.Dispose()".
	if strings.HasSuffix(ret, ".") {
		k := strings.LastIndexByte(ret, ' ')
		name = ret[k+1:] + name
		ret = strings.TrimSpace(ret[:k+1])
	}
	line := w.lines.line(s + start)
	method := extraction.Method{
		Name:       name,
		ReturnType: ret,
		Visibility: visibility(mods),
		Modifiers:  mods,
		Line:       line,
	}
	closeAt := matchClose(w.masked, p, end)
	if closeAt < 0 {
		method.Parameters, _ = parseParams(w.masked, w.src, p+1, end, csharpParam)
		method.Partial = true
		w.rec.AddIssue(extraction.IssuePartialExtraction, line,
			fmt.Sprintf("unterminated parameter list in %s.%s", t.Name, name))
	} else {
		var ok bool
		method.Parameters, ok = parseParams(w.masked, w.src, p+1, closeAt, csharpParam)
		if !ok {
			method.Partial = true
			w.rec.AddIssue(extraction.IssuePartialExtraction, line,
				fmt.Sprintf("unrecognized parameter in %s.%s", t.Name, name))
		}
	}
	t.Methods = append(t.Methods, method)
}

func (w *csharpWalker) property(t *extraction.TypeEntity, s, cut int, field bool) {
	parts := splitTopLevel(w.masked, s, cut, ',')
	first := parts[0]
	start, name := lastIdent(w.masked[first.start:first.end])
	if start < 0 {
		return
	}
	mods, typ := splitModifiers(w.src[first.start:first.start+start], csharpModifiers)
	typ = tidyType(typ)
	if !endsType(typ) {
		return
	}
	line := w.lines.line(first.start + start)
	add := func(n string) {
		t.Properties = append(t.Properties, extraction.Property{
			Name:       n,
			Type:       typ,
			Visibility: visibility(mods),
			Modifiers:  mods,
			Field:      field,
			Line:       line,
		})
	}
	add(name)
	for _, extra := range parts[1:] {
		if _, n := lastIdent(w.masked[extra.start:extra.end]); n != "" {
			add(n)
		}
	}
}

// matchOpenBack returns the index of the '<' matching the '>' at closeIdx.
func matchOpenBack(s string, closeIdx int) int {
	depth := 0
	for i := closeIdx; i >= 0; i-- {
		switch s[i] {
		case '>':
			depth++
		case '<':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func hasWord(list []string, w string) bool {
	for _, v := range list {
		if v == w {
			return true
		}
	}
	return false
}
