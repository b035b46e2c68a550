package parsers

import (
	"strings"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/extraction"
)

type paramParser func(masked, src string) (extraction.Parameter, bool)

// parseParams parses the parameter list src[from:to], using masked for
// structure. Pieces that do not form a complete parameter are dropped and
// reported through the second result.
func parseParams(masked, src string, from, to int, parse paramParser) ([]extraction.Parameter, bool) {
	params := []extraction.Parameter{}
	complete := true
	for _, s := range splitTopLevel(masked, from, to, ',') {
		s = trimSpan(masked, s)
		if s.start == s.end {
			continue
		}
		p, ok := parse(masked[s.start:s.end], src[s.start:s.end])
		if !ok {
			complete = false
			continue
		}
		params = append(params, p)
	}
	return params, complete
}

var csharpParamModifiers = map[string]bool{
	"this": true, "ref": true, "out": true, "in": true, "params": true, "scoped": true, "readonly": true,
}

func csharpParam(masked, src string) (extraction.Parameter, bool) {
	var p extraction.Parameter
	i := skipBracketGroups(masked, 0, len(masked), '[')
	masked, src = masked[i:], src[i:]

	if eq := indexTopLevel(masked, 0, len(masked), func(k int) bool { return isAssign(masked, k) }); eq >= 0 {
		p.Default = squash(src[eq+1:])
		masked, src = masked[:eq], src[:eq]
	}
	start, name := lastIdent(masked)
	if start < 0 {
		return p, false
	}
	mods, typ := splitModifiers(src[:start], csharpParamModifiers)
	typ = tidyType(typ)
	if !endsType(typ) {
		return p, false
	}
	p.Type = typ
	p.Name = name
	p.Modifier = strings.Join(mods, " ")
	return p, true
}

// endsType is a cheap sanity check that a token could be a complete type.
func endsType(typ string) bool {
	if typ == "" {
		return false
	}
	c := typ[len(typ)-1]
	return isIdentByte(c) || strings.IndexByte(">])?*", c) >= 0
}

var scriptParamModifiers = map[string]bool{
	"public": true, "private": true, "protected": true, "readonly": true, "override": true,
}

func scriptParam(masked, src string) (extraction.Parameter, bool) {
	var p extraction.Parameter
	i := skipDecorators(masked, 0, len(masked))
	masked, src = masked[i:], src[i:]

	if eq := indexTopLevel(masked, 0, len(masked), func(k int) bool { return isAssign(masked, k) }); eq >= 0 {
		p.Default = squash(src[eq+1:])
		masked, src = masked[:eq], src[:eq]
	}
	left := src
	if colon := indexTopLevel(masked, 0, len(masked), func(k int) bool { return masked[k] == ':' }); colon >= 0 {
		left = src[:colon]
		p.Type = tidyType(src[colon+1:])
		if p.Type == "" {
			return p, false
		}
	}
	mods, rest := splitModifiers(left, scriptParamModifiers)
	if strings.HasPrefix(rest, "...") {
		mods = append(mods, "...")
		rest = strings.TrimSpace(rest[3:])
	}
	if strings.HasSuffix(rest, "?") {
		mods = append(mods, "?")
		rest = strings.TrimSpace(strings.TrimSuffix(rest, "?"))
	}
	switch {
	case rest == "":
		return p, false
	case rest[0] == '{' || rest[0] == '[':
		p.Name = squash(rest)
	case wordAt(rest, 0) == rest:
		p.Name = rest
	default:
		return p, false
	}
	p.Modifier = strings.Join(mods, " ")
	return p, true
}
