package parsers

import (
	"regexp"
	"strings"
)

// span is a half-open byte range into a source text.
type span struct{ start, end int }

var spaceRun = regexp.MustCompile(`\s+`)

// squash collapses whitespace runs to single spaces and trims the result.
func squash(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// tidyType squashes a type token and drops the padding around generic
// brackets and commas, so "List< int >" and "List<int>" read the same.
func tidyType(s string) string {
	s = squash(s)
	for _, p := range [][2]string{{"< ", "<"}, {" <", "<"}, {" >", ">"}, {" ,", ","}, {" [", "["}, {"[ ", "["}, {" ]", "]"}} {
		s = strings.ReplaceAll(s, p[0], p[1])
	}
	return s
}

func closerFor(c byte) byte {
	switch c {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	case '<':
		return '>'
	}
	return 0
}

// matchClose returns the index of the bracket closing the one at open, looking
// no further than limit, or -1 when it never closes.
func matchClose(s string, open, limit int) int {
	oc := s[open]
	cc := closerFor(oc)
	depth := 0
	for i := open; i < limit && i < len(s); i++ {
		switch s[i] {
		case oc:
			depth++
		case cc:
			if cc == '>' && i > 0 && s[i-1] == '=' {
				continue
			}
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits masked[from:to] at sep bytes that are not nested inside
// (), [], {} or a type-argument list.
func splitTopLevel(masked string, from, to int, sep byte) []span {
	var out []span
	depth, angle := 0, 0
	segStart := from
	for i := from; i < to; i++ {
		c := masked[i]
		switch c {
		case '(', '[', '{':
			depth++
			continue
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
			continue
		case '<':
			if isIdentByte(prevNonSpace(masked, from, i)) {
				angle++
				continue
			}
		case '>':
			if angle > 0 && masked[i-1] != '=' {
				angle--
				continue
			}
		}
		if c == sep && depth == 0 && angle == 0 {
			out = append(out, span{segStart, i})
			segStart = i + 1
		}
	}
	return append(out, span{segStart, to})
}

// indexTopLevel returns the first offset in masked[from:to] where pred holds at
// nesting depth zero, or -1.
func indexTopLevel(masked string, from, to int, pred func(i int) bool) int {
	depth, angle := 0, 0
	for i := from; i < to; i++ {
		switch c := masked[i]; c {
		case '(', '[', '{':
			if depth == 0 && angle == 0 && pred(i) {
				return i
			}
			depth++
			continue
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
			continue
		case '<':
			if isIdentByte(prevNonSpace(masked, from, i)) {
				angle++
				continue
			}
		case '>':
			if angle > 0 && masked[i-1] != '=' {
				angle--
				continue
			}
		}
		if depth == 0 && angle == 0 && pred(i) {
			return i
		}
	}
	return -1
}

// isAssign reports whether masked[i] is a lone '=' rather than part of ==, =>,
// <=, >= or !=.
func isAssign(masked string, i int) bool {
	if masked[i] != '=' {
		return false
	}
	if i+1 < len(masked) && (masked[i+1] == '=' || masked[i+1] == '>') {
		return false
	}
	if i > 0 && strings.IndexByte("=<>!+-*/%&|^?", masked[i-1]) >= 0 {
		return false
	}
	return true
}

func isArrow(masked string, i int) bool {
	return masked[i] == '=' && i+1 < len(masked) && masked[i+1] == '>'
}

// skipBracketGroups skips whitespace and any leading groups opened by open
// (C# attributes such as [Obsolete]) and returns the new offset.
func skipBracketGroups(masked string, i, end int, open byte) int {
	for {
		i = skipSpace(masked, i)
		if i >= end || masked[i] != open {
			return i
		}
		closeAt := matchClose(masked, i, end)
		if closeAt < 0 {
			return i
		}
		i = closeAt + 1
	}
}

// trimSpan shrinks s to exclude surrounding whitespace in text.
func trimSpan(text string, s span) span {
	for s.start < s.end && isSpace(text[s.start]) {
		s.start++
	}
	for s.end > s.start && isSpace(text[s.end-1]) {
		s.end--
	}
	return s
}

// lastIdent finds the identifier ending s, skipping trailing whitespace, and
// returns its start offset and text. Leading '@' (C# verbatim identifiers) is
// kept.
func lastIdent(s string) (int, string) {
	end := len(s)
	for end > 0 && isSpace(s[end-1]) {
		end--
	}
	start := end
	for start > 0 && isIdentByte(s[start-1]) {
		start--
	}
	if start > 0 && s[start-1] == '@' {
		start--
	}
	if start == end || s[start] >= '0' && s[start] <= '9' {
		return -1, ""
	}
	return start, s[start:end]
}

// splitModifiers peels known modifier words off the front of s and returns
// them along with the remaining text.
func splitModifiers(s string, known map[string]bool) ([]string, string) {
	var mods []string
	rest := strings.TrimSpace(s)
	for {
		w := wordAt(rest, 0)
		if w == "" || !known[w] || len(rest) > len(w) && !isSpace(rest[len(w)]) {
			return mods, rest
		}
		mods = append(mods, w)
		rest = strings.TrimSpace(rest[len(w):])
	}
}

// visibility joins the access modifiers present in mods, in declaration order.
func visibility(mods []string) string {
	var parts []string
	for _, m := range mods {
		switch m {
		case "public", "private", "protected", "internal":
			parts = append(parts, m)
		}
	}
	return strings.Join(parts, " ")
}

// typeParameters splits a "<T, U>" list into names, dropping variance and
// constraint noise.
func typeParameters(masked string, open, closeAt int) []string {
	var out []string
	for _, s := range splitTopLevel(masked, open+1, closeAt, ',') {
		part := strings.TrimSpace(masked[s.start:s.end])
		part = strings.TrimPrefix(strings.TrimPrefix(part, "in "), "out ")
		if k := strings.IndexAny(part, " =:"); k >= 0 && wordAt(part, 0) != "" {
			part = part[:k]
		}
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func words(s string) []string {
	return strings.Fields(s)
}
