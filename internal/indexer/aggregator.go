package indexer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/extraction"
)

// typeKey identifies a type for collision detection. Generic arity is part of
// the key so Result and Result<T> do not collide.
type typeKey struct {
	namespace string
	name      string
	arity     int
}

// Aggregate merges per-file records into one project index. Records must be in
// discovery order; the output is a deterministic function of that sequence.
//
// Types are copied before collision tagging so the input records stay intact.
// Types sharing namespace, name and arity but declared in different files are
// all tagged as colliding; each collision yields one AggregationConflict issue.
func Aggregate(records []*extraction.StructuralRecord) (*extraction.ProjectIndex, []extraction.Issue) {
	idx := extraction.NewProjectIndex()
	groups := map[typeKey][]*extraction.TypeEntity{}
	var order []typeKey

	for _, rec := range records {
		if rec == nil {
			continue
		}
		idx.Summary.Files++

		for _, ns := range rec.Namespaces {
			target, ok := idx.Namespaces[ns.Name]
			if !ok {
				target = &extraction.Namespace{Name: ns.Name, Classes: []*extraction.TypeEntity{}}
				idx.Namespaces[ns.Name] = target
			}
			for _, t := range ns.Classes {
				cp := copyType(t)
				target.Classes = append(target.Classes, cp)

				key := typeKey{namespace: ns.Name, name: t.Name, arity: len(t.TypeParameters)}
				if _, seen := groups[key]; !seen {
					order = append(order, key)
				}
				groups[key] = append(groups[key], cp)
				tallyType(&idx.Summary, cp)
			}
		}

		for _, c := range rec.Components {
			c.StyleRefs = append([]string{}, c.StyleRefs...)
			idx.Components = append(idx.Components, c)
			switch c.DecoratorKind {
			case extraction.DecoratorComponent:
				idx.Summary.Components++
			case extraction.DecoratorService:
				idx.Summary.Services++
			}
		}

		for _, r := range rec.StyleRules {
			r.Declarations = append([]extraction.Declaration{}, r.Declarations...)
			idx.StyleRules = append(idx.StyleRules, r)
		}
		idx.Summary.StyleRules += len(rec.StyleRules)

		if len(rec.Elements) > 0 {
			idx.Templates = append(idx.Templates, extraction.TemplateInventory{
				FilePath: rec.FilePath,
				Elements: append([]extraction.MarkupElement{}, rec.Elements...),
			})
			idx.Summary.Elements += len(rec.Elements)
		}
	}

	var issues []extraction.Issue
	for _, key := range order {
		if issue, ok := tagCollision(key, groups[key]); ok {
			issues = append(issues, issue)
			idx.Summary.Collisions++
		}
	}
	return idx, issues
}

// tagCollision marks every participant of a multi-file group and returns the
// conflict issue. Declarations repeated inside a single file are not a
// collision.
func tagCollision(key typeKey, group []*extraction.TypeEntity) (extraction.Issue, bool) {
	files := map[string]bool{}
	allPartial := true
	for _, t := range group {
		files[t.SourceFile] = true
		if !t.HasModifier("partial") {
			allPartial = false
		}
	}
	if len(files) < 2 {
		return extraction.Issue{}, false
	}

	kind := extraction.CollisionDuplicate
	if allPartial {
		kind = extraction.CollisionPartial
	}
	paths := make([]string, 0, len(files))
	for f := range files {
		paths = append(paths, f)
	}
	sort.Strings(paths)

	for _, t := range group {
		t.Colliding = true
		t.CollisionKind = kind
		t.CollidesWith = []string{}
		for _, p := range paths {
			if p != t.SourceFile {
				t.CollidesWith = append(t.CollidesWith, p)
			}
		}
	}

	return extraction.Issue{
		File: group[0].SourceFile,
		Kind: extraction.IssueAggregationConflict,
		Line: group[0].Line,
		Message: fmt.Sprintf("%s type %s.%s declared in %d files: %s",
			kind, key.namespace, key.name, len(paths), strings.Join(paths, ", ")),
	}, true
}

func tallyType(s *extraction.IndexSummary, t *extraction.TypeEntity) {
	switch t.Kind {
	case extraction.KindClass:
		s.Classes++
	case extraction.KindInterface:
		s.Interfaces++
	case extraction.KindEnum:
		s.Enums++
	case extraction.KindStaticType:
		s.StaticTypes++
	}
	s.Methods += len(t.Methods)
	s.Properties += len(t.Properties)
}

func copyType(t *extraction.TypeEntity) *extraction.TypeEntity {
	cp := *t
	cp.Modifiers = append([]string{}, t.Modifiers...)
	cp.TypeParameters = append([]string(nil), t.TypeParameters...)
	cp.BaseTypes = append([]string(nil), t.BaseTypes...)
	cp.Members = append([]string(nil), t.Members...)
	cp.Properties = append([]extraction.Property{}, t.Properties...)
	cp.Methods = make([]extraction.Method, len(t.Methods))
	for i, m := range t.Methods {
		m.Parameters = append([]extraction.Parameter{}, m.Parameters...)
		m.Modifiers = append([]string(nil), m.Modifiers...)
		cp.Methods[i] = m
	}
	cp.CollidesWith = append([]string(nil), t.CollidesWith...)
	return &cp
}
