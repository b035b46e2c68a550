package graph

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/dominikbraun/graph"

	"github.com/IrushiGunawardana/dotnet-ai-docgen/internal/indexer/extraction"
)

// Version is written into GraphMetadata.
const Version = "1"

// Structure is the directed structure graph of one project index.
type Structure struct {
	g     graph.Graph[string, *Node]
	nodes []*Node
	edges []Edge
}

// builder accumulates nodes and edges in index order.
type builder struct {
	s *Structure
	// typesByFile maps file → simple type name → node ID.
	typesByFile map[string]map[string]string
	// typesByName maps simple type name → node IDs across the project.
	typesByName map[string][]string
	// selectors maps an element selector (app-foo) → component node IDs.
	selectors map[string][]string
}

// Build derives the structure graph from an index:
//   - namespace → type (contains)
//   - component → class (decorates)
//   - component → template (renders), for templateUrl and inline templates
//   - stylesheet → component (styles)
//   - template → component (uses), custom tags matched to selectors
//   - type → base type (inherits), when the base name is unambiguous
//
// The result depends only on the index, so equal indexes give equal graphs.
func Build(idx *extraction.ProjectIndex) (*Structure, error) {
	b := &builder{
		s: &Structure{
			g: graph.New(func(n *Node) string { return n.ID }, graph.Directed()),
		},
		typesByFile: map[string]map[string]string{},
		typesByName: map[string][]string{},
		selectors:   map[string][]string{},
	}

	if err := b.addTypes(idx); err != nil {
		return nil, err
	}
	if err := b.addFiles(idx); err != nil {
		return nil, err
	}
	if err := b.addComponents(idx); err != nil {
		return nil, err
	}
	if err := b.addUsages(idx); err != nil {
		return nil, err
	}
	if err := b.addInheritance(idx); err != nil {
		return nil, err
	}
	return b.s, nil
}

func (b *builder) addNode(n *Node) error {
	err := b.s.g.AddVertex(n,
		graph.VertexAttribute("label", n.Label),
		graph.VertexAttribute("shape", shapeFor(n.Kind)),
	)
	if errors.Is(err, graph.ErrVertexAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to add node %s: %w", n.ID, err)
	}
	b.s.nodes = append(b.s.nodes, n)
	return nil
}

func (b *builder) addEdge(from, to string, typ EdgeType) error {
	err := b.s.g.AddEdge(from, to, graph.EdgeAttribute("label", string(typ)))
	if errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to add edge %s -> %s: %w", from, to, err)
	}
	b.s.edges = append(b.s.edges, Edge{From: from, To: to, Type: typ})
	return nil
}

func (b *builder) addTypes(idx *extraction.ProjectIndex) error {
	for _, name := range idx.NamespaceNames() {
		nsID := NamespaceID(name)
		if err := b.addNode(&Node{ID: nsID, Kind: NodeNamespace, Label: name}); err != nil {
			return err
		}
		for _, t := range idx.Namespaces[name].Classes {
			id := TypeID(name, t.Name, t.SourceFile)
			label := t.Name
			if t.Colliding {
				label += " (" + string(t.CollisionKind) + ")"
			}
			if err := b.addNode(&Node{ID: id, Kind: NodeType, Label: label, File: t.SourceFile, Line: t.Line}); err != nil {
				return err
			}
			if err := b.addEdge(nsID, id, EdgeContains); err != nil {
				return err
			}
			if b.typesByFile[t.SourceFile] == nil {
				b.typesByFile[t.SourceFile] = map[string]string{}
			}
			b.typesByFile[t.SourceFile][t.Name] = id
			b.typesByName[t.Name] = append(b.typesByName[t.Name], id)
		}
	}
	return nil
}

// addFiles creates template and stylesheet nodes from the markup inventories
// and style rules.
func (b *builder) addFiles(idx *extraction.ProjectIndex) error {
	for _, tpl := range idx.Templates {
		if err := b.addNode(&Node{ID: TemplateID(tpl.FilePath), Kind: NodeTemplate, Label: path.Base(tpl.FilePath), File: tpl.FilePath}); err != nil {
			return err
		}
	}
	for _, rule := range idx.StyleRules {
		if err := b.addNode(&Node{ID: StylesheetID(rule.FilePath), Kind: NodeStylesheet, Label: path.Base(rule.FilePath), File: rule.FilePath}); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) addComponents(idx *extraction.ProjectIndex) error {
	for _, c := range idx.Components {
		id := ComponentID(c.ClassName, c.FilePath)
		label := "@" + c.Decorator + " " + c.ClassName
		if c.Selector != "" {
			label += " <" + c.Selector + ">"
		}
		if err := b.addNode(&Node{ID: id, Kind: NodeComponent, Label: label, File: c.FilePath, Line: c.Line}); err != nil {
			return err
		}

		if typeID, ok := b.typesByFile[c.FilePath][c.ClassName]; ok {
			if err := b.addEdge(id, typeID, EdgeDecorates); err != nil {
				return err
			}
		}

		tplPath := ""
		switch {
		case c.InlineTemplate:
			tplPath = c.FilePath
		case c.TemplateRef != "":
			tplPath = resolve(c.FilePath, c.TemplateRef)
		}
		if tplPath != "" && b.has(TemplateID(tplPath)) {
			if err := b.addEdge(id, TemplateID(tplPath), EdgeRenders); err != nil {
				return err
			}
		}

		for _, ref := range c.StyleRefs {
			styleID := StylesheetID(resolve(c.FilePath, ref))
			if b.has(styleID) {
				if err := b.addEdge(styleID, id, EdgeStyles); err != nil {
					return err
				}
			}
		}

		for _, sel := range strings.Split(c.Selector, ",") {
			sel = strings.ToLower(strings.TrimSpace(sel))
			if isElementSelector(sel) {
				b.selectors[sel] = append(b.selectors[sel], id)
			}
		}
	}
	return nil
}

func (b *builder) addUsages(idx *extraction.ProjectIndex) error {
	for _, tpl := range idx.Templates {
		from := TemplateID(tpl.FilePath)
		for _, el := range tpl.Elements {
			if !el.Custom {
				continue
			}
			for _, to := range b.selectors[strings.ToLower(el.Tag)] {
				if err := b.addEdge(from, to, EdgeUses); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (b *builder) addInheritance(idx *extraction.ProjectIndex) error {
	for _, t := range idx.Types() {
		from := b.typesByFile[t.SourceFile][t.Name]
		for _, base := range t.BaseTypes {
			name := baseName(base)
			// Prefer a declaration in the same file, then a unique one.
			to, ok := b.typesByFile[t.SourceFile][name]
			if !ok {
				candidates := b.typesByName[name]
				if len(candidates) != 1 {
					continue
				}
				to = candidates[0]
			}
			if to == from {
				continue
			}
			if err := b.addEdge(from, to, EdgeInherits); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) has(id string) bool {
	_, err := b.s.g.Vertex(id)
	return err == nil
}

// Nodes returns the nodes in insertion order.
func (s *Structure) Nodes() []*Node {
	return s.nodes
}

// Edges returns the edges in insertion order.
func (s *Structure) Edges() []Edge {
	return s.edges
}

// Data returns the graph as plain data.
func (s *Structure) Data() *GraphData {
	data := &GraphData{
		Metadata: GraphMetadata{
			Version:     Version,
			GeneratedAt: time.Now(),
			NodeCount:   len(s.nodes),
			EdgeCount:   len(s.edges),
		},
		Nodes: make([]Node, 0, len(s.nodes)),
		Edges: append([]Edge{}, s.edges...),
	}
	for _, n := range s.nodes {
		data.Nodes = append(data.Nodes, *n)
	}
	return data
}

// NamespaceID returns the node ID of a namespace.
func NamespaceID(name string) string { return "ns:" + name }

// TypeID returns the node ID of a type. The file is part of the ID so
// colliding declarations stay distinct.
func TypeID(namespace, name, file string) string {
	return "type:" + namespace + "." + name + "@" + file
}

// ComponentID returns the node ID of decorator metadata.
func ComponentID(className, file string) string { return "component:" + className + "@" + file }

// TemplateID returns the node ID of a markup inventory.
func TemplateID(file string) string { return "template:" + file }

// StylesheetID returns the node ID of a stylesheet.
func StylesheetID(file string) string { return "style:" + file }

// resolve joins a reference relative to the directory of the referencing file.
func resolve(from, ref string) string {
	ref = strings.TrimPrefix(ref, "/")
	return path.Clean(path.Join(path.Dir(from), ref))
}

// isElementSelector reports whether sel is a plain tag selector.
func isElementSelector(sel string) bool {
	if sel == "" {
		return false
	}
	return !strings.ContainsAny(sel, "[].#:* >+~")
}

// baseName strips generic arguments and qualifiers: "Base<T>" → "Base",
// "System.IDisposable" → "IDisposable".
func baseName(s string) string {
	if i := strings.IndexByte(s, '<'); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

func shapeFor(k NodeKind) string {
	switch k {
	case NodeNamespace:
		return "folder"
	case NodeComponent:
		return "component"
	case NodeTemplate:
		return "note"
	case NodeStylesheet:
		return "tab"
	default:
		return "box"
	}
}

// sortedIDs returns map keys in order.
func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
