package extraction

import "sort"

// ProjectIndex is the aggregated, project-level view handed to narration.
type ProjectIndex struct {
	Namespaces   map[string]*Namespace `json:"namespaceMap" yaml:"namespaceMap"`
	Components   []ComponentEntity     `json:"components" yaml:"components"`
	StyleRules   []StyleRule           `json:"styleRules" yaml:"styleRules"`
	Templates    []TemplateInventory   `json:"templates,omitempty" yaml:"templates,omitempty"`
	ProjectFiles []string              `json:"projectFiles,omitempty" yaml:"projectFiles,omitempty"`
	Summary      IndexSummary          `json:"summary" yaml:"summary"`
}

// TemplateInventory is the markup element inventory of one file.
type TemplateInventory struct {
	FilePath string          `json:"filePath" yaml:"filePath"`
	Elements []MarkupElement `json:"elements" yaml:"elements"`
}

// IndexSummary holds entity counts for the whole project.
type IndexSummary struct {
	Files       int `json:"files" yaml:"files"`
	Classes     int `json:"classes" yaml:"classes"`
	Interfaces  int `json:"interfaces" yaml:"interfaces"`
	Enums       int `json:"enums" yaml:"enums"`
	StaticTypes int `json:"staticTypes" yaml:"staticTypes"`
	Components  int `json:"components" yaml:"components"`
	Services    int `json:"services" yaml:"services"`
	Methods     int `json:"methods" yaml:"methods"`
	Properties  int `json:"properties" yaml:"properties"`
	StyleRules  int `json:"styleRules" yaml:"styleRules"`
	Elements    int `json:"elements" yaml:"elements"`
	Collisions  int `json:"collisions" yaml:"collisions"`
}

// NewProjectIndex returns an empty index.
func NewProjectIndex() *ProjectIndex {
	return &ProjectIndex{
		Namespaces: map[string]*Namespace{},
		Components: []ComponentEntity{},
		StyleRules: []StyleRule{},
	}
}

// NamespaceNames returns the namespace names in lexicographic order.
func (p *ProjectIndex) NamespaceNames() []string {
	names := make([]string, 0, len(p.Namespaces))
	for name := range p.Namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Types returns every type in the index, ordered by namespace name and then by
// discovery order within the namespace.
func (p *ProjectIndex) Types() []*TypeEntity {
	var out []*TypeEntity
	for _, name := range p.NamespaceNames() {
		out = append(out, p.Namespaces[name].Classes...)
	}
	return out
}

// IsEmpty reports whether aggregation produced no entities at all.
func (p *ProjectIndex) IsEmpty() bool {
	return len(p.Namespaces) == 0 && len(p.Components) == 0 &&
		len(p.StyleRules) == 0 && len(p.Templates) == 0
}
