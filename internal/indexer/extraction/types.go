// Package extraction defines the language-neutral structural model produced by
// the per-language extractors and merged by the aggregator.
//
// Every type is plain data with json/yaml tags so a ProjectIndex can be embedded
// in prompt templates or written to an intermediate cache as-is.
package extraction

// Language is the tag assigned to a file by the classifier.
type Language string

const (
	LanguageCSharp     Language = "csharp"
	LanguageRazor      Language = "razor"
	LanguageTypeScript Language = "typescript"
	LanguageJavaScript Language = "javascript"
	LanguageHTML       Language = "html"
	LanguageCSS        Language = "css"
	LanguageSCSS       Language = "scss"
	LanguageUnknown    Language = "unknown"
)

// GlobalNamespace holds types declared outside any namespace.
const GlobalNamespace = "global"

// SourceFile is the raw input of one extraction call.
type SourceFile struct {
	Path     string
	Language Language
	Text     string
}

// StructuralRecord is the per-file extraction result.
type StructuralRecord struct {
	FilePath   string            `json:"filePath" yaml:"filePath"`
	Language   Language          `json:"languageTag" yaml:"languageTag"`
	Namespaces []*Namespace      `json:"namespaces" yaml:"namespaces"`
	Components []ComponentEntity `json:"components" yaml:"components"`
	StyleRules []StyleRule       `json:"styleRules" yaml:"styleRules"`
	Elements   []MarkupElement   `json:"elements,omitempty" yaml:"elements,omitempty"`
	Issues     []Issue           `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// NewRecord returns an empty record for the given file.
func NewRecord(path string, lang Language) *StructuralRecord {
	return &StructuralRecord{
		FilePath:   path,
		Language:   lang,
		Namespaces: []*Namespace{},
		Components: []ComponentEntity{},
		StyleRules: []StyleRule{},
	}
}

// IsEmpty reports whether the file parsed but yielded no documentable structure.
func (r *StructuralRecord) IsEmpty() bool {
	for _, ns := range r.Namespaces {
		if len(ns.Classes) > 0 {
			return false
		}
	}
	return len(r.Components) == 0 && len(r.StyleRules) == 0 && len(r.Elements) == 0
}

// Namespace returns the namespace with the given name, creating it on first use
// so that namespaces keep first-declaration order.
func (r *StructuralRecord) Namespace(name string) *Namespace {
	if name == "" {
		name = GlobalNamespace
	}
	for _, ns := range r.Namespaces {
		if ns.Name == name {
			return ns
		}
	}
	ns := &Namespace{Name: name, Classes: []*TypeEntity{}}
	r.Namespaces = append(r.Namespaces, ns)
	return ns
}

// AddIssue records a non-fatal problem found while extracting the file.
func (r *StructuralRecord) AddIssue(kind IssueKind, line int, msg string) {
	r.Issues = append(r.Issues, Issue{File: r.FilePath, Kind: kind, Line: line, Message: msg})
}

// Namespace groups types declared under one name.
type Namespace struct {
	Name    string        `json:"name" yaml:"name"`
	Classes []*TypeEntity `json:"classes" yaml:"classes"`
}

// TypeKind classifies a TypeEntity.
type TypeKind string

const (
	KindClass      TypeKind = "class"
	KindInterface  TypeKind = "interface"
	KindEnum       TypeKind = "enum"
	KindStaticType TypeKind = "staticType"
)

// CollisionKind explains why a type was tagged as colliding during aggregation.
type CollisionKind string

const (
	// CollisionDuplicate marks the same namespace+type declared in more than one file.
	CollisionDuplicate CollisionKind = "duplicate"
	// CollisionPartial marks a C# partial type split across files.
	CollisionPartial CollisionKind = "partial"
)

// TypeEntity is a class, interface, enum or static type.
type TypeEntity struct {
	Name           string        `json:"name" yaml:"name"`
	Kind           TypeKind      `json:"kind" yaml:"kind"`
	Modifiers      []string      `json:"modifiers" yaml:"modifiers"`
	TypeParameters []string      `json:"typeParameters,omitempty" yaml:"typeParameters,omitempty"`
	BaseTypes      []string      `json:"baseTypes,omitempty" yaml:"baseTypes,omitempty"`
	Methods        []Method      `json:"methods" yaml:"methods"`
	Properties     []Property    `json:"properties" yaml:"properties"`
	Members        []string      `json:"members,omitempty" yaml:"members,omitempty"`
	SourceFile     string        `json:"sourceFile" yaml:"sourceFile"`
	Line           int           `json:"line" yaml:"line"`
	Colliding      bool          `json:"colliding,omitempty" yaml:"colliding,omitempty"`
	CollisionKind  CollisionKind `json:"collisionKind,omitempty" yaml:"collisionKind,omitempty"`
	CollidesWith   []string      `json:"collidesWith,omitempty" yaml:"collidesWith,omitempty"`
}

// HasModifier reports whether the type was declared with the given modifier.
func (t *TypeEntity) HasModifier(mod string) bool {
	for _, m := range t.Modifiers {
		if m == mod {
			return true
		}
	}
	return false
}

// Method is a method, constructor or accessor signature.
type Method struct {
	Name       string      `json:"name" yaml:"name"`
	Parameters []Parameter `json:"parameters" yaml:"parameters"`
	ReturnType string      `json:"returnTypeToken" yaml:"returnTypeToken"`
	Visibility string      `json:"visibilityToken" yaml:"visibilityToken"`
	Modifiers  []string    `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Line       int         `json:"line" yaml:"line"`
	// Partial is set when the signature could not be fully matched.
	Partial bool `json:"partial,omitempty" yaml:"partial,omitempty"`
}

// Parameter is one (type, name) pair of a method signature.
type Parameter struct {
	Type     string `json:"typeToken" yaml:"typeToken"`
	Name     string `json:"paramName" yaml:"paramName"`
	Modifier string `json:"modifier,omitempty" yaml:"modifier,omitempty"`
	Default  string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Property is a property or field declared in a type body.
type Property struct {
	Name       string   `json:"name" yaml:"name"`
	Type       string   `json:"typeToken" yaml:"typeToken"`
	Visibility string   `json:"visibilityToken" yaml:"visibilityToken"`
	Modifiers  []string `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Field      bool     `json:"field,omitempty" yaml:"field,omitempty"`
	Line       int      `json:"line" yaml:"line"`
}

// DecoratorKind classifies component metadata.
type DecoratorKind string

const (
	DecoratorComponent DecoratorKind = "component"
	DecoratorService   DecoratorKind = "service"
	DecoratorOther     DecoratorKind = "other"
)

// ComponentEntity is decorator metadata attached to a class.
type ComponentEntity struct {
	ClassName      string        `json:"className" yaml:"className"`
	Selector       string        `json:"selector" yaml:"selector"`
	TemplateRef    string        `json:"templateRef" yaml:"templateRef"`
	InlineTemplate bool          `json:"inlineTemplate,omitempty" yaml:"inlineTemplate,omitempty"`
	StyleRefs      []string      `json:"styleRefs" yaml:"styleRefs"`
	DecoratorKind  DecoratorKind `json:"decoratorKind" yaml:"decoratorKind"`
	Decorator      string        `json:"decorator" yaml:"decorator"`
	ProvidedIn     string        `json:"providedIn,omitempty" yaml:"providedIn,omitempty"`
	FilePath       string        `json:"filePath" yaml:"filePath"`
	Line           int           `json:"line" yaml:"line"`
}

// StyleRule is one selector with its declaration block.
type StyleRule struct {
	Selector     string        `json:"selector" yaml:"selector"`
	Declarations []Declaration `json:"declarations" yaml:"declarations"`
	// AtRule is the enclosing @media/@supports prelude, if any.
	AtRule   string `json:"atRule,omitempty" yaml:"atRule,omitempty"`
	FilePath string `json:"filePath" yaml:"filePath"`
	Line     int    `json:"line" yaml:"line"`
}

// Declaration is a property: value pair.
type Declaration struct {
	Property string `json:"property" yaml:"property"`
	Value    string `json:"value" yaml:"value"`
}

// MarkupElement is one entry of a template's flat element inventory.
type MarkupElement struct {
	Tag        string   `json:"tag" yaml:"tag"`
	ID         string   `json:"id,omitempty" yaml:"id,omitempty"`
	Classes    []string `json:"classes,omitempty" yaml:"classes,omitempty"`
	Bindings   []string `json:"bindings,omitempty" yaml:"bindings,omitempty"`
	Attributes []string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	// Custom marks elements that look like component usages (app-foo, <Counter>).
	Custom bool `json:"custom,omitempty" yaml:"custom,omitempty"`
	Line   int  `json:"line" yaml:"line"`
}

// IssueKind classifies non-fatal problems.
type IssueKind string

const (
	IssuePartialExtraction   IssueKind = "PartialExtraction"
	IssueAggregationConflict IssueKind = "AggregationConflict"
)

// Issue is a warning accumulated into the run summary.
type Issue struct {
	File    string    `json:"file" yaml:"file"`
	Kind    IssueKind `json:"kind" yaml:"kind"`
	Line    int       `json:"line,omitempty" yaml:"line,omitempty"`
	Message string    `json:"message" yaml:"message"`
}
