package graph

import "time"

// NodeKind represents the type of a structural entity.
type NodeKind string

const (
	NodeNamespace  NodeKind = "namespace"
	NodeType       NodeKind = "type"
	NodeComponent  NodeKind = "component"
	NodeTemplate   NodeKind = "template"
	NodeStylesheet NodeKind = "stylesheet"
)

// Node represents an entity of the project index with its source location.
type Node struct {
	ID    string   `json:"id"`             // Unique identifier (e.g., "type:Shop.Order@src/Order.cs")
	Kind  NodeKind `json:"kind"`           // Type of node
	Label string   `json:"label"`          // Display name
	File  string   `json:"file,omitempty"` // Relative file path
	Line  int      `json:"line,omitempty"` // Declaration line (1-indexed)
}

// EdgeType represents the type of relationship between nodes.
type EdgeType string

const (
	EdgeContains  EdgeType = "contains"  // Namespace contains type
	EdgeDecorates EdgeType = "decorates" // Component metadata decorates class
	EdgeRenders   EdgeType = "renders"   // Component renders template
	EdgeStyles    EdgeType = "styles"    // Stylesheet styles component
	EdgeUses      EdgeType = "uses"      // Template uses component (custom tag)
	EdgeInherits  EdgeType = "inherits"  // Type extends/implements type
)

// Edge represents a relationship between two entities.
type Edge struct {
	From string   `json:"from"` // Source node ID
	To   string   `json:"to"`   // Target node ID
	Type EdgeType `json:"type"` // Relationship type
}

// GraphData represents the complete structure graph as plain data.
type GraphData struct {
	Metadata GraphMetadata `json:"_metadata"`
	Nodes    []Node        `json:"nodes"`
	Edges    []Edge        `json:"edges"`
}

// GraphMetadata contains metadata about the graph.
type GraphMetadata struct {
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	NodeCount   int       `json:"node_count"`
	EdgeCount   int       `json:"edge_count"`
}
