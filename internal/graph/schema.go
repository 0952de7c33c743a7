package graph

import "github.com/chaingraph/chaingraph/internal/gvalue"

// Inline schema types (spec §3 "Graph catalog"). Schemas are advisory at
// write time: a graph created without one accepts any labels/properties
// a write introduces; a graph created with one rejects writes that don't
// match it.

// PropertyDef declares one property's expected type within a node or edge
// type. Type is gvalue.TagNull when unconstrained.
type PropertyDef struct {
	Name     string
	Type     gvalue.Tag
	Required bool
}

// NodeType declares one vertex label's schema.
type NodeType struct {
	Label      string
	Properties []PropertyDef
	PrimaryKey string // property name, empty if the label has none
}

// EdgeType declares one edge label's schema, including endpoint label
// constraints.
type EdgeType struct {
	Label          string
	Properties     []PropertyDef
	SourceLabels   []string // allowed source vertex labels; empty = unconstrained
	TargetLabels   []string // allowed target vertex labels; empty = unconstrained
}

// Schema is the inline schema attached to a graph at CREATE GRAPH time.
// A nil *Schema means the graph was created without one.
type Schema struct {
	NodeTypes map[string]NodeType
	EdgeTypes map[string]EdgeType
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{
		NodeTypes: map[string]NodeType{},
		EdgeTypes: map[string]EdgeType{},
	}
}

// PrimaryKeyProperty returns the primary-key property name declared for
// label, if any.
func (s *Schema) PrimaryKeyProperty(label string) (string, bool) {
	if s == nil {
		return "", false
	}
	nt, ok := s.NodeTypes[label]
	if !ok || nt.PrimaryKey == "" {
		return "", false
	}
	return nt.PrimaryKey, true
}

// ValidateVertexProperties checks props against the declared node type for
// label, if the schema declares one. Unschema'd labels (or a nil schema)
// always pass.
func (s *Schema) ValidateVertexProperties(label string, props map[string]gvalue.Value) error {
	if s == nil {
		return nil
	}
	nt, ok := s.NodeTypes[label]
	if !ok {
		return nil
	}
	return validateProperties(nt.Properties, props)
}

// ValidateEdgeProperties checks props, and source/target label
// constraints, against the declared edge type for label.
func (s *Schema) ValidateEdgeProperties(label, sourceLabel, targetLabel string, props map[string]gvalue.Value) error {
	if s == nil {
		return nil
	}
	et, ok := s.EdgeTypes[label]
	if !ok {
		return nil
	}
	if len(et.SourceLabels) > 0 && !contains(et.SourceLabels, sourceLabel) {
		return &SchemaViolation{Reason: "source label " + sourceLabel + " not permitted for edge type " + label}
	}
	if len(et.TargetLabels) > 0 && !contains(et.TargetLabels, targetLabel) {
		return &SchemaViolation{Reason: "target label " + targetLabel + " not permitted for edge type " + label}
	}
	return validateProperties(et.Properties, props)
}

func validateProperties(defs []PropertyDef, props map[string]gvalue.Value) error {
	for _, d := range defs {
		v, present := props[d.Name]
		if !present {
			if d.Required {
				return &SchemaViolation{Reason: "missing required property " + d.Name}
			}
			continue
		}
		if d.Type != gvalue.TagNull && !v.IsNull() && v.Tag() != d.Type {
			return &SchemaViolation{Reason: "property " + d.Name + " has type " + v.Tag().String() + ", expected " + d.Type.String()}
		}
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// SchemaViolation reports a write that does not match an inline schema.
type SchemaViolation struct {
	Reason string
}

func (e *SchemaViolation) Error() string { return "CONSTRAINT_VIOLATION(schema): " + e.Reason }
