package spec

import (
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// SchemaKind enumerates the closed set of shapes the generator understands.
// Everything else collapses into KindUnknown, which maps to a loose type in
// generated code instead of failing the pipeline.
type SchemaKind int

const (
	KindUnknown SchemaKind = iota
	KindString
	KindNumber
	KindBoolean
	KindArray
	KindObject
)

// SchemaNode is the tagged union the pipeline traffics in instead of raw
// untyped maps. Nodes are immutable once built.
type SchemaNode struct {
	Kind     SchemaKind
	Items    *SchemaNode            // array element schema; nil means any
	Fields   map[string]*SchemaNode // object properties
	Order    []string               // deterministic field iteration order
	Required []string               // required object fields
}

// ParseSchema converts a loosely typed schema fragment into a SchemaNode.
// It is total: any input, however malformed, yields a usable node.
func ParseSchema(raw any) *SchemaNode {
	m, ok := raw.(map[string]any)
	if !ok {
		return &SchemaNode{Kind: KindUnknown}
	}
	typ, _ := m["type"].(string)
	switch typ {
	case "string":
		return &SchemaNode{Kind: KindString}
	case "number", "integer":
		return &SchemaNode{Kind: KindNumber}
	case "boolean":
		return &SchemaNode{Kind: KindBoolean}
	case "array":
		n := &SchemaNode{Kind: KindArray}
		if items, ok := m["items"]; ok {
			n.Items = ParseSchema(items)
		}
		return n
	case "object":
		return parseObject(m)
	default:
		// Untyped nodes that carry properties still behave like objects.
		if _, ok := m["properties"]; ok {
			return parseObject(m)
		}
		return &SchemaNode{Kind: KindUnknown}
	}
}

func parseObject(m map[string]any) *SchemaNode {
	n := &SchemaNode{Kind: KindObject}
	if props, ok := m["properties"].(map[string]any); ok && len(props) > 0 {
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		n.Order = keys
		n.Fields = make(map[string]*SchemaNode, len(keys))
		for _, k := range keys {
			n.Fields[k] = ParseSchema(props[k])
		}
	}
	if req, ok := m["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				n.Required = append(n.Required, s)
			}
		}
	}
	return n
}

// FromSchemaRef converts a kin-openapi schema reference into a SchemaNode.
// Unresolved refs and composition constructs fall back to KindUnknown.
// Resolved $refs share pointers, so a recursive schema (a node whose children
// are nodes) forms a cycle; revisited schemas collapse to KindUnknown instead
// of recursing forever.
func FromSchemaRef(ref *openapi3.SchemaRef) *SchemaNode {
	return fromSchemaRef(ref, make(map[*openapi3.Schema]bool))
}

func fromSchemaRef(ref *openapi3.SchemaRef, seen map[*openapi3.Schema]bool) *SchemaNode {
	if ref == nil || ref.Value == nil {
		return &SchemaNode{Kind: KindUnknown}
	}
	v := ref.Value
	if seen[v] {
		return &SchemaNode{Kind: KindUnknown}
	}
	seen[v] = true
	defer delete(seen, v)
	switch v.Type {
	case "string":
		return &SchemaNode{Kind: KindString}
	case "number", "integer":
		return &SchemaNode{Kind: KindNumber}
	case "boolean":
		return &SchemaNode{Kind: KindBoolean}
	case "array":
		n := &SchemaNode{Kind: KindArray}
		if v.Items != nil {
			n.Items = fromSchemaRef(v.Items, seen)
		}
		return n
	case "object":
		return objectFromRef(v, seen)
	default:
		if len(v.Properties) > 0 {
			return objectFromRef(v, seen)
		}
		return &SchemaNode{Kind: KindUnknown}
	}
}

func objectFromRef(v *openapi3.Schema, seen map[*openapi3.Schema]bool) *SchemaNode {
	n := &SchemaNode{Kind: KindObject}
	if len(v.Properties) > 0 {
		keys := make([]string, 0, len(v.Properties))
		for k := range v.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		n.Order = keys
		n.Fields = make(map[string]*SchemaNode, len(keys))
		for _, k := range keys {
			n.Fields[k] = fromSchemaRef(v.Properties[k], seen)
		}
	}
	n.Required = append([]string(nil), v.Required...)
	return n
}

// FieldRequired reports whether an object field is listed as required.
func (n *SchemaNode) FieldRequired(name string) bool {
	if n == nil {
		return false
	}
	for _, r := range n.Required {
		if r == name {
			return true
		}
	}
	return false
}
