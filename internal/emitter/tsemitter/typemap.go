package tsemitter

import "github.com/restforge/spec2client/internal/spec"

// MapType converts a schema node into a TypeScript type expression. It is
// total: malformed or unknown nodes map to "any" instead of failing, so the
// generated client always compiles even from unusual schemas.
func MapType(n *spec.SchemaNode) string {
	if n == nil {
		return "any"
	}
	switch n.Kind {
	case spec.KindString:
		return "string"
	case spec.KindNumber:
		return "number"
	case spec.KindBoolean:
		return "boolean"
	case spec.KindArray:
		if n.Items == nil {
			return "any[]"
		}
		return MapType(n.Items) + "[]"
	case spec.KindObject:
		return "object"
	default:
		return "any"
	}
}
