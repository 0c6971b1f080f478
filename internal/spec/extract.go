package spec

import "strings"

// Extract flattens the normalized path tree into endpoint descriptors. Paths
// are visited in the spec's canonical order and methods in the fixed order
// GET, POST, PUT, PATCH, DELETE, so the same spec always yields the same
// slice. Duplicate (path, method) pairs keep the first occurrence.
func Extract(sp *NormalizedSpec) []EndpointDescriptor {
	if sp == nil {
		return nil
	}
	var out []EndpointDescriptor
	seen := make(map[string]struct{})
	for _, pi := range sp.Paths {
		for _, method := range canonicalMethods {
			for _, op := range pi.Operations {
				if op.Method != method {
					continue
				}
				// Operations without a responses map are malformed; skip, not fatal.
				if !op.HasResponses {
					continue
				}
				key := method + " " + pi.Path
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				out = append(out, toDescriptor(pi.Path, op))
			}
		}
	}
	return out
}

func toDescriptor(path string, op Operation) EndpointDescriptor {
	ep := EndpointDescriptor{
		Path:        path,
		Method:      strings.ToUpper(op.Method),
		Summary:     op.Summary,
		Description: op.Description,
		Responses:   op.Responses,
	}
	for _, p := range op.Parameters {
		pd := ParameterDescriptor{Name: p.Name, Required: p.Required, Schema: p.Schema}
		if pd.Schema == nil {
			pd.Schema = &SchemaNode{Kind: KindUnknown}
		}
		switch p.In {
		case "query":
			pd.Location = InQuery
		case "path":
			pd.Location = InPath
			// Path segments cannot be omitted, whatever the input claimed.
			pd.Required = true
		case "header":
			pd.Location = InHeader
		case "cookie":
			pd.Location = InHeader
			pd.FromCookie = true
		default:
			continue
		}
		ep.Parameters = append(ep.Parameters, pd)
	}
	if op.HasBody {
		schema := op.Body
		if schema == nil {
			schema = &SchemaNode{Kind: KindObject}
		}
		ep.Parameters = append(ep.Parameters, ParameterDescriptor{
			Name:     "body",
			Required: op.BodyRequired,
			Location: InBody,
			Schema:   schema,
		})
	}
	return ep
}
