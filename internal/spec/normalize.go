package spec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// canonicalMethods fixes the order in which operations under a path are
// visited, independent of input key order.
var canonicalMethods = []string{"get", "post", "put", "patch", "delete"}

// InvalidSpecError reports input that is not a traversable document at all
// (a string, number, or similar in place of an object). It is the only fatal
// condition in normalization; every structural defect inside an object is
// recovered by defaulting or synthesis.
type InvalidSpecError struct {
	Got string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("spec: input is not an object (got %s)", e.Got)
}

// Normalize validates and defaults a loosely typed document into a
// NormalizedSpec. Accepted inputs are nil (synthesizes a placeholder spec),
// a parsed *openapi3.T from the loader, or a generic map decoded from
// JSON/YAML. Anything else returns InvalidSpecError.
func Normalize(raw any) (*NormalizedSpec, error) {
	switch doc := raw.(type) {
	case nil:
		return synthesize(DefaultTitle, DefaultVersion, "", nil), nil
	case *openapi3.T:
		if doc == nil {
			return synthesize(DefaultTitle, DefaultVersion, "", nil), nil
		}
		return FromDocument(doc), nil
	case map[string]any:
		return fromRaw(doc), nil
	default:
		return nil, &InvalidSpecError{Got: fmt.Sprintf("%T", raw)}
	}
}

// FromDocument builds a NormalizedSpec from a kin-openapi document. It never
// fails: missing fields default and an empty path tree synthesizes the
// placeholder endpoints.
func FromDocument(doc *openapi3.T) *NormalizedSpec {
	title, version, description := DefaultTitle, DefaultVersion, ""
	if doc.Info != nil {
		title = orDefault(doc.Info.Title, DefaultTitle)
		version = orDefault(doc.Info.Version, DefaultVersion)
		description = strings.TrimSpace(doc.Info.Description)
	}
	var servers []string
	for _, s := range doc.Servers {
		if s == nil {
			continue
		}
		if u := strings.TrimSpace(s.URL); u != "" {
			servers = append(servers, u)
		}
	}

	var paths []PathItem
	usable := 0
	if doc.Paths != nil {
		keys := make([]string, 0, len(doc.Paths))
		for p := range doc.Paths {
			keys = append(keys, p)
		}
		sort.Strings(keys)
		for _, p := range keys {
			item := doc.Paths[p]
			if item == nil {
				continue
			}
			pi := PathItem{Path: p}
			base := docParams(item.Parameters)
			for _, method := range canonicalMethods {
				op := operationFor(item, method)
				if op == nil {
					continue
				}
				o := Operation{
					Method:      method,
					Summary:     strings.TrimSpace(op.Summary),
					Description: strings.TrimSpace(op.Description),
					Parameters:  mergeParams(base, docParams(op.Parameters)),
				}
				if op.RequestBody != nil && op.RequestBody.Value != nil {
					o.HasBody = true
					o.BodyRequired = op.RequestBody.Value.Required
					o.Body = bodySchemaFromContent(op.RequestBody.Value.Content)
				}
				if op.Responses != nil {
					o.HasResponses = true
					o.Responses = docResponses(op.Responses)
					// Only operations with a responses map ever become
					// endpoints, so only they count against synthesis.
					usable++
				}
				pi.Operations = append(pi.Operations, o)
			}
			if len(pi.Operations) > 0 {
				paths = append(paths, pi)
			}
		}
	}
	if usable == 0 {
		return synthesize(title, version, description, servers)
	}
	return &NormalizedSpec{
		Title:       title,
		Version:     version,
		Description: description,
		Servers:     defaultServers(servers),
		Paths:       paths,
	}
}

// fromRaw walks a generic decoded document. Shapes that do not match
// expectations are skipped, never fatal.
func fromRaw(doc map[string]any) *NormalizedSpec {
	title, version, description := DefaultTitle, DefaultVersion, ""
	if info, ok := doc["info"].(map[string]any); ok {
		if s, ok := info["title"].(string); ok {
			title = orDefault(s, DefaultTitle)
		}
		if s, ok := info["version"].(string); ok {
			version = orDefault(s, DefaultVersion)
		}
		if s, ok := info["description"].(string); ok {
			description = strings.TrimSpace(s)
		}
	}
	var servers []string
	if list, ok := doc["servers"].([]any); ok {
		for _, entry := range list {
			if m, ok := entry.(map[string]any); ok {
				if u, ok := m["url"].(string); ok && strings.TrimSpace(u) != "" {
					servers = append(servers, strings.TrimSpace(u))
				}
			}
		}
	}

	var paths []PathItem
	usable := 0
	if rawPaths, ok := doc["paths"].(map[string]any); ok {
		keys := make([]string, 0, len(rawPaths))
		for p := range rawPaths {
			keys = append(keys, p)
		}
		sort.Strings(keys)
		for _, p := range keys {
			item, ok := rawPaths[p].(map[string]any)
			if !ok {
				continue
			}
			pi := PathItem{Path: p}
			base := rawParams(item["parameters"])
			for _, method := range canonicalMethods {
				// Non-method keys at the path level (parameters, summary,
				// $ref) never produce operations.
				op, ok := item[method].(map[string]any)
				if !ok {
					continue
				}
				o := Operation{Method: method}
				if s, ok := op["summary"].(string); ok {
					o.Summary = strings.TrimSpace(s)
				}
				if s, ok := op["description"].(string); ok {
					o.Description = strings.TrimSpace(s)
				}
				o.Parameters = mergeParams(base, rawParams(op["parameters"]))
				if rb, ok := op["requestBody"].(map[string]any); ok {
					o.HasBody = true
					o.BodyRequired, _ = rb["required"].(bool)
					o.Body = rawBodySchema(rb)
				}
				if resp, ok := op["responses"].(map[string]any); ok {
					o.HasResponses = true
					o.Responses = rawResponses(resp)
					usable++
				}
				pi.Operations = append(pi.Operations, o)
			}
			if len(pi.Operations) > 0 {
				paths = append(paths, pi)
			}
		}
	}
	if usable == 0 {
		return synthesize(title, version, description, servers)
	}
	return &NormalizedSpec{
		Title:       title,
		Version:     version,
		Description: description,
		Servers:     defaultServers(servers),
		Paths:       paths,
	}
}

// synthesize builds the minimal placeholder spec: a root endpoint and a
// health check, both returning a generic JSON object. It guarantees the rest
// of the pipeline always has at least one endpoint to emit.
func synthesize(title, version, description string, servers []string) *NormalizedSpec {
	ok := []Response{{Status: "200", Description: "Successful response"}}
	return &NormalizedSpec{
		Title:       orDefault(title, DefaultTitle),
		Version:     orDefault(version, DefaultVersion),
		Description: description,
		Servers:     defaultServers(servers),
		Synthetic:   true,
		Paths: []PathItem{
			{Path: "/", Operations: []Operation{{
				Method:       "get",
				Summary:      "Root endpoint",
				HasResponses: true,
				Responses:    ok,
			}}},
			{Path: "/health", Operations: []Operation{{
				Method:       "get",
				Summary:      "Health check",
				HasResponses: true,
				Responses:    ok,
			}}},
		},
	}
}

func operationFor(item *openapi3.PathItem, method string) *openapi3.Operation {
	switch method {
	case "get":
		return item.Get
	case "post":
		return item.Post
	case "put":
		return item.Put
	case "patch":
		return item.Patch
	case "delete":
		return item.Delete
	}
	return nil
}

func docParams(refs openapi3.Parameters) []Parameter {
	var out []Parameter
	for _, pref := range refs {
		if pref == nil || pref.Value == nil {
			continue
		}
		p := pref.Value
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		out = append(out, Parameter{
			Name:     name,
			In:       strings.TrimSpace(p.In),
			Required: p.Required,
			Schema:   FromSchemaRef(p.Schema),
		})
	}
	return out
}

func rawParams(raw any) []Parameter {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []Parameter
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		in, _ := m["in"].(string)
		required, _ := m["required"].(bool)
		out = append(out, Parameter{
			Name:     name,
			In:       strings.TrimSpace(in),
			Required: required,
			Schema:   ParseSchema(m["schema"]),
		})
	}
	return out
}

// mergeParams combines path-level and operation-level parameters with
// operation-level precedence, preserving declaration order.
func mergeParams(base, op []Parameter) []Parameter {
	if len(base) == 0 {
		return op
	}
	overridden := make(map[string]struct{}, len(op))
	for _, p := range op {
		overridden[p.In+":"+p.Name] = struct{}{}
	}
	out := make([]Parameter, 0, len(base)+len(op))
	for _, p := range base {
		if _, ok := overridden[p.In+":"+p.Name]; ok {
			continue
		}
		out = append(out, p)
	}
	return append(out, op...)
}

func docResponses(responses openapi3.Responses) []Response {
	keys := make([]string, 0, len(responses))
	for k := range responses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []Response
	for _, code := range keys {
		rref := responses[code]
		desc := ""
		if rref != nil && rref.Value != nil && rref.Value.Description != nil {
			desc = strings.TrimSpace(*rref.Value.Description)
		}
		out = append(out, Response{Status: code, Description: desc})
	}
	return out
}

func rawResponses(responses map[string]any) []Response {
	keys := make([]string, 0, len(responses))
	for k := range responses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []Response
	for _, code := range keys {
		desc := ""
		if m, ok := responses[code].(map[string]any); ok {
			if s, ok := m["description"].(string); ok {
				desc = strings.TrimSpace(s)
			}
		}
		out = append(out, Response{Status: code, Description: desc})
	}
	return out
}

// bodySchemaFromContent picks the JSON media type when present, otherwise the
// first media type in sorted order.
func bodySchemaFromContent(content openapi3.Content) *SchemaNode {
	if len(content) == 0 {
		return &SchemaNode{Kind: KindObject}
	}
	if mt, ok := content["application/json"]; ok && mt != nil {
		return FromSchemaRef(mt.Schema)
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if mt := content[keys[0]]; mt != nil {
		return FromSchemaRef(mt.Schema)
	}
	return &SchemaNode{Kind: KindObject}
}

func rawBodySchema(rb map[string]any) *SchemaNode {
	content, ok := rb["content"].(map[string]any)
	if !ok || len(content) == 0 {
		return &SchemaNode{Kind: KindObject}
	}
	pick := func(mime string) (*SchemaNode, bool) {
		m, ok := content[mime].(map[string]any)
		if !ok {
			return nil, false
		}
		return ParseSchema(m["schema"]), true
	}
	if n, ok := pick("application/json"); ok {
		return n
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if n, ok := pick(keys[0]); ok {
		return n
	}
	return &SchemaNode{Kind: KindObject}
}

func defaultServers(servers []string) []string {
	if len(servers) == 0 {
		return []string{DefaultServer}
	}
	return servers
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
