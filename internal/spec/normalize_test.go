package spec

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

const sampleSpec = `openapi: 3.0.0
info:
  title: Sample API
  version: "1.2.0"
  description: Demo
servers:
  - url: https://api.sample.test
paths:
  /pets:
    parameters:
      - in: query
        name: limit
        required: false
        schema:
          type: integer
    get:
      summary: List pets
      description: Returns all pets
      parameters:
        - in: query
          name: limit
          required: true
          schema:
            type: integer
      responses:
        "200":
          description: ok
    post:
      summary: Create pet
      requestBody:
        required: true
        content:
          application/json:
            schema:
              type: object
              required: [name]
              properties:
                name:
                  type: string
                tag:
                  type: string
      responses:
        "201":
          description: created
  /admin:
    get:
      summary: Admin only
      responses:
        "200": { description: ok }
`

func loadDoc(t *testing.T, raw string) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(strings.TrimSpace(raw)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return doc
}

func TestFromDocument_Basic(t *testing.T) {
	t.Parallel()
	sp := FromDocument(loadDoc(t, sampleSpec))

	if sp.Title != "Sample API" {
		t.Errorf("title: got %q", sp.Title)
	}
	if sp.Version != "1.2.0" {
		t.Errorf("version: got %q", sp.Version)
	}
	if sp.Synthetic {
		t.Errorf("expected non-synthetic spec")
	}
	if len(sp.Servers) != 1 || sp.Servers[0] != "https://api.sample.test" {
		t.Errorf("servers: got %v", sp.Servers)
	}

	// Paths come back in lexicographic order regardless of declaration order.
	if len(sp.Paths) != 2 {
		t.Fatalf("paths: got %d", len(sp.Paths))
	}
	if sp.Paths[0].Path != "/admin" || sp.Paths[1].Path != "/pets" {
		t.Errorf("path order: got %q, %q", sp.Paths[0].Path, sp.Paths[1].Path)
	}

	pets := sp.Paths[1]
	if len(pets.Operations) != 2 {
		t.Fatalf("pets operations: got %d", len(pets.Operations))
	}
	get := pets.Operations[0]
	if get.Method != "get" || get.Summary != "List pets" {
		t.Errorf("get op: got %+v", get)
	}
	// Operation-level limit overrides the path-level declaration.
	if len(get.Parameters) != 1 {
		t.Fatalf("get params: got %d", len(get.Parameters))
	}
	if p := get.Parameters[0]; p.Name != "limit" || !p.Required || p.Schema.Kind != KindNumber {
		t.Errorf("limit param: got %+v", p)
	}

	post := pets.Operations[1]
	if post.Method != "post" || !post.HasBody || !post.BodyRequired {
		t.Errorf("post op: got %+v", post)
	}
	if post.Body == nil || post.Body.Kind != KindObject {
		t.Fatalf("post body: got %+v", post.Body)
	}
	if !post.Body.FieldRequired("name") || post.Body.FieldRequired("tag") {
		t.Errorf("body required fields: got %v", post.Body.Required)
	}
	// Path-level limit still applies where the operation does not override it.
	if len(post.Parameters) != 1 || post.Parameters[0].Required {
		t.Errorf("post params: got %+v", post.Parameters)
	}
}

func TestFromDocument_EmptyPathsSynthesizes(t *testing.T) {
	t.Parallel()
	doc := loadDoc(t, `openapi: 3.0.0
info:
  title: Bare API
  version: "2.0"
servers:
  - url: https://bare.test
paths: {}
`)
	sp := FromDocument(doc)

	if !sp.Synthetic {
		t.Fatalf("expected synthetic spec")
	}
	if sp.Title != "Bare API" || sp.Version != "2.0" {
		t.Errorf("metadata: got %q %q", sp.Title, sp.Version)
	}
	if len(sp.Servers) != 1 || sp.Servers[0] != "https://bare.test" {
		t.Errorf("servers: got %v", sp.Servers)
	}
	assertPlaceholderPaths(t, sp)
}

func TestNormalize_NilSynthesizes(t *testing.T) {
	t.Parallel()
	sp, err := Normalize(nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !sp.Synthetic {
		t.Fatalf("expected synthetic spec")
	}
	if sp.Title != DefaultTitle || sp.Version != DefaultVersion {
		t.Errorf("defaults: got %q %q", sp.Title, sp.Version)
	}
	if len(sp.Servers) != 1 || sp.Servers[0] != DefaultServer {
		t.Errorf("servers: got %v", sp.Servers)
	}
	assertPlaceholderPaths(t, sp)
}

func TestNormalize_InvalidInput(t *testing.T) {
	t.Parallel()
	for _, input := range []any{"hello", 42, 3.14, true, []any{"x"}} {
		_, err := Normalize(input)
		var ise *InvalidSpecError
		if !errors.As(err, &ise) {
			t.Errorf("input %#v: expected InvalidSpecError, got %v", input, err)
		}
	}
}

func TestNormalize_RawMinimal(t *testing.T) {
	t.Parallel()
	sp, err := Normalize(map[string]any{
		"info": map[string]any{"title": "Foo Bar"},
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if sp.Title != "Foo Bar" {
		t.Errorf("title: got %q", sp.Title)
	}
	if sp.Version != DefaultVersion {
		t.Errorf("version: got %q", sp.Version)
	}
	if !sp.Synthetic {
		t.Fatalf("expected synthetic spec for missing paths")
	}
	assertPlaceholderPaths(t, sp)
}

func TestNormalize_RawPaths(t *testing.T) {
	t.Parallel()
	sp, err := Normalize(map[string]any{
		"info": map[string]any{"title": "Raw API", "version": "0.3"},
		"servers": []any{
			map[string]any{"url": "https://raw.test"},
			map[string]any{"url": "  "},
		},
		"paths": map[string]any{
			"/users/{id}": map[string]any{
				"summary": "not a method",
				"parameters": []any{
					map[string]any{"name": "id", "in": "path", "required": true, "schema": map[string]any{"type": "string"}},
				},
				"get": map[string]any{
					"summary": "Get user",
					"responses": map[string]any{
						"404": map[string]any{"description": "missing"},
						"200": map[string]any{"description": "ok"},
					},
				},
				"delete": map[string]any{
					// No responses map: kept in the model, never extracted.
					"summary": "Remove user",
				},
			},
			"/broken": "not an object",
		},
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if sp.Synthetic {
		t.Fatalf("expected real paths")
	}
	if len(sp.Servers) != 1 || sp.Servers[0] != "https://raw.test" {
		t.Errorf("servers: got %v", sp.Servers)
	}
	if len(sp.Paths) != 1 || sp.Paths[0].Path != "/users/{id}" {
		t.Fatalf("paths: got %+v", sp.Paths)
	}

	ops := sp.Paths[0].Operations
	if len(ops) != 2 {
		t.Fatalf("operations: got %d", len(ops))
	}
	get := ops[0]
	if get.Method != "get" || !get.HasResponses {
		t.Errorf("get op: got %+v", get)
	}
	// Responses come back sorted by status code.
	if len(get.Responses) != 2 || get.Responses[0].Status != "200" || get.Responses[1].Status != "404" {
		t.Errorf("responses: got %+v", get.Responses)
	}
	if len(get.Parameters) != 1 || get.Parameters[0].Name != "id" {
		t.Errorf("inherited params: got %+v", get.Parameters)
	}
	if del := ops[1]; del.Method != "delete" || del.HasResponses {
		t.Errorf("delete op: got %+v", del)
	}
}

func TestNormalize_AllResponselessSynthesizes(t *testing.T) {
	t.Parallel()
	// Operations without a responses map never become endpoints, so a
	// document containing only such operations must synthesize to keep the
	// extractor's output non-empty.
	sp, err := Normalize(map[string]any{
		"info": map[string]any{"title": "Broken API"},
		"paths": map[string]any{
			"/a": map[string]any{
				"get":  map[string]any{"summary": "no responses"},
				"post": map[string]any{"summary": "also none"},
			},
		},
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !sp.Synthetic {
		t.Fatalf("expected synthetic spec")
	}
	if sp.Title != "Broken API" {
		t.Errorf("title: got %q", sp.Title)
	}
	assertPlaceholderPaths(t, sp)
	if eps := Extract(sp); len(eps) == 0 {
		t.Fatalf("expected at least one endpoint")
	}
}

func TestFromDocument_AllResponselessSynthesizes(t *testing.T) {
	t.Parallel()
	doc := &openapi3.T{
		OpenAPI: "3.0.0",
		Info:    &openapi3.Info{Title: "Broken API", Version: "1.0"},
		Paths: openapi3.Paths{
			"/a": &openapi3.PathItem{Get: &openapi3.Operation{Summary: "no responses"}},
		},
	}
	sp := FromDocument(doc)
	if !sp.Synthetic {
		t.Fatalf("expected synthetic spec")
	}
	assertPlaceholderPaths(t, sp)
	if eps := Extract(sp); len(eps) == 0 {
		t.Fatalf("expected at least one endpoint")
	}
}

func TestFromDocument_RecursiveSchema(t *testing.T) {
	t.Parallel()
	doc := loadDoc(t, `openapi: 3.0.0
info:
  title: Tree API
  version: "1.0"
paths:
  /nodes:
    post:
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Node'
      responses:
        "201":
          description: created
components:
  schemas:
    Node:
      type: object
      properties:
        name:
          type: string
        children:
          type: array
          items:
            $ref: '#/components/schemas/Node'
`)
	sp := FromDocument(doc)

	if len(sp.Paths) != 1 || len(sp.Paths[0].Operations) != 1 {
		t.Fatalf("paths: got %+v", sp.Paths)
	}
	body := sp.Paths[0].Operations[0].Body
	if body == nil || body.Kind != KindObject {
		t.Fatalf("body: got %+v", body)
	}
	if body.Fields["name"].Kind != KindString {
		t.Errorf("name field: got %+v", body.Fields["name"])
	}
	children := body.Fields["children"]
	if children.Kind != KindArray || children.Items == nil {
		t.Fatalf("children field: got %+v", children)
	}
	// The self-reference collapses instead of recursing forever.
	if children.Items.Kind != KindUnknown {
		t.Errorf("recursive element: got kind %v", children.Items.Kind)
	}
}

func assertPlaceholderPaths(t *testing.T, sp *NormalizedSpec) {
	t.Helper()
	if len(sp.Paths) != 2 {
		t.Fatalf("placeholder paths: got %d", len(sp.Paths))
	}
	if sp.Paths[0].Path != "/" || sp.Paths[1].Path != "/health" {
		t.Fatalf("placeholder paths: got %q, %q", sp.Paths[0].Path, sp.Paths[1].Path)
	}
	for _, pi := range sp.Paths {
		if len(pi.Operations) != 1 {
			t.Fatalf("placeholder %s: got %d operations", pi.Path, len(pi.Operations))
		}
		op := pi.Operations[0]
		if op.Method != "get" || !op.HasResponses {
			t.Errorf("placeholder %s: got %+v", pi.Path, op)
		}
		if len(op.Responses) != 1 || op.Responses[0].Status != "200" {
			t.Errorf("placeholder %s responses: got %+v", pi.Path, op.Responses)
		}
	}
}
