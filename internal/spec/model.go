package spec

// Canonical in-memory specification produced by the normalizer and consumed
// by the extractor and emitters.

// Defaults substituted when the input document omits the corresponding field.
const (
	DefaultTitle   = "API"
	DefaultVersion = "1.0.0"
	DefaultServer  = "https://api.example.com"
)

// NormalizedSpec is the canonical form of a parsed (or synthesized) OpenAPI
// document. Title and Servers are never empty. The value is immutable after
// Normalize or FromDocument returns it.
type NormalizedSpec struct {
	Title       string
	Version     string
	Description string
	Servers     []string
	Paths       []PathItem
	// Synthetic is true when the input had no usable paths and the placeholder
	// endpoints were substituted.
	Synthetic bool
}

// PathItem holds the operations declared under one path, restricted to
// recognized HTTP method keys.
type PathItem struct {
	Path       string
	Operations []Operation
}

// Operation is one method entry under a path. Parameters are still loosely
// shaped here; classification happens in Extract.
type Operation struct {
	Method       string // lowercase: get, post, put, patch, delete
	Summary      string
	Description  string
	Parameters   []Parameter
	Body         *SchemaNode // request body schema, nil when absent
	HasBody      bool
	BodyRequired bool
	// HasResponses records whether the operation declared a responses map at
	// all. Operations without one are malformed and never become endpoints.
	HasResponses bool
	Responses    []Response
}

// Parameter carries a parameter as declared, including cookie locations.
type Parameter struct {
	Name     string
	In       string // path|query|header|cookie
	Required bool
	Schema   *SchemaNode
}

// Response is one (status, description) pair from an operation.
type Response struct {
	Status      string
	Description string
}

// Location classifies where a parameter travels in a request.
type Location string

const (
	InQuery  Location = "query"
	InPath   Location = "path"
	InHeader Location = "header"
	InBody   Location = "body"
)

// EndpointDescriptor is one (path, method) pair with classified parameters,
// produced by Extract and consumed by the identifier deriver and emitters.
type EndpointDescriptor struct {
	Path        string // may contain {param} placeholders
	Method      string // uppercase for display; generated dispatch lowercases it
	Summary     string
	Description string
	Parameters  []ParameterDescriptor
	Responses   []Response
}

// ParameterDescriptor is a classified parameter. Path parameters are always
// required regardless of how the input flagged them.
type ParameterDescriptor struct {
	Name     string
	Schema   *SchemaNode
	Required bool
	Location Location
	// FromCookie marks parameters declared with in: cookie, which are carried
	// as header-equivalent rather than dropped.
	FromCookie bool
}
