package tsemitter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/restforge/spec2client/internal/identifier"
	"github.com/restforge/spec2client/internal/spec"
)

// view is the fully precomputed template input. Templates only read fields;
// all naming, typing, and classification decisions happen here so the output
// stays deterministic and easy to test.
type view struct {
	Title        string
	Version      string
	Description  string
	ClassName    string
	BaseURL      string
	APIKeyEnv    string
	TypeScript   bool
	UsesAxios    bool
	IncludeTests bool
	TypeImports  []string
	Methods      []methodView
	Examples     []exampleView

	FirstMethod     string
	FirstMethodArgs string
}

type methodView struct {
	Name         string
	Method       string // uppercase, for display and fetch dispatch
	MethodLower  string // axios dispatch
	Path         string
	PathTemplate string // path with {x} replaced by ${params.x}
	Summary      string
	Description  string

	HasParams    bool
	ParamsType   string
	ResponseType string
	Params       []paramView

	QueryParams  []paramView
	HeaderParams []paramView
	BodyParam    *paramView
	HasQuery     bool
	HasHeaders   bool
	SendsBody    bool   // POST/PUT/PATCH carry a payload
	BodyData     string // payload expression when SendsBody

	ExampleArgs string
}

type paramView struct {
	Name        string
	Prop        string // interface property: q or 'x-token'
	Key         string // quoted object-literal key: 'q'
	Access      string // params.q or params['x-token']
	TSType      string
	Required    bool
	Placeholder string
}

type exampleView struct {
	Name      string
	ResultVar string
	Args      string
}

var pathPlaceholderRe = regexp.MustCompile(`\{([^{}]+)\}`)
var tsIdentRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func buildView(sp *spec.NormalizedSpec, endpoints []spec.EndpointDescriptor, opts Options) *view {
	baseURL := spec.DefaultServer
	if len(sp.Servers) > 0 {
		baseURL = sp.Servers[0]
	}
	v := &view{
		Title:        sp.Title,
		Version:      sp.Version,
		Description:  sp.Description,
		ClassName:    identifier.ClassName(sp.Title),
		BaseURL:      baseURL,
		APIKeyEnv:    opts.APIKeyEnv,
		TypeScript:   opts.OutputFormat == FormatTypeScript,
		UsesAxios:    opts.ClientType == ClientAxios,
		IncludeTests: opts.IncludeTests,
		TypeImports:  []string{"ApiResponse", "ApiError"},
	}
	names := identifier.MethodNames(endpoints)
	for i, ep := range endpoints {
		m := buildMethod(ep, names[i])
		if m.HasParams {
			v.TypeImports = append(v.TypeImports, m.ParamsType)
		}
		v.TypeImports = append(v.TypeImports, m.ResponseType)
		v.Methods = append(v.Methods, m)
	}
	for i, m := range v.Methods {
		if i == 3 {
			break
		}
		v.Examples = append(v.Examples, exampleView{
			Name:      m.Name,
			ResultVar: fmt.Sprintf("res%d", i+1),
			Args:      m.ExampleArgs,
		})
	}
	if len(v.Methods) > 0 {
		v.FirstMethod = v.Methods[0].Name
		v.FirstMethodArgs = v.Methods[0].ExampleArgs
	}
	return v
}

func buildMethod(ep spec.EndpointDescriptor, name string) methodView {
	m := methodView{
		Name:         name,
		Method:       ep.Method,
		MethodLower:  strings.ToLower(ep.Method),
		Path:         ep.Path,
		Summary:      ep.Summary,
		Description:  ep.Description,
		ParamsType:   exportedName(name) + "Params",
		ResponseType: exportedName(name) + "Response",
	}
	switch ep.Method {
	case "POST", "PUT", "PATCH":
		m.SendsBody = true
	}
	for _, p := range ep.Parameters {
		pv := paramView{
			Name:        p.Name,
			Prop:        propName(p.Name),
			Key:         quoteKey(p.Name),
			Access:      paramAccess(p.Name),
			TSType:      MapType(p.Schema),
			Required:    p.Required,
			Placeholder: placeholder(p.Schema, 0),
		}
		m.Params = append(m.Params, pv)
		switch p.Location {
		case spec.InQuery:
			m.QueryParams = append(m.QueryParams, pv)
		case spec.InHeader:
			m.HeaderParams = append(m.HeaderParams, pv)
		case spec.InBody:
			bp := pv
			m.BodyParam = &bp
		case spec.InPath:
			// Substituted into the URL template below.
		}
	}
	m.HasParams = len(m.Params) > 0
	m.HasQuery = len(m.QueryParams) > 0
	m.HasHeaders = len(m.HeaderParams) > 0
	m.PathTemplate = ep.Path
	if m.HasParams {
		m.PathTemplate = pathPlaceholderRe.ReplaceAllStringFunc(ep.Path, func(match string) string {
			inner := match[1 : len(match)-1]
			return "${" + paramAccess(inner) + "}"
		})
	}
	if m.SendsBody {
		switch {
		case m.BodyParam == nil:
			m.BodyData = "{}"
		case m.BodyParam.Required:
			m.BodyData = m.BodyParam.Access
		default:
			m.BodyData = fmt.Sprintf("%s !== undefined ? %s : {}", m.BodyParam.Access, m.BodyParam.Access)
		}
	}
	m.ExampleArgs = exampleArgs(m.Params)
	return m
}

func exportedName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func propName(name string) string {
	if tsIdentRe.MatchString(name) {
		return name
	}
	return quoteKey(name)
}

func quoteKey(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "\\'") + "'"
}

func paramAccess(name string) string {
	if tsIdentRe.MatchString(name) {
		return "params." + name
	}
	return "params[" + quoteKey(name) + "]"
}

// placeholder derives an example argument literal for a schema: strings get
// 'example', numbers a literal number, booleans true, objects a shallow
// literal of their fields, everything else an empty object.
func placeholder(n *spec.SchemaNode, depth int) string {
	if n == nil {
		return "{}"
	}
	switch n.Kind {
	case spec.KindString:
		return "'example'"
	case spec.KindNumber:
		return "42"
	case spec.KindBoolean:
		return "true"
	case spec.KindArray:
		return "[]"
	case spec.KindObject:
		if depth >= 2 || len(n.Order) == 0 {
			return "{}"
		}
		parts := make([]string, 0, len(n.Order))
		for _, k := range n.Order {
			parts = append(parts, propName(k)+": "+placeholder(n.Fields[k], depth+1))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	default:
		return "{}"
	}
}

func exampleArgs(params []paramView) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.Prop+": "+p.Placeholder)
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}
