// Package tsemitter renders a TypeScript or JavaScript API client from a
// normalized specification. Emit is pure text generation; writing artifacts
// to disk is the separate Write step.
package tsemitter

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/restforge/spec2client/internal/spec"
)

// Output formats and client transports accepted by Options.
const (
	FormatTypeScript = "typescript"
	FormatJavaScript = "javascript"

	ClientAxios = "axios"
	ClientFetch = "fetch"
)

// DefaultAPIKeyEnv names the environment variable generated examples read
// the API key from. Keys are never embedded as literals in generated source.
const DefaultAPIKeyEnv = "API_KEY"

// Options configures one emission. The zero value means: TypeScript output,
// axios transport, no examples, no test scaffolding.
type Options struct {
	IncludeExamples bool
	// IncludeTests gates optional test scaffolding (a jest config and test
	// script in the manifest); it changes no client behavior.
	IncludeTests bool
	OutputFormat string // typescript|javascript
	ClientType   string // axios|fetch
	// PackageName overrides the manifest name derived from the API title.
	PackageName string
	// APIKeyEnv is the environment variable referenced by examples and docs.
	APIKeyEnv string
}

func (o Options) withDefaults() (Options, error) {
	switch o.OutputFormat {
	case "":
		o.OutputFormat = FormatTypeScript
	case FormatTypeScript, FormatJavaScript:
	default:
		return o, fmt.Errorf("tsemitter: unsupported output format %q (allowed: typescript, javascript)", o.OutputFormat)
	}
	switch o.ClientType {
	case "":
		o.ClientType = ClientAxios
	case ClientAxios, ClientFetch:
	default:
		return o, fmt.Errorf("tsemitter: unsupported client type %q (allowed: axios, fetch)", o.ClientType)
	}
	if strings.TrimSpace(o.APIKeyEnv) == "" {
		o.APIKeyEnv = DefaultAPIKeyEnv
	}
	return o, nil
}

// ArtifactSet is the bundle of generated text artifacts. It is a single-use
// value object: the emitter keeps no reference after returning it.
type ArtifactSet struct {
	Types    string
	Client   string
	Examples string // empty unless Options.IncludeExamples
	Manifest string
	Readme   string
}

//go:embed templates/*.gotmpl
var templatesFS embed.FS

// Emit renders the artifact set for a normalized spec and its extracted
// endpoints. Missing optional spec fields never fail emission; the only
// fatal inputs are a nil spec and invalid option values.
func Emit(ctx context.Context, sp *spec.NormalizedSpec, endpoints []spec.EndpointDescriptor, opts Options) (*ArtifactSet, error) {
	_ = ctx
	if sp == nil {
		return nil, fmt.Errorf("tsemitter: nil spec")
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	v := buildView(sp, endpoints, opts)
	set := &ArtifactSet{}

	if set.Types, err = render("types.ts.gotmpl", v); err != nil {
		return nil, err
	}
	clientTmpl := "client_axios.ts.gotmpl"
	if opts.ClientType == ClientFetch {
		clientTmpl = "client_fetch.ts.gotmpl"
	}
	if set.Client, err = render(clientTmpl, v); err != nil {
		return nil, err
	}
	if opts.IncludeExamples {
		if set.Examples, err = render("examples.ts.gotmpl", v); err != nil {
			return nil, err
		}
	}
	if set.Manifest, err = renderManifest(v, opts); err != nil {
		return nil, err
	}
	if set.Readme, err = render("readme.md.gotmpl", v); err != nil {
		return nil, err
	}
	return set, nil
}

func render(name string, data any) (string, error) {
	t, err := template.New(name).Funcs(sprig.TxtFuncMap()).ParseFS(templatesFS, "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
