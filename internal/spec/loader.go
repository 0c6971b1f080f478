package spec

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// ErrorCode categorizes loader and probe errors.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	NetworkError    ErrorCode = "NetworkError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	ConversionError ErrorCode = "ConversionError"
)

// SpecError is a structured error with an optional location.
type SpecError struct {
	Code     ErrorCode
	Message  string
	Location string // file path or URL
	// JSONPointer narrows the failure to a position inside the document when
	// one is known.
	JSONPointer string
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

// Settings configures the loader and probe.
type Settings struct {
	// HTTPTimeout bounds each HTTP request. There is no retry: a candidate URL
	// gets exactly one attempt.
	HTTPTimeout time.Duration
	// AllowFileRefs permits resolving file-based external references. Enabled
	// automatically when the root input is a local file.
	AllowFileRefs bool
	Logger        Logger
}

// DefaultSettings returns the recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		Logger:      NopLogger,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithAllowFileRefs(allow bool) Option    { return func(s *Settings) { s.AllowFileRefs = allow } }
func WithLogger(l Logger) Option {
	return func(s *Settings) {
		if l != nil {
			s.Logger = l
		}
	}
}

// Load reads and validates an OpenAPI document from a filesystem path or an
// http/https URL. Swagger v2.0 input is converted to v3 via openapi2conv.
// Validation is permissive: defects a best-effort generation can survive
// (unresolved refs) are logged and ignored.
func Load(ctx context.Context, input string, opts ...Option) (*openapi3.T, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &SpecError{Code: InputError, Message: "spec: input is empty"}
	}
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	u, uerr := url.Parse(input)
	if uerr == nil && u.Scheme != "" && u.Host != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return loadURL(ctx, input, settings)
		case "file":
			return nil, &SpecError{Code: InputError, Message: "spec: file:// URLs are not allowed", Location: input}
		default:
			return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", u.Scheme), Location: input}
		}
	}
	return loadFile(ctx, input, settings)
}

func loadURL(ctx context.Context, input string, settings Settings) (*openapi3.T, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	raw, err := fetch(ctx, client, input)
	if err != nil {
		return nil, &SpecError{Code: NetworkError, Message: fmt.Sprintf("spec: fetch %s: %v", input, err), Location: input, Cause: err}
	}
	return parseRaw(ctx, raw, input, settings)
}

func loadFile(ctx context.Context, input string, settings Settings) (*openapi3.T, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: resolve path: %v", err), Location: input, Cause: err}
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	settings.AllowFileRefs = true
	return parseRaw(ctx, raw, abs, settings)
}

func parseRaw(ctx context.Context, raw []byte, location string, settings Settings) (*openapi3.T, error) {
	version, err := detectSpecVersion(raw)
	if err != nil {
		return nil, &SpecError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
	}

	var doc *openapi3.T
	switch version {
	case 3:
		loader := newLoader(settings)
		doc, err = loader.LoadFromData(raw)
		if err != nil {
			return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("spec: parse %s: %v", location, err), Location: location, Cause: err}
		}
	case 2:
		doc, err = convertV2ToV3(raw)
		if err != nil {
			return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("spec: convert v2 to v3: %v", err), Location: location, Cause: err}
		}
	default:
		return nil, &SpecError{Code: ParseError, Message: "spec: unknown or unsupported OpenAPI/Swagger version", Location: location}
	}

	if err := doc.Validate(ctx); err != nil {
		if !tolerableValidation(err) {
			return nil, &SpecError{Code: ValidationError, Message: err.Error(), Location: location, Cause: err}
		}
		settings.Logger.Warn("proceeding despite validation errors", "location", location, "err", err)
	}
	return doc, nil
}

func newLoader(settings Settings) *openapi3.Loader {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	client := &http.Client{Timeout: settings.HTTPTimeout}
	loader.ReadFromURIFunc = func(l *openapi3.Loader, uri *url.URL) ([]byte, error) {
		switch strings.ToLower(uri.Scheme) {
		case "", "file":
			if !settings.AllowFileRefs {
				return nil, fmt.Errorf("blocked file ref: %s", uri.String())
			}
			path := uri.Path
			if path == "" {
				path = uri.Opaque
			}
			return os.ReadFile(path)
		case "http", "https":
			return fetch(context.Background(), client, uri.String())
		default:
			return nil, fmt.Errorf("unsupported ref scheme: %s", uri.Scheme)
		}
	}
	return loader
}

// fetch performs a single GET with a JSON-leaning Accept header. No retries.
func fetch(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return io.ReadAll(resp.Body)
}

// detectSpecVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else an error.
func detectSpecVersion(data []byte) (int, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return 0, fmt.Errorf("parse spec: %w", err)
	}
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return 3, nil
		}
	}
	if v, ok := root["swagger"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "2.") {
			return 2, nil
		}
	}
	return 0, fmt.Errorf("spec: missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')")
}

func convertV2ToV3(data []byte) (*openapi3.T, error) {
	var v2 openapi2.T
	if err := yaml.Unmarshal(data, &v2); err != nil {
		return nil, err
	}
	return openapi2conv.ToV3(&v2)
}

// tolerableValidation reports whether a best-effort build can proceed despite
// the validation error.
func tolerableValidation(err error) bool {
	if err == nil {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unresolved ref")
}
