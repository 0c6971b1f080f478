package spec

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/valyala/fastjson"
	"gopkg.in/yaml.v3"
)

// discoveryPaths are the conventional spec locations tried after the input
// URL itself. Order matters: candidates are attempted sequentially and the
// first OpenAPI-shaped response wins.
var discoveryPaths = []string{
	"/openapi.json",
	"/swagger.json",
	"/openapi.yaml",
	"/api-docs",
}

// ProbeResult is the outcome of a successful probe.
type ProbeResult struct {
	URL  string
	Body []byte
}

// Probe fetches an OpenAPI document from a base URL by trying the URL itself
// and then the conventional discovery paths. Each candidate gets a single
// bounded-timeout request with Accept: application/json; failures move on to
// the next candidate. Exhaustion returns a NetworkError; callers are expected
// to degrade to a synthetic spec rather than fail generation.
func Probe(ctx context.Context, rawURL string, opts ...Option) (*ProbeResult, error) {
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: probe needs an absolute URL, got %q", rawURL), Location: rawURL}
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", u.Scheme), Location: rawURL}
	}

	base := scheme + "://" + u.Host
	candidates := []string{rawURL}
	for _, p := range discoveryPaths {
		if c := base + p; c != rawURL {
			candidates = append(candidates, c)
		}
	}

	client := &http.Client{Timeout: settings.HTTPTimeout}
	for _, cand := range candidates {
		body, err := fetch(ctx, client, cand)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			settings.Logger.Debug("probe candidate failed", "url", cand, "err", err)
			continue
		}
		if !looksLikeOpenAPI(body) {
			settings.Logger.Debug("probe candidate is not an OpenAPI document", "url", cand)
			continue
		}
		settings.Logger.Info("probe found spec", "url", cand, "bytes", len(body))
		return &ProbeResult{URL: cand, Body: body}, nil
	}
	return nil, &SpecError{
		Code:     NetworkError,
		Message:  fmt.Sprintf("spec: no OpenAPI document found at %s (tried %d candidates)", rawURL, len(candidates)),
		Location: rawURL,
	}
}

// looksLikeOpenAPI sniffs a payload without committing to a full parse. JSON
// payloads are checked with fastjson; anything else falls back to a YAML
// unmarshal of the top-level keys.
func looksLikeOpenAPI(body []byte) bool {
	if v, err := fastjson.ParseBytes(body); err == nil {
		if v.Type() != fastjson.TypeObject {
			return false
		}
		return v.Exists("openapi") || v.Exists("swagger") || v.Exists("paths")
	}
	var root map[string]any
	if err := yaml.Unmarshal(body, &root); err != nil || root == nil {
		return false
	}
	for _, key := range []string{"openapi", "swagger", "paths"} {
		if _, ok := root[key]; ok {
			return true
		}
	}
	return false
}
