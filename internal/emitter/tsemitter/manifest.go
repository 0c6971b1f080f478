package tsemitter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/restforge/spec2client/internal/identifier"
)

// manifest mirrors the package.json layout. Maps marshal with sorted keys,
// so the rendered manifest is deterministic.
type manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Main            string            `json:"main"`
	Types           string            `json:"types,omitempty"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
}

func renderManifest(v *view, opts Options) (string, error) {
	name := strings.TrimSpace(opts.PackageName)
	if name == "" {
		name = PackageName(v.Title)
	}
	m := manifest{
		Name:        name,
		Version:     "1.0.0",
		Description: "Generated API client for " + v.Title,
		Scripts:     map[string]string{},
	}
	if v.TypeScript {
		m.Main = "dist/client.js"
		m.Types = "dist/client.d.ts"
		m.Scripts["build"] = "tsc"
		m.Scripts["type-check"] = "tsc --noEmit"
		m.DevDependencies = map[string]string{
			"typescript":  "^5.3.3",
			"@types/node": "^20.11.0",
		}
	} else {
		m.Main = "client.js"
		m.Scripts["build"] = "node --check client.js"
	}
	if opts.ClientType == ClientAxios {
		m.Dependencies = map[string]string{"axios": "^1.6.0"}
	}
	if opts.IncludeTests {
		m.Scripts["test"] = "jest"
		if m.DevDependencies == nil {
			m.DevDependencies = map[string]string{}
		}
		m.DevDependencies["jest"] = "^29.7.0"
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	return string(b) + "\n", nil
}

// PackageName derives the manifest name from an API title: sanitized,
// lowercase, hyphenated.
func PackageName(title string) string {
	t := strings.ToLower(identifier.Fold(title))
	var b strings.Builder
	lastHyphen := true
	for _, r := range t {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "api-client"
	}
	return out
}
