// Package identifier derives stable class and method names from API titles
// and endpoint descriptors. Every derived name matches the target language's
// identifier grammar no matter how many symbols or emoji the source carried.
package identifier

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/restforge/spec2client/internal/spec"
)

// ClassName derives a class identifier from an API title: fold accents, strip
// everything outside [A-Za-z0-9 ], split on whitespace, capitalize each word,
// concatenate. A result that is empty or starts with a digit gets an "Api"
// prefix so the identifier stays valid.
func ClassName(title string) string {
	cleaned := stripToAlnumSpace(Fold(title))
	var b strings.Builder
	for _, word := range strings.Fields(cleaned) {
		b.WriteString(capitalize(word))
	}
	out := b.String()
	if out == "" || !isLetter(rune(out[0])) {
		out = "Api" + out
	}
	return out
}

// MethodName derives the client method name for one endpoint: the lowercase
// HTTP method followed by the capitalized static path segments. Placeholder
// segments ({id}) are excluded. A path with no static segments falls back to
// the generic "Api" suffix, so GET / becomes getApi.
func MethodName(ep spec.EndpointDescriptor) string {
	var b strings.Builder
	for _, seg := range strings.Split(ep.Path, "/") {
		if seg == "" || strings.HasPrefix(seg, "{") {
			continue
		}
		seg = stripNonAlnum(Fold(seg))
		if seg == "" {
			continue
		}
		b.WriteString(capitalize(seg))
	}
	suffix := b.String()
	if suffix == "" {
		suffix = "Api"
	}
	return strings.ToLower(ep.Method) + suffix
}

// MethodNames derives one name per endpoint, disambiguating collisions with a
// numeric suffix: the first occurrence keeps the plain name, later ones get
// the lowest suffix starting at 2 that is not already assigned. A suffixed
// name can itself clash with an organically derived one (getUsers2 from
// /users2), so assignment checks taken names, not just base-name counts.
// Output order matches the input order, so the result is deterministic.
func MethodNames(endpoints []spec.EndpointDescriptor) []string {
	taken := make(map[string]bool, len(endpoints))
	out := make([]string, len(endpoints))
	for i, ep := range endpoints {
		base := MethodName(ep)
		name := base
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s%d", base, n)
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

// Fold converts accented characters to their base forms so that "café"
// contributes "cafe" instead of dropping the letter.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func stripToAlnumSpace(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isAlnum(r) || r == ' ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isAlnum(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func isAlnum(r rune) bool {
	return isLetter(r) || (r >= '0' && r <= '9')
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
