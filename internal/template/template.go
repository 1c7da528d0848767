// Package template renders {{...}} placeholders in strings against a
// value namespace. It is the default render hook of the engine; an
// external Jinja2-compatible engine can replace it through the
// resolver's RenderFunc.
package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sakura-stack/sakura-tree/internal/value"
)

// Sentinel is the literal that marks a declared-but-uninitialized
// value. It must round-trip through rendering unchanged.
const Sentinel = "{{}}"

// varPattern matches {{variable.path}} placeholders.
var varPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// maxDepth bounds recursive substitution of values that themselves
// contain placeholders.
const maxDepth = 10

// Render substitutes every {{path}} placeholder in input with the
// stringified value found in ns. Empty braces ({{}}) pass through
// unchanged. An unresolved path is an error.
func Render(input string, ns value.Namespace) (string, error) {
	var lastErr error

	result := input
	for i := 0; i < maxDepth; i++ {
		next := varPattern.ReplaceAllStringFunc(result, func(match string) string {
			path := strings.TrimSpace(match[2 : len(match)-2])
			if path == "" {
				return match
			}

			v, err := resolve(path, ns)
			if err != nil {
				lastErr = err
				return match
			}
			return v.String()
		})

		if next == result {
			break
		}
		result = next
	}

	if lastErr != nil {
		return "", lastErr
	}
	return result, nil
}

// HasPlaceholder reports whether s still contains a non-empty
// placeholder after rendering.
func HasPlaceholder(s string) bool {
	for _, m := range varPattern.FindAllString(s, -1) {
		if m != Sentinel {
			return true
		}
	}
	return false
}

// resolve walks a dotted path through the namespace.
func resolve(path string, ns value.Namespace) (value.Value, error) {
	parts := strings.Split(path, ".")

	v, ok := ns[parts[0]]
	if !ok {
		return value.Null(), fmt.Errorf("undefined variable: %s", parts[0])
	}

	for _, part := range parts[1:] {
		entry, ok := v.Entry(part)
		if !ok {
			return value.Null(), fmt.Errorf("field %q not found in %q", part, path)
		}
		v = entry
	}
	return v, nil
}
