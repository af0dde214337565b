package executor

import (
	"fmt"
	"sort"
	"strings"
)

// sortedKeys returns the map keys in stable order for error messages.
func sortedKeys(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnresolvedVarError reports a {{name}} placeholder with no bound variable.
// The executor turns this into the step's error result.
type UnresolvedVarError struct {
	// Name is the placeholder identifier.
	Name string
	// Bound lists the variables that were available, for the error message.
	Bound []string
}

// Error implements error.
func (e *UnresolvedVarError) Error() string {
	if len(e.Bound) == 0 {
		return fmt.Sprintf("unresolved template variable %q (no variables bound)", e.Name)
	}
	return fmt.Sprintf("unresolved template variable %q (bound: %s)", e.Name, strings.Join(e.Bound, ", "))
}

// ResolveTemplate substitutes every {{name}} placeholder in the template
// with the bound variable of that name. An unresolved placeholder is an
// error, never passed through to the agent as literal text. Unterminated
// braces are left as-is.
func ResolveTemplate(template string, vars map[string]string) (string, error) {
	var b strings.Builder
	rest := template
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.Index(rest[start+2:], "}}")
		if end < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}

		name := strings.TrimSpace(rest[start+2 : start+2+end])
		value, ok := vars[name]
		if !ok {
			return "", &UnresolvedVarError{Name: name, Bound: sortedKeys(vars)}
		}

		b.WriteString(rest[:start])
		b.WriteString(value)
		rest = rest[start+2+end+2:]
	}
}

// TemplateVars lists the placeholder names a template references, in order
// of first appearance.
func TemplateVars(template string) []string {
	var names []string
	seen := make(map[string]bool)
	rest := template
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			return names
		}
		end := strings.Index(rest[start+2:], "}}")
		if end < 0 {
			return names
		}
		name := strings.TrimSpace(rest[start+2 : start+2+end])
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		rest = rest[start+2+end+2:]
	}
}
