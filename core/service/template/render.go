// Package template implements the notification template engine: a
// sandboxed {{a.b.c}} substitution renderer over an allow-listed
// variable set, with per-(channel, event) overrides and embedded
// defaults.
package template

import (
	"fmt"
	"strings"
)

// Context is the variable source for one render. Nested maps resolve
// dotted paths; leaves are formatted with formatValue.
type Context map[string]any

// lookup resolves a dotted path against nested maps.
func (c Context) lookup(path string) (string, bool) {
	parts := strings.Split(path, ".")
	var current any = map[string]any(c)
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return "", false
		}
		current, ok = m[part]
		if !ok {
			return "", false
		}
	}
	if current == nil {
		return "", false
	}
	return formatValue(current), true
}

// formatValue renders a context leaf. Lists join with commas; anything
// else goes through fmt.Sprint.
func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// Render substitutes every placeholder in body from the context.
// Rendering is pure: unknown or missing variables become the empty
// string, never an error, so a stale template cannot block a
// notification.
func Render(body string, ctx Context) string {
	return varPattern.ReplaceAllStringFunc(body, func(match string) string {
		sub := varPattern.FindStringSubmatch(match)
		if len(sub) < 2 {
			return ""
		}
		value, _ := ctx.lookup(sub[1])
		return value
	})
}

// Group merges a sub-context under a top-level key, creating the group
// map when absent.
func (c Context) Group(key string, values map[string]any) Context {
	existing, ok := c[key].(map[string]any)
	if !ok {
		existing = map[string]any{}
		c[key] = existing
	}
	for k, v := range values {
		existing[k] = v
	}
	return c
}
