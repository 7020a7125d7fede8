package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Render resolves {{token}} placeholders in template against the context.
// Each token is replaced by the stringified context value, or the empty
// string when the key is absent or nil. Non-token text passes through
// unchanged. An empty template or a nil context returns the template
// unchanged. Render is pure and idempotent: a string with no remaining
// tokens renders to itself.
func Render(template string, ctx map[string]any) string {
	if template == "" || ctx == nil {
		return template
	}

	var result strings.Builder
	result.Grow(len(template))

	i := 0
	for i < len(template) {
		idx := strings.Index(template[i:], "{{")
		if idx == -1 {
			result.WriteString(template[i:])
			break
		}

		// Write everything before the marker.
		result.WriteString(template[i : i+idx])
		start := i + idx + 2

		end := strings.Index(template[start:], "}}")
		if end == -1 {
			// Unclosed token: pass the remainder through unchanged.
			result.WriteString(template[i+idx:])
			break
		}
		end += start

		key := strings.TrimSpace(template[start:end])
		if val, ok := ctx[key]; ok {
			result.WriteString(Stringify(val))
		}
		// Absent key renders as "".

		i = end + 2
	}

	return result.String()
}

// Stringify converts a context value to its string form for templating.
// Nil becomes the empty string; composite values are JSON-encoded.
func Stringify(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return fmt.Sprintf("%v", v)
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case json.RawMessage:
		return string(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
