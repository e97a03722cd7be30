// Package template resolves {{name}} placeholders against an execution
// context, recursing structurally into maps and slices.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/redglass/conductor/pkg/models"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Substitute walks value and replaces every {{identifier}} occurrence inside
// string leaves with the stringified context value. Unknown identifiers are
// left as their literal placeholder text. Non-string scalars pass through
// unchanged.
func Substitute(value any, values map[string]any) any {
	switch v := value.(type) {
	case string:
		return SubstituteString(v, values)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = Substitute(item, values)
		}

		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Substitute(item, values)
		}

		return out
	default:
		return value
	}
}

// SubstituteString replaces placeholders in a single string.
func SubstituteString(input string, values map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]

		value, ok := values[name]
		if !ok || value == nil {
			return match
		}

		return Stringify(value)
	})
}

// SubstituteParameters renders an action's parameter map against the
// execution context without mutating the original.
func SubstituteParameters(params map[string]any, executionCtx *models.ExecutionContext) map[string]any {
	if params == nil {
		return map[string]any{}
	}

	rendered, _ := Substitute(params, executionCtx.Values).(map[string]any)

	return rendered
}

// Stringify renders a context value for interpolation. Objects and arrays
// are JSON-encoded; scalars use their natural formatting.
func Stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}
