package template

import (
	"testing"

	"github.com/redglass/conductor/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestSubstituteString(t *testing.T) {
	values := map[string]any{
		"result": "hello",
		"count":  float64(3),
		"user":   map[string]any{"name": "ana"},
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "known placeholder",
			input:    "Say {{result}}",
			expected: "Say hello",
		},
		{
			name:     "missing placeholder left literal",
			input:    "Say {{result}} and {{missing}}",
			expected: "Say hello and {{missing}}",
		},
		{
			name:     "numeric value",
			input:    "count={{count}}",
			expected: "count=3",
		},
		{
			name:     "object value json encoded",
			input:    "user={{user}}",
			expected: `user={"name":"ana"}`,
		},
		{
			name:     "whitespace inside braces",
			input:    "Say {{ result }}",
			expected: "Say hello",
		},
		{
			name:     "no placeholders",
			input:    "plain text",
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SubstituteString(tt.input, values))
		})
	}
}

func TestSubstitute_Structural(t *testing.T) {
	values := map[string]any{"city": "Lisbon"}

	input := map[string]any{
		"url": "https://api.example.com/weather?q={{city}}",
		"headers": map[string]any{
			"X-City": "{{city}}",
		},
		"tags":  []any{"{{city}}", 42},
		"limit": 10,
	}

	out, ok := Substitute(input, values).(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "https://api.example.com/weather?q=Lisbon", out["url"])
	assert.Equal(t, "Lisbon", out["headers"].(map[string]any)["X-City"])
	assert.Equal(t, "Lisbon", out["tags"].([]any)[0])
	assert.Equal(t, 42, out["tags"].([]any)[1])
	assert.Equal(t, 10, out["limit"])

	// Original input is untouched.
	assert.Equal(t, "{{city}}", input["headers"].(map[string]any)["X-City"])
}

func TestSubstituteParameters(t *testing.T) {
	executionCtx := models.NewExecutionContext("exec-1", "wf-1", map[string]any{
		"result": "42",
	})

	rendered := SubstituteParameters(map[string]any{
		"prompt": "the answer is {{result}}",
	}, executionCtx)

	assert.Equal(t, "the answer is 42", rendered["prompt"])

	assert.Empty(t, SubstituteParameters(nil, executionCtx))
}
