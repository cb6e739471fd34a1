package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json fence",
			input:    "```json\n{\"a\": 1}\n```",
			expected: "{\"a\": 1}",
		},
		{
			name:     "bare fence",
			input:    "```\n[1, 2]\n```",
			expected: "[1, 2]",
		},
		{
			name:     "no fence",
			input:    "{\"a\": 1}",
			expected: "{\"a\": 1}",
		},
		{
			name:     "surrounding whitespace",
			input:    "  ```json\n{}\n```  ",
			expected: "{}",
		},
		{
			name:     "interior backticks preserved",
			input:    "{\"code\": \"use ``` for blocks\"}",
			expected: "{\"code\": \"use ``` for blocks\"}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripFences(tt.input))
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("valid object", func(t *testing.T) {
		var out map[string]int
		raw, err := Decode("```json\n{\"n\": 3}\n```", &out)
		require.NoError(t, err)
		assert.Equal(t, "{\"n\": 3}", raw)
		assert.Equal(t, 3, out["n"])
	})

	t.Run("invalid json returns raw text", func(t *testing.T) {
		var out map[string]int
		raw, err := Decode("```json\nnot json at all\n```", &out)
		require.Error(t, err)
		assert.Equal(t, "not json at all", raw)
	})
}
