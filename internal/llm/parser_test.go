package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanMarkdownWrapper(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "no wrapper",
			content: `{"a": 1}`,
			want:    `{"a": 1}`,
		},
		{
			name:    "json fence",
			content: "```json\n{\"a\": 1}\n```",
			want:    `{"a": 1}`,
		},
		{
			name:    "bare fence",
			content: "```\n{\"a\": 1}\n```",
			want:    `{"a": 1}`,
		},
		{
			name:    "surrounding whitespace",
			content: "  \n```json\n{\"a\": 1}\n```\n  ",
			want:    `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdownWrapper(tt.content))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bare object",
			content: `{"a": 1}`,
			want:    `{"a": 1}`,
		},
		{
			name:    "leading commentary",
			content: `Sure, here is the result: {"a": 1}`,
			want:    `{"a": 1}`,
		},
		{
			name:    "trailing commentary",
			content: `{"a": 1} Hope that helps!`,
			want:    `{"a": 1}`,
		},
		{
			name:    "nested objects",
			content: `{"a": {"b": 2}}`,
			want:    `{"a": {"b": 2}}`,
		},
		{
			name:    "braces inside strings",
			content: `{"a": "value with } brace"}`,
			want:    `{"a": "value with } brace"}`,
		},
		{
			name:    "no object at all",
			content: `no json here`,
			want:    `no json here`,
		},
		{
			name:    "unbalanced object",
			content: `{"a": 1`,
			want:    `{"a": 1`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSONObject(tt.content))
		})
	}
}
