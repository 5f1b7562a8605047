package mysqlconn

import (
	"testing"
)

func TestEscapeIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple identifier",
			input:    "users",
			expected: "`users`",
		},
		{
			name:     "identifier with backtick",
			input:    "user`s",
			expected: "`user``s`",
		},
		{
			name:     "identifier with multiple backticks",
			input:    "a`b`c",
			expected: "`a``b``c`",
		},
		{
			name:     "empty identifier",
			input:    "",
			expected: "``",
		},
		{
			name:     "SQL injection attempt",
			input:    "users`; DROP TABLE users; --",
			expected: "`users``; DROP TABLE users; --`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := escapeIdentifier(tt.input)
			if result != tt.expected {
				t.Errorf("escapeIdentifier(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
