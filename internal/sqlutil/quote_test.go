package sqlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"tool_invocations", "`tool_invocations`"},
		{"select", "`select`"},
		{"first name", "`first name`"},
		{"audit`log", "`audit``log`"},
		{"", "``"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteIdentifier(tt.input))
		})
	}
}

func TestQuoteIdentifiers(t *testing.T) {
	assert.Equal(t, []string{"`id`", "`created_at`"}, QuoteIdentifiers([]string{"id", "created_at"}))
	assert.Empty(t, QuoteIdentifiers(nil))
}

func TestValidIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"plain", "tool_invocations", true},
		{"leading underscore", "_audit", true},
		{"digits after first", "audit2026", true},
		{"leading digit", "2026audit", false},
		{"empty", "", false},
		{"dash", "tool-invocations", false},
		{"qualified", "db.tool_invocations", false},
		{"backtick", "audit`log", false},
		{"max length", "a" + strings.Repeat("b", 63), true},
		{"too long", "a" + strings.Repeat("b", 64), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidIdentifier(tt.input))
		})
	}
}
