package tools

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
)

func TestTrimString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no whitespace", "workspace", "workspace"},
		{"leading and trailing", "  orders  ", "orders"},
		{"tabs and newlines", "\t customers \n", "customers"},
		{"only whitespace", "   ", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, trimString(tt.input))
		})
	}
}

func TestGetOptionalString(t *testing.T) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{
		"join_type": "inner",
		"limit":     float64(10),
	}

	assert.Equal(t, "inner", getOptionalString(req, "join_type"))
	assert.Equal(t, "", getOptionalString(req, "missing"))
	// non-string values are treated as absent
	assert.Equal(t, "", getOptionalString(req, "limit"))
}

func TestGetOptionalString_NoArguments(t *testing.T) {
	req := mcp.CallToolRequest{}
	assert.Equal(t, "", getOptionalString(req, "join_type"))
}
