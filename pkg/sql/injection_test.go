package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckParameterForInjection(t *testing.T) {
	tests := []struct {
		name            string
		paramName       string
		value           any
		expectInjection bool
	}{
		{
			name:      "clean id",
			paramName: "customer_id",
			value:     "c-12345",
		},
		{
			name:      "clean email",
			paramName: "email",
			value:     "user@example.com",
		},
		{
			name:      "clean date string",
			paramName: "order_date",
			value:     "2024-01-15",
		},
		{
			name:      "value with apostrophe",
			paramName: "name",
			value:     "O'Brien",
		},
		{
			name:            "classic tautology",
			paramName:       "customer_id",
			value:           "c1' OR '1'='1",
			expectInjection: true,
		},
		{
			name:            "stacked statement",
			paramName:       "region",
			value:           "west'; DROP TABLE orders--",
			expectInjection: true,
		},
		{
			name:            "union select",
			paramName:       "status",
			value:           "x' UNION SELECT password FROM users--",
			expectInjection: true,
		},
		{
			name:      "non-string passes",
			paramName: "limit",
			value:     100,
		},
		{
			name:      "bool passes",
			paramName: "active",
			value:     true,
		},
		{
			name:      "nil passes",
			paramName: "filter",
			value:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckParameterForInjection(tt.paramName, tt.value)
			if !tt.expectInjection {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.True(t, result.IsSQLi)
			assert.NotEmpty(t, result.Fingerprint)
			assert.Equal(t, tt.paramName, result.ParamName)
			assert.Equal(t, tt.value, result.ParamValue)
		})
	}
}
