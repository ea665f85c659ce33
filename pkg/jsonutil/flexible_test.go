package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

func TestFlexibleValue(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  models.Value
	}{
		{
			name:  "typed number",
			input: json.RawMessage(`42`),
			want:  models.NumberValue(42),
		},
		{
			name:  "typed float",
			input: json.RawMessage(`3.14`),
			want:  models.NumberValue(3.14),
		},
		{
			name:  "typed boolean",
			input: json.RawMessage(`true`),
			want:  models.BoolValue(true),
		},
		{
			name:  "plain string",
			input: json.RawMessage(`"hello"`),
			want:  models.StringValue("hello"),
		},
		{
			name:  "numeric string goes through sniffing",
			input: json.RawMessage(`"42"`),
			want:  models.NumberValue(42),
		},
		{
			name:  "boolean string goes through sniffing",
			input: json.RawMessage(`"TRUE"`),
			want:  models.BoolValue(true),
		},
		{
			name:  "zero-padded code stays string",
			input: json.RawMessage(`"007"`),
			want:  models.StringValue("007"),
		},
		{
			name:  "null literal",
			input: json.RawMessage(`null`),
			want:  models.NullValue(),
		},
		{
			name:  "empty raw message",
			input: json.RawMessage{},
			want:  models.NullValue(),
		},
		{
			name:  "empty string is null",
			input: json.RawMessage(`""`),
			want:  models.NullValue(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FlexibleValue(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlexibleValue_DateString(t *testing.T) {
	got, err := FlexibleValue(json.RawMessage(`"2024-01-05"`))
	require.NoError(t, err)
	assert.Equal(t, models.KindDate, got.Kind)
}

func TestFlexibleValue_RejectsComposites(t *testing.T) {
	_, err := FlexibleValue(json.RawMessage(`{"key":"value"}`))
	assert.Error(t, err)

	_, err = FlexibleValue(json.RawMessage(`[1,2,3]`))
	assert.Error(t, err)
}

func TestFlexibleRow(t *testing.T) {
	row, err := FlexibleRow(map[string]json.RawMessage{
		"order_id": json.RawMessage(`"o1"`),
		"amount":   json.RawMessage(`100.5`),
		"voided":   json.RawMessage(`false`),
		"note":     json.RawMessage(`null`),
	})
	require.NoError(t, err)
	require.Len(t, row, 4)

	assert.Equal(t, models.StringValue("o1"), row["order_id"])
	assert.Equal(t, models.NumberValue(100.5), row["amount"])
	assert.Equal(t, models.BoolValue(false), row["voided"])
	assert.True(t, row["note"].IsNull())
}

func TestFlexibleRow_BadCellNamesColumn(t *testing.T) {
	_, err := FlexibleRow(map[string]json.RawMessage{
		"payload": json.RawMessage(`{"nested":1}`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payload")
}
