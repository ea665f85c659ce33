package datasource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuseline-io/fuseline-engine/pkg/apperrors"
	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

func TestValueFromAny(t *testing.T) {
	ts := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		want models.Value
	}{
		{name: "nil", in: nil, want: models.NullValue()},
		{name: "string", in: "hello", want: models.StringValue("hello")},
		{name: "numeric string is sniffed", in: "42", want: models.NumberValue(42)},
		{name: "bytes", in: []byte("west"), want: models.StringValue("west")},
		{name: "bool", in: true, want: models.BoolValue(true)},
		{name: "int64", in: int64(7), want: models.NumberValue(7)},
		{name: "int32", in: int32(7), want: models.NumberValue(7)},
		{name: "float64", in: 2.5, want: models.NumberValue(2.5)},
		{name: "time", in: ts, want: models.DateValue(ts)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValueFromAny(tt.in))
		})
	}
}

func TestRowsToDataset(t *testing.T) {
	ds := RowsToDataset("orders", []string{"id", "amount"}, [][]any{
		{"o1", int64(100)},
		{"o2"},
	})

	assert.Equal(t, "orders", ds.Name)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, models.NumberValue(100), ds.Rows[0]["amount"])
	// Short rows pad with nulls.
	assert.True(t, ds.Rows[1]["amount"].IsNull())
}

func TestRegistry(t *testing.T) {
	Register(AdapterRegistration{
		Info: AdapterInfo{Type: "test-adapter", DisplayName: "Test"},
		Factory: func(ctx context.Context, config map[string]any) (TableLoader, error) {
			return nil, nil
		},
	})

	factory, err := GetLoaderFactory("test-adapter")
	require.NoError(t, err)
	assert.NotNil(t, factory)

	_, err = GetLoaderFactory("oracle")
	assert.ErrorIs(t, err, apperrors.ErrAdapterNotRegistered)

	var found bool
	for _, info := range RegisteredAdapters() {
		if info.Type == "test-adapter" {
			found = true
		}
	}
	assert.True(t, found)
}
