package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Value
	}{
		{name: "plain string", raw: "hello", want: StringValue("hello")},
		{name: "integer", raw: "42", want: NumberValue(42)},
		{name: "float", raw: "3.5", want: NumberValue(3.5)},
		{name: "negative", raw: "-7", want: NumberValue(-7)},
		{name: "zero", raw: "0", want: NumberValue(0)},
		{name: "decimal under one", raw: "0.5", want: NumberValue(0.5)},
		{name: "zero-padded code stays string", raw: "007", want: StringValue("007")},
		{name: "true any case", raw: "TRUE", want: BoolValue(true)},
		{name: "false", raw: "false", want: BoolValue(false)},
		{name: "empty is null", raw: "", want: NullValue()},
		{name: "whitespace is null", raw: "   ", want: NullValue()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseValue(tt.raw))
		})
	}
}

func TestParseValue_Dates(t *testing.T) {
	for _, raw := range []string{"2024-01-05", "2024/01/05", "01/05/2024", "2024-01-05T10:30:00Z"} {
		v := ParseValue(raw)
		assert.Equal(t, KindDate, v.Kind, "raw %q", raw)
	}
}

func TestValue_Normalized(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{name: "string folds case and trims", v: StringValue("  West "), want: "west"},
		{name: "number shortest form", v: NumberValue(42), want: "42"},
		{name: "fractional number", v: NumberValue(42.5), want: "42.5"},
		{name: "boolean", v: BoolValue(true), want: "true"},
		{name: "midnight date renders date-only", v: DateValue(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)), want: "2024-01-05"},
		{name: "timestamped date keeps time", v: DateValue(time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)), want: "2024-01-05T10:30:00Z"},
		{name: "null is empty", v: NullValue(), want: ""},
		{name: "zero value is null", v: Value{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Normalized())
		})
	}
}

func TestValue_NormalizedCanonicalAcrossForms(t *testing.T) {
	// "7", "7.0" and the number 7 all compare equal after normalization.
	assert.Equal(t, ParseValue("7").Normalized(), ParseValue("7.0").Normalized())
	assert.Equal(t, NumberValue(7).Normalized(), ParseValue("7").Normalized())
}

func TestValue_NormalizedEqualInstantsAcrossOffsets(t *testing.T) {
	// The same instant normalizes identically no matter which offset it was
	// parsed with; otherwise equal date keys would fail to join.
	plusFive := DateValue(time.Date(2026, 1, 2, 0, 0, 0, 0, time.FixedZone("", 5*3600)))
	inUTC := DateValue(time.Date(2026, 1, 1, 19, 0, 0, 0, time.UTC))
	assert.Equal(t, inUTC.Normalized(), plusFive.Normalized())

	// Midnight is judged after converting to UTC, so an offset-local
	// midnight that is not UTC midnight keeps its time of day.
	assert.Equal(t, "2026-01-01T19:00:00Z", plusFive.Normalized())

	// UTC midnight still renders date-only, even when expressed in another
	// zone.
	shifted := DateValue(time.Date(2026, 1, 2, 5, 0, 0, 0, time.FixedZone("", 5*3600)))
	assert.Equal(t, "2026-01-02", shifted.Normalized())
}

func TestValue_JSONRoundTrip(t *testing.T) {
	row := Row{
		"name":   StringValue("Acme"),
		"amount": NumberValue(100.5),
		"active": BoolValue(true),
		"note":   NullValue(),
	}

	data, err := json.Marshal(row)
	require.NoError(t, err)

	var decoded Row
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, StringValue("Acme"), decoded["name"])
	assert.Equal(t, NumberValue(100.5), decoded["amount"])
	assert.Equal(t, BoolValue(true), decoded["active"])
	assert.True(t, decoded["note"].IsNull())
}

func TestValue_UnmarshalSniffsStrings(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`"2024-01-05"`), &v))
	assert.Equal(t, KindDate, v.Kind)

	require.NoError(t, json.Unmarshal([]byte(`"42"`), &v))
	assert.Equal(t, NumberValue(42), v)
}
