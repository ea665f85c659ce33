package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// ValueKind discriminates the payload of a Value.
type ValueKind string

const (
	KindNull    ValueKind = "null"
	KindString  ValueKind = "string"
	KindNumber  ValueKind = "number"
	KindBoolean ValueKind = "boolean"
	KindDate    ValueKind = "date"
)

// Value is a single cell in a dataset row. The Kind tag selects which payload
// field is meaningful. The zero Value is null.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	Time time.Time
}

// NullValue returns the null cell value.
func NullValue() Value {
	return Value{Kind: KindNull}
}

// StringValue wraps a raw string without any type sniffing.
func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NumberValue wraps a float64.
func NumberValue(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

// BoolValue wraps a boolean.
func BoolValue(b bool) Value {
	return Value{Kind: KindBoolean, Bool: b}
}

// DateValue wraps a timestamp.
func DateValue(t time.Time) Value {
	return Value{Kind: KindDate, Time: t}
}

// dateLayouts are tried in order when sniffing date values from strings.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// ParseValue sniffs a raw string into a typed Value. Empty (after trimming)
// means null. Booleans are the literals true/false in any case. Numbers with
// leading zeros ("007", "0042") stay strings: they are almost always codes,
// and coercing them would corrupt join keys.
func ParseValue(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return NullValue()
	}

	switch strings.ToLower(trimmed) {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}

	if !hasLeadingZero(trimmed) {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return NumberValue(f)
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return DateValue(t)
		}
	}

	return StringValue(raw)
}

// hasLeadingZero reports whether s looks like a zero-padded code ("007").
// "0", "0.5" and their signed forms are legitimate numbers.
func hasLeadingZero(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && s[1] != '.'
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Normalized returns the canonical string form used for all value comparison:
// fingerprint value sets, overlap counting, validation and join key lookup.
// Strings are trimmed and case-folded, numbers rendered in shortest form
// ("42", not "42.000"), dates rendered date-only when they carry no time of
// day. Null normalizes to the empty string, which no non-null value produces
// for a non-empty cell.
func (v Value) Normalized() string {
	switch v.Kind {
	case KindString:
		return cases.Fold().String(strings.TrimSpace(v.Str))
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindDate:
		// Equal instants must produce equal keys regardless of the offset
		// they were parsed with, so the midnight check runs in UTC.
		utc := v.Time.UTC()
		if utc.Hour() == 0 && utc.Minute() == 0 && utc.Second() == 0 && utc.Nanosecond() == 0 {
			return utc.Format("2006-01-02")
		}
		return utc.Format(time.RFC3339)
	default:
		return ""
	}
}

// String renders the value for display and explanations.
func (v Value) String() string {
	if v.Kind == KindString {
		return v.Str
	}
	return v.Normalized()
}

// ColumnTypeOf maps the value kind to the column type it votes for during
// type inference. Null values vote for nothing.
func (v Value) ColumnTypeOf() (ColumnType, bool) {
	switch v.Kind {
	case KindString:
		return ColumnTypeString, true
	case KindNumber:
		return ColumnTypeNumber, true
	case KindBoolean:
		return ColumnTypeBoolean, true
	case KindDate:
		return ColumnTypeDate, true
	default:
		return "", false
	}
}

// MarshalJSON renders the value as the natural JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBoolean:
		return json.Marshal(v.Bool)
	case KindDate:
		return json.Marshal(v.Normalized())
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes any JSON scalar. JSON strings go through ParseValue
// so that date- and number-shaped text uploaded by clients is typed the same
// way as values ingested from other sources.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = NullValue()
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = ParseValue(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
		return nil
	case '{', '[':
		return fmt.Errorf("cell values must be JSON scalars, got %c", trimmed[0])
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*v = NumberValue(f)
		return nil
	}
}
