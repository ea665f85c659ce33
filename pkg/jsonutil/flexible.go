package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

// FlexibleValue converts a raw JSON scalar into a models.Value without
// losing the client's intent: JSON numbers and booleans arrive typed, while
// JSON strings go through the engine's value sniffing so "2024-01-05" and
// "42" uploaded as text are typed the same way as natively typed cells.
// Null and empty raw messages yield the null value.
func FlexibleValue(raw json.RawMessage) (models.Value, error) {
	trimmed := strings.TrimSpace(string(raw))
	if len(trimmed) == 0 || trimmed == "null" {
		return models.NullValue(), nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return models.Value{}, fmt.Errorf("decode string cell: %w", err)
		}
		return models.ParseValue(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return models.Value{}, fmt.Errorf("decode boolean cell: %w", err)
		}
		return models.BoolValue(b), nil
	case '{', '[':
		return models.Value{}, fmt.Errorf("cell values must be JSON scalars, got %c", trimmed[0])
	default:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return models.Value{}, fmt.Errorf("decode numeric cell: %w", err)
		}
		return models.NumberValue(f), nil
	}
}

// FlexibleRow converts a raw JSON object of column→scalar into a models.Row.
func FlexibleRow(raw map[string]json.RawMessage) (models.Row, error) {
	row := make(models.Row, len(raw))
	for col, cell := range raw {
		v, err := FlexibleValue(cell)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		row[col] = v
	}
	return row, nil
}
