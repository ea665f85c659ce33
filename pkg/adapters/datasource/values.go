package datasource

import (
	"fmt"
	"time"

	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

// ValueFromAny converts a driver-scanned cell into an engine value.
// Unrecognized driver types are rendered to text and re-parsed, which keeps
// numerics and dates typed even when a driver returns its own wrappers.
func ValueFromAny(v any) models.Value {
	switch val := v.(type) {
	case nil:
		return models.NullValue()
	case string:
		return models.ParseValue(val)
	case []byte:
		return models.ParseValue(string(val))
	case bool:
		return models.BoolValue(val)
	case int:
		return models.NumberValue(float64(val))
	case int32:
		return models.NumberValue(float64(val))
	case int64:
		return models.NumberValue(float64(val))
	case float32:
		return models.NumberValue(float64(val))
	case float64:
		return models.NumberValue(val)
	case time.Time:
		return models.DateValue(val)
	default:
		return models.ParseValue(fmt.Sprint(val))
	}
}

// RowsToDataset assembles scanned rows into a dataset named after the table.
func RowsToDataset(table string, columns []string, cells [][]any) *models.Dataset {
	rows := make([]models.Row, len(cells))
	for i, cell := range cells {
		row := make(models.Row, len(columns))
		for j, name := range columns {
			if j < len(cell) {
				row[name] = ValueFromAny(cell[j])
			} else {
				row[name] = models.NullValue()
			}
		}
		rows[i] = row
	}
	return models.NewDataset(table, columns, rows)
}
