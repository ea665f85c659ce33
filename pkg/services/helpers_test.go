package services

import (
	"fmt"

	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

// makeDataset builds a dataset from raw cell values. Cells may be string,
// float64, int, bool or nil; strings go through the normal parse path.
func makeDataset(name string, columns []string, cells [][]any) *models.Dataset {
	rows := make([]models.Row, len(cells))
	for i, cell := range cells {
		row := make(models.Row, len(columns))
		for j, col := range columns {
			if j >= len(cell) {
				row[col] = models.NullValue()
				continue
			}
			switch v := cell[j].(type) {
			case nil:
				row[col] = models.NullValue()
			case string:
				row[col] = models.ParseValue(v)
			case float64:
				row[col] = models.NumberValue(v)
			case int:
				row[col] = models.NumberValue(float64(v))
			case bool:
				row[col] = models.BoolValue(v)
			default:
				row[col] = models.ParseValue(fmt.Sprint(v))
			}
		}
		rows[i] = row
	}
	return models.NewDataset(name, columns, rows)
}

// ordersCustomers builds the classic pair: an orders table whose customer_id
// column references most of a customers table.
func ordersCustomers() (*models.Dataset, *models.Dataset) {
	orders := makeDataset("orders", []string{"order_id", "customer_id", "amount"}, [][]any{
		{"o1", "c1", 100},
		{"o2", "c1", 150},
		{"o3", "c2", 200},
		{"o4", "c2", 250},
		{"o5", "c2", 300},
		{"o6", "c3", 50},
	})
	customers := makeDataset("customers", []string{"customer_id", "name", "region"}, [][]any{
		{"c1", "Acme", "west"},
		{"c2", "Globex", "east"},
		{"c3", "Initech", "west"},
		{"c9", "Hooli", "north"},
	})
	return orders, customers
}
