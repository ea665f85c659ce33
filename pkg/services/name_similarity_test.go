package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnNameSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "customer_id", "customer_id", 1.0},
		{"case and separators ignored", "CustomerID", "customer_id", 1.0},
		{"kebab vs snake", "customer-id", "customer_id", 1.0},
		{"singular vs plural", "order", "orders", 0.95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, columnNameSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestColumnNameSimilarity_TokenOverlap(t *testing.T) {
	// Both names share the "customer" token.
	got := columnNameSimilarity("customer_id", "customer_key")
	assert.Greater(t, got, 0.30)
	assert.Less(t, got, 1.0)

	// Unrelated names stay low.
	assert.Less(t, columnNameSimilarity("region", "amount"), 0.30)
}

func TestColumnNameSimilarity_Empty(t *testing.T) {
	assert.Equal(t, 0.0, columnNameSimilarity("", "anything"))
	assert.Equal(t, 0.0, columnNameSimilarity("__", "anything"))
}

func TestSplitNameTokens(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"customer_id", []string{"customer", "id"}},
		{"CustomerID", []string{"customer", "id"}},
		{"orderLineItems", []string{"order", "line", "item"}},
		{"region", []string{"region"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, splitNameTokens(tt.in))
		})
	}
}

func TestIsIDStyleColumn(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"id", true},
		{"customer_id", true},
		{"OrderKey", true},
		{"product_code", true},
		{"invoice_no", true},
		{"amount", false},
		{"region", false},
		{"identity", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isIDStyleColumn(tt.name))
		})
	}
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("same", "same"))
	assert.Equal(t, 4, levenshtein("", "four"))
	assert.Equal(t, 1, levenshtein("cat", "cut"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}
