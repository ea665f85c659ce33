package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatasets_Create(t *testing.T) {
	env := newAPIEnv(t)
	ws := env.seedWorkspace(t)

	body := map[string]any{
		"name":    "orders",
		"columns": []string{"order_id", "amount", "voided"},
		"rows": []map[string]any{
			{"order_id": "o1", "amount": 100.5, "voided": false},
			{"order_id": "o2", "amount": 200, "voided": true},
		},
	}
	rec := env.do(t, http.MethodPost, "/api/workspaces/"+ws.ID.String()+"/datasets", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var summary struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		RowCount int    `json:"row_count"`
		Columns  []struct {
			Name         string `json:"name"`
			InferredType string `json:"inferred_type"`
		} `json:"columns"`
	}
	decodeBody(t, rec, &summary)
	assert.Equal(t, "orders", summary.Name)
	assert.Equal(t, 2, summary.RowCount)
	require.Len(t, summary.Columns, 3)
	assert.Equal(t, "number", summary.Columns[1].InferredType)
	assert.Equal(t, "boolean", summary.Columns[2].InferredType)
}

func TestDatasets_CreateValidation(t *testing.T) {
	env := newAPIEnv(t)
	ws := env.seedWorkspace(t)
	base := "/api/workspaces/" + ws.ID.String() + "/datasets"

	rec := env.do(t, http.MethodPost, base, map[string]any{"name": "", "columns": []string{"a"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, base, map[string]any{"name": "d", "columns": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Composite cell values are rejected with the offending column named.
	rec = env.do(t, http.MethodPost, base, map[string]any{
		"name":    "d",
		"columns": []string{"payload"},
		"rows":    []map[string]any{{"payload": map[string]any{"nested": 1}}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "payload")
}

func TestDatasets_CreateUnknownWorkspace(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.do(t, http.MethodPost, "/api/workspaces/0e1ded85-8c0a-4c9c-a7ba-6a58e5e90a58/datasets", map[string]any{
		"name":    "orders",
		"columns": []string{"id"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDatasets_ListAndGet(t *testing.T) {
	env := newAPIEnv(t)
	ws := env.seedWorkspace(t)
	orders, customers := ordersCustomersFixture()
	env.seedDataset(t, ws.ID, orders)
	env.seedDataset(t, ws.ID, customers)

	rec := env.do(t, http.MethodGet, "/api/workspaces/"+ws.ID.String()+"/datasets", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []struct {
		Name     string `json:"name"`
		RowCount int    `json:"row_count"`
	}
	decodeBody(t, rec, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "customers", list[0].Name)
	assert.Equal(t, "orders", list[1].Name)

	// Detail response carries the full rows.
	rec = env.do(t, http.MethodGet, "/api/workspaces/"+ws.ID.String()+"/datasets/"+orders.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var full struct {
		Rows []map[string]any `json:"rows"`
	}
	decodeBody(t, rec, &full)
	assert.Len(t, full.Rows, 6)
}

func TestDatasets_DeleteEvictsFingerprintCache(t *testing.T) {
	env := newAPIEnv(t)
	ws := env.seedWorkspace(t)
	orders, _ := ordersCustomersFixture()
	env.seedDataset(t, ws.ID, orders)

	env.cache.Put(orders.ID, orders.ContentHash(), nil)
	require.Equal(t, 1, env.cache.Len())

	rec := env.do(t, http.MethodDelete, "/api/workspaces/"+ws.ID.String()+"/datasets/"+orders.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, env.cache.Len())

	rec = env.do(t, http.MethodGet, "/api/workspaces/"+ws.ID.String()+"/datasets/"+orders.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
