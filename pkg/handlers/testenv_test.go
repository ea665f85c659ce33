package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fuseline-io/fuseline-engine/pkg/models"
	"github.com/fuseline-io/fuseline-engine/pkg/repositories"
	"github.com/fuseline-io/fuseline-engine/pkg/services"
)

// apiEnv wires every handler against real in-memory repositories and engine
// services, mirroring the production wiring in main.
type apiEnv struct {
	mux           *http.ServeMux
	workspaceRepo repositories.WorkspaceRepository
	cache         *repositories.FingerprintCacheRepository
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	logger := zap.NewNop()
	workspaceRepo := repositories.NewWorkspaceRepository()
	analysisRepo := repositories.NewAnalysisRepository()
	cache := repositories.NewFingerprintCacheRepository()

	fingerprinter := services.NewFingerprinter(0, cache, logger)
	detector := services.NewRelationshipDetector(fingerprinter, 0, logger)
	classifier := services.NewSchemaClassifier(services.DefaultClassifierPolicy(), logger)
	validator := services.NewRelationshipValidator(0, logger)
	finder := services.NewCommonDimensionFinder(fingerprinter, nil, logger)
	merger := services.NewMergeEngine(logger)
	workflow := services.NewAnalysisWorkflowService(workspaceRepo, analysisRepo, detector, classifier, validator, finder, logger)

	mux := http.NewServeMux()
	NewWorkspacesHandler(workspaceRepo, logger).RegisterRoutes(mux)
	NewDatasetsHandler(workspaceRepo, cache, logger).RegisterRoutes(mux)
	NewEngineHandler(workspaceRepo, detector, classifier, validator, finder, merger, logger).RegisterRoutes(mux)
	NewAnalysesHandler(workflow, logger).RegisterRoutes(mux)

	return &apiEnv{mux: mux, workspaceRepo: workspaceRepo, cache: cache}
}

func (e *apiEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func (e *apiEnv) seedWorkspace(t *testing.T) *models.Workspace {
	t.Helper()
	ws := models.NewWorkspace("test")
	require.NoError(t, e.workspaceRepo.Create(ws))
	return ws
}

func (e *apiEnv) seedDataset(t *testing.T, workspaceID uuid.UUID, ds *models.Dataset) *models.Dataset {
	t.Helper()
	require.NoError(t, e.workspaceRepo.AddDataset(workspaceID, ds))
	return ds
}

// ordersCustomersFixture mirrors the classic orders/customers pair used
// throughout the engine tests.
func ordersCustomersFixture() (*models.Dataset, *models.Dataset) {
	mkRows := func(columns []string, cells [][]string) []models.Row {
		rows := make([]models.Row, len(cells))
		for i, cell := range cells {
			row := make(models.Row, len(columns))
			for j, col := range columns {
				row[col] = models.ParseValue(cell[j])
			}
			rows[i] = row
		}
		return rows
	}

	ordersCols := []string{"order_id", "customer_id", "amount"}
	orders := models.NewDataset("orders", ordersCols, mkRows(ordersCols, [][]string{
		{"o1", "c1", "100"},
		{"o2", "c1", "150"},
		{"o3", "c2", "200"},
		{"o4", "c2", "250"},
		{"o5", "c2", "300"},
		{"o6", "c3", "50"},
	}))
	customersCols := []string{"customer_id", "name", "region"}
	customers := models.NewDataset("customers", customersCols, mkRows(customersCols, [][]string{
		{"c1", "Acme", "west"},
		{"c2", "Globex", "east"},
		{"c3", "Initech", "west"},
		{"c9", "Hooli", "north"},
	}))
	return orders, customers
}
