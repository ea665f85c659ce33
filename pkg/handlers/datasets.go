package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fuseline-io/fuseline-engine/pkg/apperrors"
	"github.com/fuseline-io/fuseline-engine/pkg/jsonutil"
	"github.com/fuseline-io/fuseline-engine/pkg/models"
	"github.com/fuseline-io/fuseline-engine/pkg/repositories"
)

// DatasetsHandler handles dataset upload and retrieval within a workspace.
// Parsing files into rows/columns happens upstream; this endpoint receives
// already-parsed tabular JSON.
type DatasetsHandler struct {
	workspaceRepo repositories.WorkspaceRepository
	cache         *repositories.FingerprintCacheRepository
	logger        *zap.Logger
}

// NewDatasetsHandler creates a new datasets handler. cache may be nil.
func NewDatasetsHandler(workspaceRepo repositories.WorkspaceRepository, cache *repositories.FingerprintCacheRepository, logger *zap.Logger) *DatasetsHandler {
	return &DatasetsHandler{workspaceRepo: workspaceRepo, cache: cache, logger: logger}
}

// RegisterRoutes registers the dataset routes on the given mux.
func (h *DatasetsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/workspaces/{wid}/datasets", h.Create)
	mux.HandleFunc("GET /api/workspaces/{wid}/datasets", h.List)
	mux.HandleFunc("GET /api/workspaces/{wid}/datasets/{did}", h.Get)
	mux.HandleFunc("DELETE /api/workspaces/{wid}/datasets/{did}", h.Delete)
}

// createDatasetRequest carries a parsed table. Cell values are raw JSON so
// numbers, booleans and strings survive decoding intact.
type createDatasetRequest struct {
	Name    string                       `json:"name"`
	Columns []string                     `json:"columns"`
	Rows    []map[string]json.RawMessage `json:"rows"`
}

// datasetSummary is the list/detail response without the full row payload.
type datasetSummary struct {
	ID       uuid.UUID           `json:"id"`
	Name     string              `json:"name"`
	RowCount int                 `json:"row_count"`
	Columns  []models.ColumnInfo `json:"columns"`
}

func summarize(ds *models.Dataset) datasetSummary {
	return datasetSummary{ID: ds.ID, Name: ds.Name, RowCount: ds.RowCount(), Columns: ds.Columns}
}

// Create handles POST /api/workspaces/{wid}/datasets.
func (h *DatasetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	wid, ok := ParseWorkspaceID(w, r, h.logger)
	if !ok {
		return
	}

	var req createDatasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Request body must be JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Columns) == 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Dataset name and columns are required")
		return
	}

	rows := make([]models.Row, len(req.Rows))
	for i, raw := range req.Rows {
		row, err := jsonutil.FlexibleRow(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid_row", err.Error())
			return
		}
		rows[i] = row
	}

	ds := models.NewDataset(req.Name, req.Columns, rows)
	if err := h.workspaceRepo.AddDataset(wid, ds); err != nil {
		h.respondRepoError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, summarize(ds)); err != nil {
		h.logger.Error("Failed to encode dataset response", zap.Error(err))
	}
}

// List handles GET /api/workspaces/{wid}/datasets.
func (h *DatasetsHandler) List(w http.ResponseWriter, r *http.Request) {
	wid, ok := ParseWorkspaceID(w, r, h.logger)
	if !ok {
		return
	}

	datasets, err := h.workspaceRepo.ListDatasets(wid)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	summaries := make([]datasetSummary, len(datasets))
	for i, ds := range datasets {
		summaries[i] = summarize(ds)
	}
	if err := WriteJSON(w, http.StatusOK, summaries); err != nil {
		h.logger.Error("Failed to encode dataset list", zap.Error(err))
	}
}

// Get handles GET /api/workspaces/{wid}/datasets/{did}, returning the full
// dataset including rows.
func (h *DatasetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	wid, did, ok := ParseWorkspaceAndDatasetIDs(w, r, h.logger)
	if !ok {
		return
	}

	ds, err := h.workspaceRepo.GetDataset(wid, did)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ds); err != nil {
		h.logger.Error("Failed to encode dataset response", zap.Error(err))
	}
}

// Delete handles DELETE /api/workspaces/{wid}/datasets/{did}.
func (h *DatasetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	wid, did, ok := ParseWorkspaceAndDatasetIDs(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.workspaceRepo.DeleteDataset(wid, did); err != nil {
		h.respondRepoError(w, err)
		return
	}
	if h.cache != nil {
		h.cache.Evict(did)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DatasetsHandler) respondRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrWorkspaceNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", "Workspace not found")
	case errors.Is(err, apperrors.ErrDatasetNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", "Dataset not found")
	default:
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Unexpected error")
	}
}

func (h *DatasetsHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
