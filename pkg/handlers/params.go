package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseWorkspaceID extracts and validates the workspace ID from the request
// path. Returns the parsed UUID and true on success, or uuid.Nil and false
// after writing an error response.
// Expects path parameter: wid
func ParseWorkspaceID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "wid", "invalid_workspace_id", "The workspace ID must be a UUID", logger)
}

// ParseDatasetID extracts and validates the dataset ID from the request path.
// Expects path parameter: did
func ParseDatasetID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "did", "invalid_dataset_id", "The dataset ID must be a UUID", logger)
}

// ParseAnalysisID extracts and validates the analysis report ID from the
// request path.
// Expects path parameter: aid
func ParseAnalysisID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "aid", "invalid_analysis_id", "The analysis ID must be a UUID", logger)
}

// ParseWorkspaceAndDatasetIDs extracts and validates both workspace and
// dataset IDs.
// Expects path parameters: wid, did
func ParseWorkspaceAndDatasetIDs(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, uuid.UUID, bool) {
	workspaceID, ok := ParseWorkspaceID(w, r, logger)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	datasetID, ok := ParseDatasetID(w, r, logger)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	return workspaceID, datasetID, true
}

func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(pathParam))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
