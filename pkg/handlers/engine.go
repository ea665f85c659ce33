package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fuseline-io/fuseline-engine/pkg/apperrors"
	"github.com/fuseline-io/fuseline-engine/pkg/models"
	"github.com/fuseline-io/fuseline-engine/pkg/repositories"
	"github.com/fuseline-io/fuseline-engine/pkg/services"
)

// EngineHandler exposes the inference engine synchronously: detect, classify,
// validate, dimension scan and join run inline against a workspace's datasets
// and return their result in the response. Long-running full-workspace runs
// go through the analyses endpoints instead.
type EngineHandler struct {
	workspaceRepo repositories.WorkspaceRepository
	detector      services.RelationshipDetector
	classifier    services.SchemaClassifier
	validator     services.RelationshipValidator
	finder        services.CommonDimensionFinder
	merger        services.MergeEngine
	logger        *zap.Logger
}

// NewEngineHandler creates a new engine handler.
func NewEngineHandler(
	workspaceRepo repositories.WorkspaceRepository,
	detector services.RelationshipDetector,
	classifier services.SchemaClassifier,
	validator services.RelationshipValidator,
	finder services.CommonDimensionFinder,
	merger services.MergeEngine,
	logger *zap.Logger,
) *EngineHandler {
	return &EngineHandler{
		workspaceRepo: workspaceRepo,
		detector:      detector,
		classifier:    classifier,
		validator:     validator,
		finder:        finder,
		merger:        merger,
		logger:        logger,
	}
}

// RegisterRoutes registers the compute routes on the given mux.
func (h *EngineHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/workspaces/{wid}/relationships:detect", h.DetectRelationships)
	mux.HandleFunc("POST /api/workspaces/{wid}/schema:classify", h.ClassifySchema)
	mux.HandleFunc("POST /api/workspaces/{wid}/relationships:validate", h.ValidateRelationship)
	mux.HandleFunc("GET /api/workspaces/{wid}/dimensions", h.FindCommonDimensions)
	mux.HandleFunc("POST /api/workspaces/{wid}/join", h.JoinDatasets)
}

// DetectRelationships handles POST /api/workspaces/{wid}/relationships:detect.
func (h *EngineHandler) DetectRelationships(w http.ResponseWriter, r *http.Request) {
	datasets, ok := h.workspaceDatasets(w, r)
	if !ok {
		return
	}

	relationships, err := h.detector.DetectRelationships(r.Context(), datasets)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"relationships": relationships}); err != nil {
		h.logger.Error("Failed to encode detection response", zap.Error(err))
	}
}

// ClassifySchema handles POST /api/workspaces/{wid}/schema:classify. Detection
// runs first so the classifier always sees fresh edges.
func (h *EngineHandler) ClassifySchema(w http.ResponseWriter, r *http.Request) {
	datasets, ok := h.workspaceDatasets(w, r)
	if !ok {
		return
	}

	relationships, err := h.detector.DetectRelationships(r.Context(), datasets)
	if err != nil {
		h.respondError(w, err)
		return
	}
	result := h.classifier.ClassifySchema(r.Context(), datasets, relationships)

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode classification response", zap.Error(err))
	}
}

// validateRelationshipRequest names the pair of columns to check over full
// data, with the declared multiplicity to check against.
type validateRelationshipRequest struct {
	Dataset1ID uuid.UUID `json:"dataset1_id"`
	Dataset2ID uuid.UUID `json:"dataset2_id"`
	Column1    string    `json:"column1"`
	Column2    string    `json:"column2"`
	Type       string    `json:"type"`
}

// ValidateRelationship handles POST /api/workspaces/{wid}/relationships:validate.
func (h *EngineHandler) ValidateRelationship(w http.ResponseWriter, r *http.Request) {
	wid, ok := ParseWorkspaceID(w, r, h.logger)
	if !ok {
		return
	}

	var req validateRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Request body must be JSON")
		return
	}

	declaredType := models.RelationshipType(req.Type)
	switch declaredType {
	case models.OneToOne, models.OneToMany, models.ManyToMany, "":
	default:
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Unknown relationship type: "+req.Type)
		return
	}

	ds1, err := h.workspaceRepo.GetDataset(wid, req.Dataset1ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	ds2, err := h.workspaceRepo.GetDataset(wid, req.Dataset2ID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	result, err := h.validator.ValidateRelationship(r.Context(), ds1, ds2, req.Column1, req.Column2, declaredType, nil)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode validation response", zap.Error(err))
	}
}

// FindCommonDimensions handles GET /api/workspaces/{wid}/dimensions.
func (h *EngineHandler) FindCommonDimensions(w http.ResponseWriter, r *http.Request) {
	datasets, ok := h.workspaceDatasets(w, r)
	if !ok {
		return
	}

	dimensions, err := h.finder.FindCommonDimensions(r.Context(), datasets)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"common_dimensions": dimensions}); err != nil {
		h.logger.Error("Failed to encode dimensions response", zap.Error(err))
	}
}

// joinRequest names the dataset pair, join columns and join type.
type joinRequest struct {
	FromDatasetID uuid.UUID `json:"from_dataset_id"`
	ToDatasetID   uuid.UUID `json:"to_dataset_id"`
	FromColumn    string    `json:"from_column"`
	ToColumn      string    `json:"to_column"`
	JoinType      string    `json:"join_type"`
}

// JoinDatasets handles POST /api/workspaces/{wid}/join.
func (h *EngineHandler) JoinDatasets(w http.ResponseWriter, r *http.Request) {
	wid, ok := ParseWorkspaceID(w, r, h.logger)
	if !ok {
		return
	}

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Request body must be JSON")
		return
	}

	joinType, err := models.ParseJoinType(req.JoinType)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unknown_join_type", err.Error())
		return
	}

	from, err := h.workspaceRepo.GetDataset(wid, req.FromDatasetID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	to, err := h.workspaceRepo.GetDataset(wid, req.ToDatasetID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	view, err := h.merger.JoinDatasets(r.Context(), from, to, req.FromColumn, req.ToColumn, joinType)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, view); err != nil {
		h.logger.Error("Failed to encode join response", zap.Error(err))
	}
}

func (h *EngineHandler) workspaceDatasets(w http.ResponseWriter, r *http.Request) ([]*models.Dataset, bool) {
	wid, ok := ParseWorkspaceID(w, r, h.logger)
	if !ok {
		return nil, false
	}
	datasets, err := h.workspaceRepo.ListDatasets(wid)
	if err != nil {
		h.respondError(w, err)
		return nil, false
	}
	return datasets, true
}

func (h *EngineHandler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrWorkspaceNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", "Workspace not found")
	case errors.Is(err, apperrors.ErrDatasetNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", "Dataset not found")
	case errors.Is(err, apperrors.ErrInvalidColumnReference):
		h.writeError(w, http.StatusUnprocessableEntity, "invalid_column_reference", err.Error())
	case errors.Is(err, apperrors.ErrUnknownJoinType):
		h.writeError(w, http.StatusBadRequest, "unknown_join_type", err.Error())
	default:
		h.logger.Error("Engine request failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Unexpected error")
	}
}

func (h *EngineHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
