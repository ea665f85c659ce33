package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fuseline-io/fuseline-engine/pkg/apperrors"
	"github.com/fuseline-io/fuseline-engine/pkg/models"
	"github.com/fuseline-io/fuseline-engine/pkg/repositories"
)

// WorkspacesHandler handles workspace CRUD endpoints.
type WorkspacesHandler struct {
	workspaceRepo repositories.WorkspaceRepository
	logger        *zap.Logger
}

// NewWorkspacesHandler creates a new workspaces handler.
func NewWorkspacesHandler(workspaceRepo repositories.WorkspaceRepository, logger *zap.Logger) *WorkspacesHandler {
	return &WorkspacesHandler{workspaceRepo: workspaceRepo, logger: logger}
}

// RegisterRoutes registers the workspace routes on the given mux.
func (h *WorkspacesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/workspaces", h.Create)
	mux.HandleFunc("GET /api/workspaces", h.List)
	mux.HandleFunc("GET /api/workspaces/{wid}", h.Get)
	mux.HandleFunc("DELETE /api/workspaces/{wid}", h.Delete)
}

type createWorkspaceRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/workspaces.
func (h *WorkspacesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Request body must be JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Workspace name is required")
		return
	}

	ws := models.NewWorkspace(req.Name)
	if err := h.workspaceRepo.Create(ws); err != nil {
		h.writeError(w, http.StatusInternalServerError, "create_failed", "Failed to create workspace")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ws); err != nil {
		h.logger.Error("Failed to encode workspace response", zap.Error(err))
	}
}

// List handles GET /api/workspaces.
func (h *WorkspacesHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, http.StatusOK, h.workspaceRepo.List()); err != nil {
		h.logger.Error("Failed to encode workspace list", zap.Error(err))
	}
}

// Get handles GET /api/workspaces/{wid}.
func (h *WorkspacesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseWorkspaceID(w, r, h.logger)
	if !ok {
		return
	}

	ws, err := h.workspaceRepo.Get(id)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ws); err != nil {
		h.logger.Error("Failed to encode workspace response", zap.Error(err))
	}
}

// Delete handles DELETE /api/workspaces/{wid}. Deleting a workspace cascades
// to its datasets.
func (h *WorkspacesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseWorkspaceID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.workspaceRepo.Delete(id); err != nil {
		h.respondRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WorkspacesHandler) respondRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, apperrors.ErrWorkspaceNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "Workspace not found")
		return
	}
	h.writeError(w, http.StatusInternalServerError, "internal_error", "Unexpected error")
}

func (h *WorkspacesHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
