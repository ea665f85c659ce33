package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fuseline-io/fuseline-engine/pkg/apperrors"
	"github.com/fuseline-io/fuseline-engine/pkg/services"
)

// AnalysesHandler exposes the background analysis workflow: start a run,
// poll its report and progress, cancel it.
type AnalysesHandler struct {
	workflow services.AnalysisWorkflowService
	logger   *zap.Logger
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(workflow services.AnalysisWorkflowService, logger *zap.Logger) *AnalysesHandler {
	return &AnalysesHandler{workflow: workflow, logger: logger}
}

// RegisterRoutes registers the analysis routes on the given mux.
func (h *AnalysesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/workspaces/{wid}/analyses", h.Start)
	mux.HandleFunc("GET /api/analyses/{aid}", h.Get)
	mux.HandleFunc("GET /api/analyses/{aid}/progress", h.Progress)
	mux.HandleFunc("POST /api/analyses/{aid}/cancel", h.Cancel)
}

// Start handles POST /api/workspaces/{wid}/analyses. The run continues in the
// background; the response carries the report ID used to poll it.
func (h *AnalysesHandler) Start(w http.ResponseWriter, r *http.Request) {
	wid, ok := ParseWorkspaceID(w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.workflow.StartAnalysis(r.Context(), wid)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusAccepted, report); err != nil {
		h.logger.Error("Failed to encode analysis response", zap.Error(err))
	}
}

// Get handles GET /api/analyses/{aid}.
func (h *AnalysesHandler) Get(w http.ResponseWriter, r *http.Request) {
	aid, ok := ParseAnalysisID(w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.workflow.GetReport(aid)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to encode analysis report", zap.Error(err))
	}
}

// Progress handles GET /api/analyses/{aid}/progress.
func (h *AnalysesHandler) Progress(w http.ResponseWriter, r *http.Request) {
	aid, ok := ParseAnalysisID(w, r, h.logger)
	if !ok {
		return
	}

	progress, err := h.workflow.GetProgress(aid)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, progress); err != nil {
		h.logger.Error("Failed to encode analysis progress", zap.Error(err))
	}
}

// Cancel handles POST /api/analyses/{aid}/cancel.
func (h *AnalysesHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	aid, ok := ParseAnalysisID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.workflow.Cancel(aid); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AnalysesHandler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrWorkspaceNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", "Workspace not found")
	case errors.Is(err, apperrors.ErrAnalysisNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", "Analysis not found")
	case errors.Is(err, apperrors.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		h.logger.Error("Analysis request failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Unexpected error")
	}
}

func (h *AnalysesHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
