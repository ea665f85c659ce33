package repositories

import (
	"sync"

	"github.com/google/uuid"

	"github.com/fuseline-io/fuseline-engine/pkg/apperrors"
	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

// AnalysisRepository stores analysis reports in memory. Reports are updated
// in place by the workflow as tasks finish; reads return the stored pointer,
// so callers must treat reports as read-only.
type AnalysisRepository interface {
	Create(report *models.AnalysisReport) error
	Get(id uuid.UUID) (*models.AnalysisReport, error)
	Update(id uuid.UUID, update func(*models.AnalysisReport)) error
	ListByWorkspace(workspaceID uuid.UUID) []*models.AnalysisReport
}

type analysisRepository struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*models.AnalysisReport
}

var _ AnalysisRepository = (*analysisRepository)(nil)

// NewAnalysisRepository creates an empty in-memory report store.
func NewAnalysisRepository() AnalysisRepository {
	return &analysisRepository{reports: make(map[uuid.UUID]*models.AnalysisReport)}
}

func (r *analysisRepository) Create(report *models.AnalysisReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.reports[report.ID]; exists {
		return apperrors.ErrConflict
	}
	r.reports[report.ID] = report
	return nil
}

func (r *analysisRepository) Get(id uuid.UUID) (*models.AnalysisReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	report, ok := r.reports[id]
	if !ok {
		return nil, apperrors.ErrAnalysisNotFound
	}
	return report, nil
}

// Update applies a mutation under the repository lock so concurrent task
// completions never interleave partial writes.
func (r *analysisRepository) Update(id uuid.UUID, update func(*models.AnalysisReport)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok {
		return apperrors.ErrAnalysisNotFound
	}
	update(report)
	return nil
}

func (r *analysisRepository) ListByWorkspace(workspaceID uuid.UUID) []*models.AnalysisReport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.AnalysisReport
	for _, report := range r.reports {
		if report.WorkspaceID == workspaceID {
			out = append(out, report)
		}
	}
	return out
}
