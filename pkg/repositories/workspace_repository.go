package repositories

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/fuseline-io/fuseline-engine/pkg/apperrors"
	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

// WorkspaceRepository stores workspaces and their datasets in memory. Stored
// datasets are treated as immutable snapshots: the engine only reads them,
// and callers replace a dataset (new ID, new content hash) rather than
// mutating one in place.
type WorkspaceRepository interface {
	Create(ws *models.Workspace) error
	Get(id uuid.UUID) (*models.Workspace, error)
	List() []*models.Workspace
	Delete(id uuid.UUID) error

	AddDataset(workspaceID uuid.UUID, ds *models.Dataset) error
	GetDataset(workspaceID, datasetID uuid.UUID) (*models.Dataset, error)
	ListDatasets(workspaceID uuid.UUID) ([]*models.Dataset, error)
	DeleteDataset(workspaceID, datasetID uuid.UUID) error
}

type workspaceRepository struct {
	mu         sync.RWMutex
	workspaces map[uuid.UUID]*models.Workspace
	datasets   map[uuid.UUID]map[uuid.UUID]*models.Dataset
}

var _ WorkspaceRepository = (*workspaceRepository)(nil)

// NewWorkspaceRepository creates an empty in-memory workspace store.
func NewWorkspaceRepository() WorkspaceRepository {
	return &workspaceRepository{
		workspaces: make(map[uuid.UUID]*models.Workspace),
		datasets:   make(map[uuid.UUID]map[uuid.UUID]*models.Dataset),
	}
}

func (r *workspaceRepository) Create(ws *models.Workspace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.workspaces[ws.ID]; exists {
		return apperrors.ErrConflict
	}
	r.workspaces[ws.ID] = ws
	r.datasets[ws.ID] = make(map[uuid.UUID]*models.Dataset)
	return nil
}

func (r *workspaceRepository) Get(id uuid.UUID) (*models.Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws, ok := r.workspaces[id]
	if !ok {
		return nil, apperrors.ErrWorkspaceNotFound
	}
	return ws, nil
}

func (r *workspaceRepository) List() []*models.Workspace {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Workspace, 0, len(r.workspaces))
	for _, ws := range r.workspaces {
		out = append(out, ws)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Delete removes the workspace and cascades to its datasets.
func (r *workspaceRepository) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workspaces[id]; !ok {
		return apperrors.ErrWorkspaceNotFound
	}
	delete(r.workspaces, id)
	delete(r.datasets, id)
	return nil
}

func (r *workspaceRepository) AddDataset(workspaceID uuid.UUID, ds *models.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket, ok := r.datasets[workspaceID]
	if !ok {
		return apperrors.ErrWorkspaceNotFound
	}
	bucket[ds.ID] = ds
	return nil
}

func (r *workspaceRepository) GetDataset(workspaceID, datasetID uuid.UUID) (*models.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bucket, ok := r.datasets[workspaceID]
	if !ok {
		return nil, apperrors.ErrWorkspaceNotFound
	}
	ds, ok := bucket[datasetID]
	if !ok {
		return nil, apperrors.ErrDatasetNotFound
	}
	return ds, nil
}

func (r *workspaceRepository) ListDatasets(workspaceID uuid.UUID) ([]*models.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bucket, ok := r.datasets[workspaceID]
	if !ok {
		return nil, apperrors.ErrWorkspaceNotFound
	}
	out := make([]*models.Dataset, 0, len(bucket))
	for _, ds := range bucket {
		out = append(out, ds)
	}
	// Name order keeps list output and downstream detection deterministic.
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *workspaceRepository) DeleteDataset(workspaceID, datasetID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket, ok := r.datasets[workspaceID]
	if !ok {
		return apperrors.ErrWorkspaceNotFound
	}
	if _, ok := bucket[datasetID]; !ok {
		return apperrors.ErrDatasetNotFound
	}
	delete(bucket, datasetID)
	return nil
}
