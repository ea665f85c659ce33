package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fuseline-io/fuseline-engine/pkg/models"
	"github.com/fuseline-io/fuseline-engine/pkg/repositories"
	"github.com/fuseline-io/fuseline-engine/pkg/services/workqueue"
)

// maxConcurrentValidations throttles full-scan validation tasks; everything
// else in the workflow operates on fingerprint samples and is cheap.
const maxConcurrentValidations = 2

// AnalysisWorkflowService runs a complete workspace analysis as a queued
// pipeline: detect relationships, classify the schema, validate the
// auto-join candidates over full data, and scan for common dimensions.
// Progress is pollable and a run can be cancelled between tasks (and between
// validator chunks).
type AnalysisWorkflowService interface {
	StartAnalysis(ctx context.Context, workspaceID uuid.UUID) (*models.AnalysisReport, error)
	GetReport(analysisID uuid.UUID) (*models.AnalysisReport, error)
	GetProgress(analysisID uuid.UUID) (workqueue.Progress, error)
	Cancel(analysisID uuid.UUID) error
}

type analysisWorkflowService struct {
	workspaceRepo repositories.WorkspaceRepository
	analysisRepo  repositories.AnalysisRepository
	detector      RelationshipDetector
	classifier    SchemaClassifier
	validator     RelationshipValidator
	finder        CommonDimensionFinder
	logger        *zap.Logger

	mu   sync.Mutex
	runs map[uuid.UUID]*workqueue.Queue
}

var _ AnalysisWorkflowService = (*analysisWorkflowService)(nil)

// NewAnalysisWorkflowService creates the workflow orchestrator.
func NewAnalysisWorkflowService(
	workspaceRepo repositories.WorkspaceRepository,
	analysisRepo repositories.AnalysisRepository,
	detector RelationshipDetector,
	classifier SchemaClassifier,
	validator RelationshipValidator,
	finder CommonDimensionFinder,
	logger *zap.Logger,
) AnalysisWorkflowService {
	return &analysisWorkflowService{
		workspaceRepo: workspaceRepo,
		analysisRepo:  analysisRepo,
		detector:      detector,
		classifier:    classifier,
		validator:     validator,
		finder:        finder,
		logger:        logger.Named("analysis_workflow"),
		runs:          make(map[uuid.UUID]*workqueue.Queue),
	}
}

func (s *analysisWorkflowService) StartAnalysis(ctx context.Context, workspaceID uuid.UUID) (*models.AnalysisReport, error) {
	datasets, err := s.workspaceRepo.ListDatasets(workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}

	report := &models.AnalysisReport{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Status:      models.AnalysisStatusRunning,
		StartedAt:   time.Now().UTC(),
	}
	if err := s.analysisRepo.Create(report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	queue := workqueue.New(s.logger, workqueue.WithStrategy(
		workqueue.NewThrottledFullScanStrategy(maxConcurrentValidations)))

	s.mu.Lock()
	s.runs[report.ID] = queue
	s.mu.Unlock()

	// The dataset slice is the immutable snapshot for this run; later
	// uploads do not affect an in-flight analysis.
	queue.Enqueue(&analysisTask{
		BaseTask: workqueue.NewBaseTask("Detect relationships", false),
		run:      func(ctx context.Context, enq workqueue.TaskEnqueuer) error { return s.runDetection(ctx, report.ID, datasets, enq) },
	})

	go s.finish(report.ID, queue)

	s.logger.Info("analysis started",
		zap.String("analysis_id", report.ID.String()),
		zap.String("workspace_id", workspaceID.String()),
		zap.Int("datasets", len(datasets)))
	return report, nil
}

// finish waits out the queue and seals the report status.
func (s *analysisWorkflowService) finish(analysisID uuid.UUID, queue *workqueue.Queue) {
	err := queue.Wait(context.Background())

	_ = s.analysisRepo.Update(analysisID, func(r *models.AnalysisReport) {
		now := time.Now().UTC()
		r.FinishedAt = &now
		switch {
		case err != nil:
			r.Status = models.AnalysisStatusFailed
			r.Error = err.Error()
		case queue.IsPaused() || queue.HasFailures():
			r.Status = models.AnalysisStatusFailed
		case queue.Progress().Cancelled > 0:
			r.Status = models.AnalysisStatusCancelled
		default:
			r.Status = models.AnalysisStatusCompleted
		}
	})

	s.mu.Lock()
	delete(s.runs, analysisID)
	s.mu.Unlock()
}

func (s *analysisWorkflowService) runDetection(ctx context.Context, analysisID uuid.UUID, datasets []*models.Dataset, enq workqueue.TaskEnqueuer) error {
	relationships, err := s.detector.DetectRelationships(ctx, datasets)
	if err != nil {
		return fmt.Errorf("detect relationships: %w", err)
	}

	if err := s.analysisRepo.Update(analysisID, func(r *models.AnalysisReport) {
		r.Relationships = relationships
	}); err != nil {
		return err
	}

	enq.Enqueue(&analysisTask{
		BaseTask: workqueue.NewBaseTask("Classify schema", false),
		run: func(ctx context.Context, _ workqueue.TaskEnqueuer) error {
			result := s.classifier.ClassifySchema(ctx, datasets, relationships)
			return s.analysisRepo.Update(analysisID, func(r *models.AnalysisReport) { r.Schema = result })
		},
	})

	enq.Enqueue(&analysisTask{
		BaseTask: workqueue.NewBaseTask("Find common dimensions", false),
		run: func(ctx context.Context, _ workqueue.TaskEnqueuer) error {
			dims, err := s.finder.FindCommonDimensions(ctx, datasets)
			if err != nil {
				return err
			}
			return s.analysisRepo.Update(analysisID, func(r *models.AnalysisReport) { r.CommonDimensions = dims })
		},
	})

	byID := make(map[uuid.UUID]*models.Dataset, len(datasets))
	for _, ds := range datasets {
		byID[ds.ID] = ds
	}
	for _, rel := range relationships {
		if !rel.AutoJoinRecommended {
			continue
		}
		enq.Enqueue(s.newValidationTask(analysisID, byID, rel))
	}
	return nil
}

func (s *analysisWorkflowService) newValidationTask(analysisID uuid.UUID, byID map[uuid.UUID]*models.Dataset, rel models.Relationship) workqueue.Task {
	name := fmt.Sprintf("Validate %s.%s → %s.%s", rel.FromDatasetName, rel.FromColumn, rel.ToDatasetName, rel.ToColumn)
	return &analysisTask{
		BaseTask: workqueue.NewBaseTask(name, true),
		run: func(ctx context.Context, _ workqueue.TaskEnqueuer) error {
			from, ok1 := byID[rel.FromDataset]
			to, ok2 := byID[rel.ToDataset]
			if !ok1 || !ok2 {
				return fmt.Errorf("dataset disappeared from analysis snapshot")
			}
			result, err := s.validator.ValidateRelationship(ctx, from, to, rel.FromColumn, rel.ToColumn, rel.Type, nil)
			if err != nil {
				return err
			}
			return s.analysisRepo.Update(analysisID, func(r *models.AnalysisReport) {
				r.Validations = append(r.Validations, models.RelationshipCheck{Relationship: rel, Result: *result})
			})
		},
	}
}

func (s *analysisWorkflowService) GetReport(analysisID uuid.UUID) (*models.AnalysisReport, error) {
	return s.analysisRepo.Get(analysisID)
}

func (s *analysisWorkflowService) GetProgress(analysisID uuid.UUID) (workqueue.Progress, error) {
	s.mu.Lock()
	queue, running := s.runs[analysisID]
	s.mu.Unlock()

	if running {
		return queue.Progress(), nil
	}

	// Finished runs no longer hold a queue; report status answers instead.
	report, err := s.analysisRepo.Get(analysisID)
	if err != nil {
		return workqueue.Progress{}, err
	}
	p := workqueue.Progress{}
	if report.Status != models.AnalysisStatusRunning {
		p.Total = 1
		p.Completed = 1
	}
	return p, nil
}

func (s *analysisWorkflowService) Cancel(analysisID uuid.UUID) error {
	s.mu.Lock()
	queue, running := s.runs[analysisID]
	s.mu.Unlock()

	if !running {
		// Already finished (or never existed): confirm the report exists so
		// unknown IDs still fail loudly.
		_, err := s.analysisRepo.Get(analysisID)
		return err
	}
	queue.Cancel()
	return nil
}

// analysisTask adapts a closure to the workqueue.Task interface.
type analysisTask struct {
	workqueue.BaseTask
	run func(ctx context.Context, enq workqueue.TaskEnqueuer) error
}

func (t *analysisTask) Execute(ctx context.Context, enq workqueue.TaskEnqueuer) error {
	return t.run(ctx, enq)
}
