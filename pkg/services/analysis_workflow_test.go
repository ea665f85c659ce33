package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fuseline-io/fuseline-engine/pkg/apperrors"
	"github.com/fuseline-io/fuseline-engine/pkg/models"
	"github.com/fuseline-io/fuseline-engine/pkg/repositories"
)

type workflowFixture struct {
	svc           AnalysisWorkflowService
	workspaceRepo repositories.WorkspaceRepository
	workspace     *models.Workspace
}

func newWorkflowFixture(t *testing.T, datasets ...*models.Dataset) *workflowFixture {
	t.Helper()

	workspaceRepo := repositories.NewWorkspaceRepository()
	analysisRepo := repositories.NewAnalysisRepository()
	logger := zap.NewNop()

	ws := models.NewWorkspace("test")
	require.NoError(t, workspaceRepo.Create(ws))
	for _, ds := range datasets {
		require.NoError(t, workspaceRepo.AddDataset(ws.ID, ds))
	}

	fingerprinter := NewFingerprinter(0, nil, logger)
	svc := NewAnalysisWorkflowService(
		workspaceRepo,
		analysisRepo,
		NewRelationshipDetector(fingerprinter, 0, logger),
		NewSchemaClassifier(DefaultClassifierPolicy(), logger),
		NewRelationshipValidator(0, logger),
		NewCommonDimensionFinder(fingerprinter, nil, logger),
		logger,
	)
	return &workflowFixture{svc: svc, workspaceRepo: workspaceRepo, workspace: ws}
}

func awaitAnalysis(t *testing.T, svc AnalysisWorkflowService, id uuid.UUID) *models.AnalysisReport {
	t.Helper()
	require.Eventually(t, func() bool {
		report, err := svc.GetReport(id)
		return err == nil && report.Status != models.AnalysisStatusRunning
	}, 5*time.Second, 10*time.Millisecond)

	report, err := svc.GetReport(id)
	require.NoError(t, err)
	return report
}

func TestAnalysisWorkflow_EndToEnd(t *testing.T) {
	orders, customers := ordersCustomers()
	fx := newWorkflowFixture(t, orders, customers)

	started, err := fx.svc.StartAnalysis(context.Background(), fx.workspace.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisStatusRunning, started.Status)

	report := awaitAnalysis(t, fx.svc, started.ID)
	assert.Equal(t, models.AnalysisStatusCompleted, report.Status)
	require.NotNil(t, report.FinishedAt)

	require.NotEmpty(t, report.Relationships)
	best := report.Relationships[0]
	assert.Equal(t, "customer_id", best.FromColumn)
	assert.True(t, best.AutoJoinRecommended)

	require.NotNil(t, report.Schema)
	assert.Equal(t, models.SchemaTypeFlat, report.Schema.SchemaType)

	// The auto-join candidate gets a full-data validation pass.
	require.NotEmpty(t, report.Validations)
	assert.InDelta(t, 1.0, report.Validations[0].Result.MatchRate, 1e-9)
}

func TestAnalysisWorkflow_EmptyWorkspace(t *testing.T) {
	fx := newWorkflowFixture(t)

	started, err := fx.svc.StartAnalysis(context.Background(), fx.workspace.ID)
	require.NoError(t, err)

	report := awaitAnalysis(t, fx.svc, started.ID)
	assert.Equal(t, models.AnalysisStatusCompleted, report.Status)
	assert.Empty(t, report.Relationships)
	assert.Empty(t, report.Validations)
}

func TestAnalysisWorkflow_UnknownWorkspace(t *testing.T) {
	fx := newWorkflowFixture(t)

	_, err := fx.svc.StartAnalysis(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrWorkspaceNotFound)
}

func TestAnalysisWorkflow_SnapshotIsolation(t *testing.T) {
	orders, customers := ordersCustomers()
	fx := newWorkflowFixture(t, orders, customers)

	started, err := fx.svc.StartAnalysis(context.Background(), fx.workspace.ID)
	require.NoError(t, err)

	// A dataset added after the run starts must not appear in its report.
	late := makeDataset("late", []string{"x"}, [][]any{{"v"}})
	require.NoError(t, fx.workspaceRepo.AddDataset(fx.workspace.ID, late))

	report := awaitAnalysis(t, fx.svc, started.ID)
	for _, rel := range report.Relationships {
		assert.NotEqual(t, "late", rel.FromDatasetName)
		assert.NotEqual(t, "late", rel.ToDatasetName)
	}
}

func TestAnalysisWorkflow_ProgressAfterCompletion(t *testing.T) {
	orders, customers := ordersCustomers()
	fx := newWorkflowFixture(t, orders, customers)

	started, err := fx.svc.StartAnalysis(context.Background(), fx.workspace.ID)
	require.NoError(t, err)
	awaitAnalysis(t, fx.svc, started.ID)

	progress, err := fx.svc.GetProgress(started.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100, progress.Percentage(), 1e-9)
}

func TestAnalysisWorkflow_ProgressUnknownID(t *testing.T) {
	fx := newWorkflowFixture(t)

	_, err := fx.svc.GetProgress(uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrAnalysisNotFound)
}

func TestAnalysisWorkflow_CancelUnknownID(t *testing.T) {
	fx := newWorkflowFixture(t)

	err := fx.svc.Cancel(uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrAnalysisNotFound)
}

func TestAnalysisWorkflow_CancelFinishedRunIsNoop(t *testing.T) {
	orders, customers := ordersCustomers()
	fx := newWorkflowFixture(t, orders, customers)

	started, err := fx.svc.StartAnalysis(context.Background(), fx.workspace.ID)
	require.NoError(t, err)
	awaitAnalysis(t, fx.svc, started.ID)

	assert.NoError(t, fx.svc.Cancel(started.ID))
}

func TestAnalysisWorkflow_GetReportUnknownID(t *testing.T) {
	fx := newWorkflowFixture(t)

	_, err := fx.svc.GetReport(uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrAnalysisNotFound)
}
