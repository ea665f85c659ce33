package models

import (
	"time"

	"github.com/google/uuid"
)

// Workspace groups the datasets an analyst uploaded for one investigation.
type Workspace struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewWorkspace creates a workspace with a fresh ID.
func NewWorkspace(name string) *Workspace {
	return &Workspace{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// AnalysisStatus tracks an analysis run's lifecycle.
type AnalysisStatus string

const (
	AnalysisStatusRunning   AnalysisStatus = "running"
	AnalysisStatusCompleted AnalysisStatus = "completed"
	AnalysisStatusFailed    AnalysisStatus = "failed"
	AnalysisStatusCancelled AnalysisStatus = "cancelled"
)

// AnalysisReport is the accumulated output of one full workspace analysis:
// detection, classification, validation of the auto-join candidates, and
// common dimensions. Fields fill in as the workflow's tasks complete.
type AnalysisReport struct {
	ID          uuid.UUID      `json:"id"`
	WorkspaceID uuid.UUID      `json:"workspace_id"`
	Status      AnalysisStatus `json:"status"`
	Error       string         `json:"error,omitempty"`

	Relationships    []Relationship         `json:"relationships,omitempty"`
	Schema           *SchemaDetectionResult `json:"schema,omitempty"`
	Validations      []RelationshipCheck    `json:"validations,omitempty"`
	CommonDimensions []CommonDimension      `json:"common_dimensions,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RelationshipCheck pairs a validated relationship with its result.
type RelationshipCheck struct {
	Relationship Relationship     `json:"relationship"`
	Result       ValidationResult `json:"result"`
}
