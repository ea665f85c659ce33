package apperrors

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrWorkspaceNotFound      = errors.New("workspace not found")
	ErrDatasetNotFound        = errors.New("dataset not found")
	ErrAnalysisNotFound       = errors.New("analysis not found")
	ErrInvalidColumnReference = errors.New("column does not exist in dataset")
	ErrUnknownJoinType        = errors.New("unknown join type")
	ErrInvalidRequest         = errors.New("invalid request")
	ErrAdapterNotRegistered   = errors.New("datasource adapter not registered in this build")
)
