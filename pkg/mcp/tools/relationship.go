package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fuseline-io/fuseline-engine/pkg/apperrors"
	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

// registerDetectRelationshipsTool adds the detect_relationships tool.
func registerDetectRelationshipsTool(s *server.MCPServer, deps *EngineToolDeps) {
	tool := mcp.NewTool(
		"detect_relationships",
		mcp.WithDescription(
			"Detect candidate join relationships between every pair of datasets in a workspace. "+
				"Candidates are scored by value overlap, column name similarity and inferred cardinality; "+
				"results are ordered strongest first and flag which pairs are safe to auto-join.",
		),
		mcp.WithString(
			"workspace_id",
			mcp.Required(),
			mcp.Description("Workspace UUID"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		wid, errResult := requireUUID(req, "workspace_id")
		if errResult != nil {
			return errResult, nil
		}

		datasets, err := deps.WorkspaceRepo.ListDatasets(wid)
		if err != nil {
			return NewErrorResult("workspace_not_found", "no workspace with ID "+wid.String()), nil
		}

		relationships, err := deps.Detector.DetectRelationships(ctx, datasets)
		if err != nil {
			return nil, fmt.Errorf("relationship detection failed: %w", err)
		}

		result, err := json.Marshal(map[string]any{"relationships": relationships})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal relationships: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}

// registerValidateRelationshipTool adds the validate_relationship tool. Unlike
// detection this scans full data, so it can be slow on large datasets.
func registerValidateRelationshipTool(s *server.MCPServer, deps *EngineToolDeps) {
	tool := mcp.NewTool(
		"validate_relationship",
		mcp.WithDescription(
			"Validate a candidate relationship over the FULL data of both datasets (not a sample). "+
				"Reports match rate, orphan counts per side, duplicate key counts, whether the declared "+
				"cardinality holds, and join-quality warnings. "+
				"Example: validate_relationship(workspace_id=…, dataset1_id=…, dataset2_id=…, column1='customer_id', column2='id', type='one-to-many')",
		),
		mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace UUID")),
		mcp.WithString("dataset1_id", mcp.Required(), mcp.Description("First dataset UUID")),
		mcp.WithString("dataset2_id", mcp.Required(), mcp.Description("Second dataset UUID")),
		mcp.WithString("column1", mcp.Required(), mcp.Description("Join column in the first dataset")),
		mcp.WithString("column2", mcp.Required(), mcp.Description("Join column in the second dataset")),
		mcp.WithString(
			"type",
			mcp.Description("Optional declared cardinality to check: one-to-one, one-to-many or many-to-many"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		wid, errResult := requireUUID(req, "workspace_id")
		if errResult != nil {
			return errResult, nil
		}
		ds1ID, errResult := requireUUID(req, "dataset1_id")
		if errResult != nil {
			return errResult, nil
		}
		ds2ID, errResult := requireUUID(req, "dataset2_id")
		if errResult != nil {
			return errResult, nil
		}
		col1, err := req.RequireString("column1")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		col2, err := req.RequireString("column2")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		declaredType := models.RelationshipType(trimString(getOptionalString(req, "type")))
		switch declaredType {
		case models.OneToOne, models.OneToMany, models.ManyToMany, "":
		default:
			return NewErrorResult("invalid_parameters", "unknown relationship type: "+string(declaredType)), nil
		}

		ds1, err := deps.WorkspaceRepo.GetDataset(wid, ds1ID)
		if err != nil {
			return NewErrorResult("dataset_not_found", "no dataset with ID "+ds1ID.String()), nil
		}
		ds2, err := deps.WorkspaceRepo.GetDataset(wid, ds2ID)
		if err != nil {
			return NewErrorResult("dataset_not_found", "no dataset with ID "+ds2ID.String()), nil
		}

		validation, err := deps.Validator.ValidateRelationship(ctx, ds1, ds2, trimString(col1), trimString(col2), declaredType, nil)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidColumnReference) {
				return NewErrorResultWithDetails("invalid_column_reference", err.Error(), map[string]any{
					"dataset1_columns": ds1.ColumnNames(),
					"dataset2_columns": ds2.ColumnNames(),
				}), nil
			}
			return nil, fmt.Errorf("relationship validation failed: %w", err)
		}

		result, err := json.Marshal(validation)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal validation result: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
