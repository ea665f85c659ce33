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

// registerJoinDatasetsTool adds the join_datasets tool.
func registerJoinDatasetsTool(s *server.MCPServer, deps *EngineToolDeps) {
	tool := mcp.NewTool(
		"join_datasets",
		mcp.WithDescription(
			"Join two datasets on a column pair and return the merged rows with the combined column "+
				"manifest. Inputs are never modified. "+
				"Example: join_datasets(workspace_id=…, from_dataset_id=…, to_dataset_id=…, from_column='customer_id', to_column='id', join_type='left')",
		),
		mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Workspace UUID")),
		mcp.WithString("from_dataset_id", mcp.Required(), mcp.Description("Left-side dataset UUID")),
		mcp.WithString("to_dataset_id", mcp.Required(), mcp.Description("Right-side dataset UUID")),
		mcp.WithString("from_column", mcp.Required(), mcp.Description("Join column in the left-side dataset")),
		mcp.WithString("to_column", mcp.Required(), mcp.Description("Join column in the right-side dataset")),
		mcp.WithString(
			"join_type",
			mcp.Required(),
			mcp.Description("Join semantics: inner, left, right or full"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		wid, errResult := requireUUID(req, "workspace_id")
		if errResult != nil {
			return errResult, nil
		}
		fromID, errResult := requireUUID(req, "from_dataset_id")
		if errResult != nil {
			return errResult, nil
		}
		toID, errResult := requireUUID(req, "to_dataset_id")
		if errResult != nil {
			return errResult, nil
		}
		fromCol, err := req.RequireString("from_column")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		toCol, err := req.RequireString("to_column")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		rawJoinType, err := req.RequireString("join_type")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		joinType, err := models.ParseJoinType(trimString(rawJoinType))
		if err != nil {
			return NewErrorResult("unknown_join_type", err.Error()), nil
		}

		from, err := deps.WorkspaceRepo.GetDataset(wid, fromID)
		if err != nil {
			return NewErrorResult("dataset_not_found", "no dataset with ID "+fromID.String()), nil
		}
		to, err := deps.WorkspaceRepo.GetDataset(wid, toID)
		if err != nil {
			return NewErrorResult("dataset_not_found", "no dataset with ID "+toID.String()), nil
		}

		view, err := deps.Merger.JoinDatasets(ctx, from, to, trimString(fromCol), trimString(toCol), joinType)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidColumnReference) {
				return NewErrorResultWithDetails("invalid_column_reference", err.Error(), map[string]any{
					"from_columns": from.ColumnNames(),
					"to_columns":   to.ColumnNames(),
				}), nil
			}
			return nil, fmt.Errorf("join failed: %w", err)
		}

		result, err := json.Marshal(view)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal composite view: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
