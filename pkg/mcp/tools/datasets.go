package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

type datasetSummary struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	RowCount int                 `json:"row_count"`
	Columns  []models.ColumnInfo `json:"columns"`
}

// registerListDatasetsTool adds the list_datasets tool.
func registerListDatasetsTool(s *server.MCPServer, deps *EngineToolDeps) {
	tool := mcp.NewTool(
		"list_datasets",
		mcp.WithDescription(
			"List the datasets in a workspace with their column manifests and row counts. "+
				"Use this to discover dataset IDs and column names before detecting relationships or joining.",
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

		summaries := make([]datasetSummary, len(datasets))
		for i, ds := range datasets {
			summaries[i] = datasetSummary{
				ID:       ds.ID.String(),
				Name:     ds.Name,
				RowCount: ds.RowCount(),
				Columns:  ds.Columns,
			}
		}

		result, err := json.Marshal(map[string]any{"datasets": summaries})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal dataset list: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
