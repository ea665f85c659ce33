package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerFindCommonDimensionsTool adds the find_common_dimensions tool.
func registerFindCommonDimensionsTool(s *server.MCPServer, deps *EngineToolDeps) {
	tool := mcp.NewTool(
		"find_common_dimensions",
		mcp.WithDescription(
			"Find dimension columns shared by multiple datasets in a workspace, such as region, "+
				"category or status. Useful for deciding which columns a cross-dataset report can group by.",
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

		dimensions, err := deps.Finder.FindCommonDimensions(ctx, datasets)
		if err != nil {
			return nil, fmt.Errorf("common dimension scan failed: %w", err)
		}

		result, err := json.Marshal(map[string]any{"common_dimensions": dimensions})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal common dimensions: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
