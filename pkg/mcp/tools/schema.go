package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerClassifySchemaTool adds the classify_schema tool.
func registerClassifySchemaTool(s *server.MCPServer, deps *EngineToolDeps) {
	tool := mcp.NewTool(
		"classify_schema",
		mcp.WithDescription(
			"Classify the overall shape of a workspace's datasets as a star schema, snowflake schema or "+
				"flat collection. Detection runs first; the result names the fact table, the dimension tables "+
				"and a human-readable explanation of the classification.",
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
		classification := deps.Classifier.ClassifySchema(ctx, datasets, relationships)

		result, err := json.Marshal(classification)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal classification: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
