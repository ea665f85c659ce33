package tools

import (
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/fuseline-io/fuseline-engine/pkg/repositories"
	"github.com/fuseline-io/fuseline-engine/pkg/services"
)

// EngineToolDeps contains the dependencies shared by the engine tools.
type EngineToolDeps struct {
	WorkspaceRepo repositories.WorkspaceRepository
	Detector      services.RelationshipDetector
	Classifier    services.SchemaClassifier
	Validator     services.RelationshipValidator
	Finder        services.CommonDimensionFinder
	Merger        services.MergeEngine
	Logger        *zap.Logger
}

// RegisterEngineTools registers every inference-engine tool on the server.
func RegisterEngineTools(s *server.MCPServer, deps *EngineToolDeps) {
	registerListDatasetsTool(s, deps)
	registerDetectRelationshipsTool(s, deps)
	registerClassifySchemaTool(s, deps)
	registerValidateRelationshipTool(s, deps)
	registerFindCommonDimensionsTool(s, deps)
	registerJoinDatasetsTool(s, deps)
}

// requireUUID extracts a required tool parameter and parses it as a UUID.
func requireUUID(req mcp.CallToolRequest, name string) (uuid.UUID, *mcp.CallToolResult) {
	raw, err := req.RequireString(name)
	if err != nil {
		return uuid.Nil, NewErrorResult("invalid_parameters", err.Error())
	}
	id, err := uuid.Parse(trimString(raw))
	if err != nil {
		return uuid.Nil, NewErrorResult("invalid_parameters", "parameter '"+name+"' must be a UUID")
	}
	return id, nil
}
