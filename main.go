package main

import (
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/fuseline-io/fuseline-engine/pkg/config"
	"github.com/fuseline-io/fuseline-engine/pkg/handlers"
	"github.com/fuseline-io/fuseline-engine/pkg/mcp"
	"github.com/fuseline-io/fuseline-engine/pkg/mcp/tools"
	"github.com/fuseline-io/fuseline-engine/pkg/middleware"
	"github.com/fuseline-io/fuseline-engine/pkg/repositories"
	"github.com/fuseline-io/fuseline-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Int("sample_limit", cfg.Engine.SampleLimit),
		zap.Int("validation_chunk_size", cfg.Engine.ValidationChunkSize))

	// Repositories
	workspaceRepo := repositories.NewWorkspaceRepository()
	analysisRepo := repositories.NewAnalysisRepository()
	fingerprintCache := repositories.NewFingerprintCacheRepository()

	// Core services
	fingerprinter := services.NewFingerprinter(cfg.Engine.SampleLimit, fingerprintCache, logger)
	detector := services.NewRelationshipDetector(fingerprinter, cfg.Engine.MaxCandidatesPerPair, logger)
	classifier := services.NewSchemaClassifier(services.ClassifierPolicy{
		ConfidenceFloor: cfg.Engine.ConfidenceFloor,
	}, logger)
	validator := services.NewRelationshipValidator(cfg.Engine.ValidationChunkSize, logger)

	vocabulary, err := services.LoadDimensionVocabulary(cfg.Engine.DimensionVocabularyPath)
	if err != nil {
		logger.Fatal("Failed to load dimension vocabulary", zap.Error(err))
	}
	finder := services.NewCommonDimensionFinder(fingerprinter, vocabulary, logger)
	merger := services.NewMergeEngine(logger)

	workflow := services.NewAnalysisWorkflowService(
		workspaceRepo, analysisRepo, detector, classifier, validator, finder, logger)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	workspacesHandler := handlers.NewWorkspacesHandler(workspaceRepo, logger)
	workspacesHandler.RegisterRoutes(mux)

	datasetsHandler := handlers.NewDatasetsHandler(workspaceRepo, fingerprintCache, logger)
	datasetsHandler.RegisterRoutes(mux)

	analysesHandler := handlers.NewAnalysesHandler(workflow, logger)
	analysesHandler.RegisterRoutes(mux)

	engineHandler := handlers.NewEngineHandler(
		workspaceRepo, detector, classifier, validator, finder, merger, logger)
	engineHandler.RegisterRoutes(mux)

	// MCP surface
	mcpServer := mcp.NewServer("fuseline-engine", cfg.Version, logger)
	tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version)
	tools.RegisterEngineTools(mcpServer.MCP(), &tools.EngineToolDeps{
		WorkspaceRepo: workspaceRepo,
		Detector:      detector,
		Classifier:    classifier,
		Validator:     validator,
		Finder:        finder,
		Merger:        merger,
		Logger:        logger,
	})
	mux.Handle("/mcp", middleware.MCPRequestLogger(logger)(mcpServer.NewStreamableHTTPServer()))

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting fuseline-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))

	if cfg.TLSCertPath != "" && cfg.TLSKeyPath != "" {
		err = http.ListenAndServeTLS(addr, cfg.TLSCertPath, cfg.TLSKeyPath, handler)
	} else {
		err = http.ListenAndServe(addr, handler)
	}
	if err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
