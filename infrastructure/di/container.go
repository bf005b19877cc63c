package di

import (
	"context"

	"scholarmap-backend/application/ports"
	"scholarmap-backend/application/services"
	"scholarmap-backend/infrastructure/config"
	"scholarmap-backend/pkg/auth"
	"scholarmap-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Workspaces   ports.WorkspaceRepository
	Queries      ports.QueryRepository
	Graph        ports.GraphRepository
	Annotations  ports.AnnotationRepository
	Audit        ports.AuditRepository
	Events       ports.EventPublisher
	Metrics      observability.MetricsPublisher
	Discoverer   ports.Discoverer
	Writes       *services.WriteService
	Reads        *services.ReadService
	Orchestrator *services.Orchestrator
	JWTValidator *auth.JWTValidator
}

// InitializeContainer builds the full dependency graph. Kept in sync
// with the provider set in wire.go.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}

	awsCfg, err := ProvideAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	dynamoClient := ProvideDynamoDBClient(awsCfg)
	eventBridgeClient := ProvideEventBridgeClient(awsCfg)
	cloudWatchClient := ProvideCloudWatchClient(awsCfg)

	workspaces := ProvideWorkspaceRepository(dynamoClient, cfg, logger)
	queries := ProvideQueryRepository(dynamoClient, cfg, logger)
	graph := ProvideGraphRepository(dynamoClient, cfg, logger)
	annotations := ProvideAnnotationRepository(dynamoClient, cfg, logger)
	audit := ProvideAuditRepository(dynamoClient, cfg, logger)

	events := ProvideEventPublisher(eventBridgeClient, cfg, logger)
	metrics := ProvideMetrics(cloudWatchClient, cfg)
	discoverer := ProvideDiscoverer(cfg, logger)

	guard := ProvideGuard(workspaces)
	writes := ProvideWriteService(guard, workspaces, queries, graph, annotations, audit, cfg, logger)
	reads := ProvideReadService(guard, workspaces, queries, graph, annotations, logger)
	orchestrator := ProvideOrchestrator(workspaces, writes, discoverer, events, metrics, cfg, logger)

	validator, err := ProvideJWTValidator(cfg)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Workspaces:   workspaces,
		Queries:      queries,
		Graph:        graph,
		Annotations:  annotations,
		Audit:        audit,
		Events:       events,
		Metrics:      metrics,
		Discoverer:   discoverer,
		Writes:       writes,
		Reads:        reads,
		Orchestrator: orchestrator,
		JWTValidator: validator,
	}, nil
}
