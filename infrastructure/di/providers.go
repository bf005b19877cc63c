// Package di assembles the application graph. Provider functions are
// grouped here; wire.go carries the wire provider set and container.go
// the hand-rolled initializer used by builds.
package di

import (
	"context"

	"scholarmap-backend/application/authz"
	"scholarmap-backend/application/ports"
	"scholarmap-backend/application/services"
	"scholarmap-backend/infrastructure/config"
	"scholarmap-backend/infrastructure/discovery"
	"scholarmap-backend/infrastructure/messaging/eventbridge"
	"scholarmap-backend/infrastructure/persistence/dynamodb"
	"scholarmap-backend/pkg/auth"
	"scholarmap-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

const metricsNamespace = "ScholarMap"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideWorkspaceRepository creates a workspace repository
func ProvideWorkspaceRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.WorkspaceRepository {
	return dynamodb.NewWorkspaceRepository(client, cfg.DynamoDBTable, cfg.IndexName, logger)
}

// ProvideQueryRepository creates a query repository
func ProvideQueryRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.QueryRepository {
	return dynamodb.NewQueryRepository(client, cfg.DynamoDBTable, cfg.IndexName, logger)
}

// ProvideGraphRepository creates a graph repository
func ProvideGraphRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.GraphRepository {
	return dynamodb.NewGraphRepository(client, cfg.DynamoDBTable, cfg.IndexName, logger)
}

// ProvideAnnotationRepository creates an annotation repository
func ProvideAnnotationRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.AnnotationRepository {
	return dynamodb.NewAnnotationRepository(client, cfg.DynamoDBTable, cfg.IndexName, logger)
}

// ProvideAuditRepository creates an audit repository
func ProvideAuditRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.AuditRepository {
	return dynamodb.NewAuditRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideEventPublisher creates the lifecycle event publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return eventbridge.NopPublisher{}
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideMetrics creates the metrics publisher
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config) observability.MetricsPublisher {
	if !cfg.EnableMetrics {
		return observability.NopMetrics{}
	}
	return observability.NewMetrics(metricsNamespace, client)
}

// ProvideDiscoverer creates the content-discovery collaborator. Without
// an API key the deterministic static provider serves instead.
func ProvideDiscoverer(cfg *config.Config, logger *zap.Logger) ports.Discoverer {
	if cfg.DeepSeekAPIKey == "" {
		logger.Warn("No discovery API key configured, using static provider")
		return discovery.NewStaticDiscoverer()
	}
	return discovery.NewDeepSeekDiscoverer(cfg.DeepSeekAPIKey, cfg.DeepSeekBaseURL, cfg.DeepSeekModel, logger)
}

// ProvideGuard creates the authorization guard
func ProvideGuard(workspaces ports.WorkspaceRepository) *authz.Guard {
	return authz.NewGuard(workspaces)
}

// ProvideWriteService creates the graph write service
func ProvideWriteService(
	guard *authz.Guard,
	workspaces ports.WorkspaceRepository,
	queries ports.QueryRepository,
	graph ports.GraphRepository,
	annotations ports.AnnotationRepository,
	audit ports.AuditRepository,
	cfg *config.Config,
	logger *zap.Logger,
) *services.WriteService {
	return services.NewWriteService(guard, workspaces, queries, graph, annotations, audit, cfg.StrictParentCheck, logger)
}

// ProvideReadService creates the graph read service
func ProvideReadService(
	guard *authz.Guard,
	workspaces ports.WorkspaceRepository,
	queries ports.QueryRepository,
	graph ports.GraphRepository,
	annotations ports.AnnotationRepository,
	logger *zap.Logger,
) *services.ReadService {
	return services.NewReadService(guard, workspaces, queries, graph, annotations, logger)
}

// ProvideOrchestrator creates the query orchestrator
func ProvideOrchestrator(
	workspaces ports.WorkspaceRepository,
	writes *services.WriteService,
	discoverer ports.Discoverer,
	events ports.EventPublisher,
	metrics observability.MetricsPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) *services.Orchestrator {
	return services.NewOrchestrator(workspaces, writes, discoverer, events, metrics, cfg.DiscoveryTimeout, logger)
}

// ProvideJWTValidator creates the token validator for the auth middleware
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" && !cfg.IsProduction() {
		secret = "development-secret-change-in-production"
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
		Audience:  []string{cfg.JWTAudience},
	})
}
