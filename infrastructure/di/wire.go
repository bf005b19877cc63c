//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"scholarmap-backend/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideWorkspaceRepository,
	ProvideQueryRepository,
	ProvideGraphRepository,
	ProvideAnnotationRepository,
	ProvideAuditRepository,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideDiscoverer,
	ProvideGuard,
	ProvideWriteService,
	ProvideReadService,
	ProvideOrchestrator,
	ProvideJWTValidator,
	wire.Struct(new(Container), "*"),
)

// InitializeContainerWire generates the container via wire; the checked
// in InitializeContainer in container.go mirrors it by hand.
func InitializeContainerWire(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
