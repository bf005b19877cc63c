package ports

import (
	"context"

	"scholarmap-backend/domain"
)

// Discoverer is the content-discovery collaborator contract: given a
// topic, produce an ordered sequence of node items, or fail. No partial
// or streaming results. Implementations must honor ctx cancellation;
// the orchestrator runs them under a deadline.
type Discoverer interface {
	Discover(ctx context.Context, topic string, params map[string]interface{}) ([]domain.NodeItem, error)
}
