package ports

import (
	"context"
	"time"
)

// Query lifecycle event types
const (
	EventQueryCreated   = "query.created"
	EventQueryCompleted = "query.completed"
	EventQueryFailed    = "query.failed"
)

// QueryEvent describes a query lifecycle transition
type QueryEvent struct {
	Type        string    `json:"type"`
	QueryID     string    `json:"queryId"`
	WorkspaceID string    `json:"workspaceId"`
	Topic       string    `json:"topic"`
	At          time.Time `json:"at"`
}

// EventPublisher publishes lifecycle events to interested consumers.
// Publishing is best-effort; failures are logged, never propagated.
type EventPublisher interface {
	Publish(ctx context.Context, event QueryEvent) error
}
