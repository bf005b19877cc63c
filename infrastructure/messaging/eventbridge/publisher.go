// Package eventbridge publishes query lifecycle events to an Amazon
// EventBridge bus.
package eventbridge

import (
	"context"
	"encoding/json"

	"scholarmap-backend/application/ports"
	pkgerrors "scholarmap-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

const eventSource = "scholarmap.queries"

// Publisher implements ports.EventPublisher on EventBridge
type Publisher struct {
	client  *eventbridge.Client
	busName string
	logger  *zap.Logger
}

// NewPublisher creates a new Publisher
func NewPublisher(client *eventbridge.Client, busName string, logger *zap.Logger) ports.EventPublisher {
	return &Publisher{
		client:  client,
		busName: busName,
		logger:  logger,
	}
}

// Publish sends one lifecycle event to the bus
func (p *Publisher) Publish(ctx context.Context, event ports.QueryEvent) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return pkgerrors.NewInternalError("failed to marshal event").WithCause(err)
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.busName),
				Source:       aws.String(eventSource),
				DetailType:   aws.String(event.Type),
				Detail:       aws.String(string(detail)),
			},
		},
	})
	if err != nil {
		return pkgerrors.NewExternalError("eventbridge", err)
	}
	if result.FailedEntryCount > 0 {
		entry := result.Entries[0]
		p.logger.Warn("EventBridge rejected event",
			zap.String("type", event.Type),
			zap.String("queryID", event.QueryID),
			zap.Stringp("errorCode", entry.ErrorCode),
			zap.Stringp("errorMessage", entry.ErrorMessage),
		)
		return pkgerrors.NewExternalError("eventbridge", nil)
	}

	return nil
}

// NopPublisher discards events. Used when no bus is configured.
type NopPublisher struct{}

// Publish implements ports.EventPublisher
func (NopPublisher) Publish(ctx context.Context, event ports.QueryEvent) error { return nil }
