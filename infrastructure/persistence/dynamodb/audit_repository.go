package dynamodb

import (
	"context"

	"scholarmap-backend/application/ports"
	"scholarmap-backend/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// AuditRepository implements ports.AuditRepository on DynamoDB. Entries
// live under their workspace partition, append-only.
type AuditRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.AuditRepository {
	return &AuditRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// auditItem is the DynamoDB item structure for an audit entry
type auditItem struct {
	PK          string                 `dynamodbav:"PK"`
	SK          string                 `dynamodbav:"SK"`
	EntityType  string                 `dynamodbav:"EntityType"`
	AuditID     string                 `dynamodbav:"AuditID"`
	WorkspaceID string                 `dynamodbav:"WorkspaceID"`
	ActorID     string                 `dynamodbav:"ActorID"`
	Action      string                 `dynamodbav:"Action"`
	TargetType  string                 `dynamodbav:"TargetType"`
	TargetID    string                 `dynamodbav:"TargetID"`
	Metadata    map[string]interface{} `dynamodbav:"Metadata,omitempty"`
	Timestamp   string                 `dynamodbav:"Timestamp"`
}

// Append writes one audit entry
func (r *AuditRepository) Append(ctx context.Context, e *domain.AuditEntry) error {
	av, err := attributevalue.MarshalMap(auditItem{
		PK:          workspacePK(e.WorkspaceID),
		SK:          auditSK(e.Timestamp, e.ID),
		EntityType:  entityAudit,
		AuditID:     e.ID,
		WorkspaceID: e.WorkspaceID,
		ActorID:     e.ActorID,
		Action:      e.Action,
		TargetType:  e.TargetType,
		TargetID:    e.TargetID,
		Metadata:    e.Metadata,
		Timestamp:   formatTime(e.Timestamp),
	})
	if err != nil {
		return dbError("marshal audit entry", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return dbError("append audit entry", err)
	}
	return nil
}
