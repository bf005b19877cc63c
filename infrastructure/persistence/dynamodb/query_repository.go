package dynamodb

import (
	"context"
	"time"

	"scholarmap-backend/application/ports"
	"scholarmap-backend/domain"
	pkgerrors "scholarmap-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// QueryRepository implements ports.QueryRepository on DynamoDB. Queries
// live under their workspace partition with the start timestamp in the
// sort key, so a plain descending key scan yields most-recent-first.
type QueryRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewQueryRepository creates a new QueryRepository
func NewQueryRepository(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) ports.QueryRepository {
	return &QueryRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// queryItem is the DynamoDB item structure for a research query
type queryItem struct {
	PK          string                 `dynamodbav:"PK"`
	SK          string                 `dynamodbav:"SK"`
	GSI1PK      string                 `dynamodbav:"GSI1PK"` // QUERY#<id> for direct lookup
	GSI1SK      string                 `dynamodbav:"GSI1SK"`
	EntityType  string                 `dynamodbav:"EntityType"`
	QueryID     string                 `dynamodbav:"QueryID"`
	WorkspaceID string                 `dynamodbav:"WorkspaceID"`
	Topic       string                 `dynamodbav:"Topic"`
	Status      string                 `dynamodbav:"Status"`
	CreatedBy   string                 `dynamodbav:"CreatedBy"`
	Params      map[string]interface{} `dynamodbav:"Params,omitempty"`
	StartedAt   string                 `dynamodbav:"StartedAt"`
	CompletedAt string                 `dynamodbav:"CompletedAt,omitempty"`
}

func (item queryItem) toDomain() (*domain.Query, error) {
	startedAt, err := parseTime(item.StartedAt)
	if err != nil {
		return nil, err
	}
	q := &domain.Query{
		ID:          item.QueryID,
		WorkspaceID: item.WorkspaceID,
		Topic:       item.Topic,
		Status:      domain.QueryStatus(item.Status),
		CreatedBy:   item.CreatedBy,
		Params:      item.Params,
		StartedAt:   startedAt,
	}
	if item.CompletedAt != "" {
		completedAt, err := parseTime(item.CompletedAt)
		if err != nil {
			return nil, err
		}
		q.CompletedAt = &completedAt
	}
	return q, nil
}

// Create persists a new query
func (r *QueryRepository) Create(ctx context.Context, q *domain.Query) error {
	av, err := attributevalue.MarshalMap(queryItem{
		PK:          workspacePK(q.WorkspaceID),
		SK:          querySK(q.StartedAt, q.ID),
		GSI1PK:      queryPK(q.ID),
		GSI1SK:      "METADATA",
		EntityType:  entityQuery,
		QueryID:     q.ID,
		WorkspaceID: q.WorkspaceID,
		Topic:       q.Topic,
		Status:      string(q.Status),
		CreatedBy:   q.CreatedBy,
		Params:      q.Params,
		StartedAt:   formatTime(q.StartedAt),
	})
	if err != nil {
		return dbError("marshal query", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return pkgerrors.NewConflictError("query already exists")
		}
		return dbError("create query", err)
	}
	return nil
}

// GetByID returns a query via GSI1, or nil when absent
func (r *QueryRepository) GetByID(ctx context.Context, queryID string) (*domain.Query, error) {
	item, err := r.findByID(ctx, queryID)
	if err != nil || item == nil {
		return nil, err
	}
	return item.toDomain()
}

// findByID resolves the GSI1 projection of a query item
func (r *QueryRepository) findByID(ctx context.Context, queryID string) (*queryItem, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: queryPK(queryID)},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, dbError("query by id", err)
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var item queryItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, dbError("unmarshal query", err)
	}
	return &item, nil
}

// ListByWorkspace returns queries most-recent-first, at most limit
func (r *QueryRepository) ListByWorkspace(ctx context.Context, workspaceID string, limit int) ([]*domain.Query, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: workspacePK(workspaceID)},
			":prefix": &types.AttributeValueMemberS{Value: "QUERY#"},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, dbError("list queries", err)
	}

	queries := make([]*domain.Query, 0, len(result.Items))
	for _, raw := range result.Items {
		var item queryItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, dbError("unmarshal query", err)
		}
		q, err := item.toDomain()
		if err != nil {
			return nil, dbError("decode query", err)
		}
		queries = append(queries, q)
	}
	return queries, nil
}

// UpdateStatus transitions a query out of running. The conditional
// update guarantees a query reaches a terminal status at most once even
// when two population tasks race.
func (r *QueryRepository) UpdateStatus(ctx context.Context, workspaceID, queryID string, status domain.QueryStatus) error {
	item, err := r.findByID(ctx, queryID)
	if err != nil {
		return err
	}
	if item == nil {
		return pkgerrors.NewNotFoundError("query")
	}

	update := "SET #status = :status"
	values := map[string]types.AttributeValue{
		":status":  &types.AttributeValueMemberS{Value: string(status)},
		":running": &types.AttributeValueMemberS{Value: string(domain.QueryStatusRunning)},
	}
	if status == domain.QueryStatusDone {
		update += ", CompletedAt = :completedAt"
		values[":completedAt"] = &types.AttributeValueMemberS{Value: formatTime(time.Now())}
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: item.PK},
			"SK": &types.AttributeValueMemberS{Value: item.SK},
		},
		UpdateExpression:          aws.String(update),
		ConditionExpression:       aws.String("#status = :running"),
		ExpressionAttributeNames:  map[string]string{"#status": "Status"},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return pkgerrors.NewConflictError("query already reached a terminal status")
		}
		return dbError("update query status", err)
	}

	r.logger.Info("Query status updated",
		zap.String("queryID", queryID),
		zap.String("status", string(status)),
	)
	return nil
}
