package dynamodb

import (
	"context"

	"scholarmap-backend/application/ports"
	"scholarmap-backend/domain"
	pkgerrors "scholarmap-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// WorkspaceRepository implements ports.WorkspaceRepository on DynamoDB
type WorkspaceRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) ports.WorkspaceRepository {
	return &WorkspaceRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// workspaceItem is the DynamoDB item structure for a workspace
type workspaceItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	GSI1PK      string `dynamodbav:"GSI1PK"` // ORG#<orgID> for org lookup
	GSI1SK      string `dynamodbav:"GSI1SK"`
	EntityType  string `dynamodbav:"EntityType"`
	WorkspaceID string `dynamodbav:"WorkspaceID"`
	Name        string `dynamodbav:"Name"`
	Plan        string `dynamodbav:"Plan"`
	OrgID       string `dynamodbav:"OrgID"`
	OwnerID     string `dynamodbav:"OwnerID"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
}

// membershipItem is the DynamoDB item structure for a membership
type membershipItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	WorkspaceID string `dynamodbav:"WorkspaceID"`
	UserID      string `dynamodbav:"UserID"`
	Role        string `dynamodbav:"Role"`
}

// orgGuardItem reserves an org id so only one workspace can claim it
type orgGuardItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	WorkspaceID string `dynamodbav:"WorkspaceID"`
}

func newWorkspaceItem(ws *domain.Workspace) workspaceItem {
	return workspaceItem{
		PK:          workspacePK(ws.ID),
		SK:          "METADATA",
		GSI1PK:      orgPK(ws.OrgID),
		GSI1SK:      entityWorkspace,
		EntityType:  entityWorkspace,
		WorkspaceID: ws.ID,
		Name:        ws.Name,
		Plan:        ws.Plan,
		OrgID:       ws.OrgID,
		OwnerID:     ws.OwnerID,
		CreatedAt:   formatTime(ws.CreatedAt),
	}
}

func (item workspaceItem) toDomain() (*domain.Workspace, error) {
	createdAt, err := parseTime(item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Workspace{
		ID:        item.WorkspaceID,
		Name:      item.Name,
		Plan:      item.Plan,
		OrgID:     item.OrgID,
		OwnerID:   item.OwnerID,
		CreatedAt: createdAt,
	}, nil
}

// CreateWithOwner writes the workspace, an org uniqueness guard and the
// owner membership as a single transaction. A second workspace for the
// same org fails the guard's condition and surfaces as a Conflict.
func (r *WorkspaceRepository) CreateWithOwner(ctx context.Context, ws *domain.Workspace, owner *domain.Membership) error {
	wsAV, err := attributevalue.MarshalMap(newWorkspaceItem(ws))
	if err != nil {
		return dbError("marshal workspace", err)
	}

	guardAV, err := attributevalue.MarshalMap(orgGuardItem{
		PK:          orgPK(ws.OrgID),
		SK:          entityWorkspace,
		EntityType:  entityOrgGuard,
		WorkspaceID: ws.ID,
	})
	if err != nil {
		return dbError("marshal org guard", err)
	}

	memberAV, err := attributevalue.MarshalMap(membershipItem{
		PK:          workspacePK(owner.WorkspaceID),
		SK:          memberSK(owner.UserID),
		EntityType:  entityMembership,
		WorkspaceID: owner.WorkspaceID,
		UserID:      owner.UserID,
		Role:        string(owner.Role),
	})
	if err != nil {
		return dbError("marshal membership", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(r.tableName),
					Item:                wsAV,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(r.tableName),
					Item:                guardAV,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(r.tableName),
					Item:      memberAV,
				},
			},
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return pkgerrors.NewConflictError("workspace already exists for organization")
		}
		return dbError("create workspace", err)
	}

	r.logger.Info("Workspace created",
		zap.String("workspaceID", ws.ID),
		zap.String("orgID", ws.OrgID),
	)
	return nil
}

// GetByID returns a workspace, or nil when absent
func (r *WorkspaceRepository) GetByID(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: workspacePK(workspaceID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, dbError("get workspace", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item workspaceItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, dbError("unmarshal workspace", err)
	}
	return item.toDomain()
}

// GetByOrgID returns the workspace claiming an org id via GSI1, or nil
func (r *WorkspaceRepository) GetByOrgID(ctx context.Context, orgID string) (*domain.Workspace, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: orgPK(orgID)},
			":sk": &types.AttributeValueMemberS{Value: entityWorkspace},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, dbError("query workspace by org", err)
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var item workspaceItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, dbError("unmarshal workspace", err)
	}
	return item.toDomain()
}

// AddMembership inserts a membership, Conflict when one already exists
func (r *WorkspaceRepository) AddMembership(ctx context.Context, m *domain.Membership) error {
	av, err := attributevalue.MarshalMap(membershipItem{
		PK:          workspacePK(m.WorkspaceID),
		SK:          memberSK(m.UserID),
		EntityType:  entityMembership,
		WorkspaceID: m.WorkspaceID,
		UserID:      m.UserID,
		Role:        string(m.Role),
	})
	if err != nil {
		return dbError("marshal membership", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return pkgerrors.NewConflictError("membership already exists")
		}
		return dbError("add membership", err)
	}
	return nil
}

// GetMembership returns a user's membership row, or nil when absent
func (r *WorkspaceRepository) GetMembership(ctx context.Context, workspaceID, userID string) (*domain.Membership, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: workspacePK(workspaceID)},
			"SK": &types.AttributeValueMemberS{Value: memberSK(userID)},
		},
	})
	if err != nil {
		return nil, dbError("get membership", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item membershipItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, dbError("unmarshal membership", err)
	}
	return &domain.Membership{
		WorkspaceID: item.WorkspaceID,
		UserID:      item.UserID,
		Role:        domain.Role(item.Role),
	}, nil
}
