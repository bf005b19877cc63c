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

// AnnotationRepository implements ports.AnnotationRepository on DynamoDB.
// Notes and stars hang off their node's partition; stars additionally
// project onto GSI1 keyed by (workspace, user) for the starred list.
type AnnotationRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewAnnotationRepository creates a new AnnotationRepository
func NewAnnotationRepository(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) ports.AnnotationRepository {
	return &AnnotationRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// noteItem is the DynamoDB item structure for a note
type noteItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	NoteID      string `dynamodbav:"NoteID"`
	NodeID      string `dynamodbav:"NodeID"`
	WorkspaceID string `dynamodbav:"WorkspaceID"`
	UserID      string `dynamodbav:"UserID"`
	Text        string `dynamodbav:"Text"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
}

// starItem is the DynamoDB item structure for a star
type starItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	GSI1PK      string `dynamodbav:"GSI1PK"` // STARS#<wsID>#<userID>
	GSI1SK      string `dynamodbav:"GSI1SK"`
	EntityType  string `dynamodbav:"EntityType"`
	NodeID      string `dynamodbav:"NodeID"`
	WorkspaceID string `dynamodbav:"WorkspaceID"`
	UserID      string `dynamodbav:"UserID"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
}

// CreateNote persists a note
func (r *AnnotationRepository) CreateNote(ctx context.Context, n *domain.Note) error {
	av, err := attributevalue.MarshalMap(noteItem{
		PK:          nodePK(n.NodeID),
		SK:          noteSK(n.CreatedAt, n.ID),
		EntityType:  entityNote,
		NoteID:      n.ID,
		NodeID:      n.NodeID,
		WorkspaceID: n.WorkspaceID,
		UserID:      n.UserID,
		Text:        n.Text,
		CreatedAt:   formatTime(n.CreatedAt),
	})
	if err != nil {
		return dbError("marshal note", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return dbError("create note", err)
	}
	return nil
}

// ListNotesByNode returns a node's notes most-recent-first
func (r *AnnotationRepository) ListNotesByNode(ctx context.Context, nodeID string) ([]*domain.Note, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: nodePK(nodeID)},
			":prefix": &types.AttributeValueMemberS{Value: "NOTE#"},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, dbError("list notes", err)
	}

	notes := make([]*domain.Note, 0, len(result.Items))
	for _, raw := range result.Items {
		var item noteItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, dbError("unmarshal note", err)
		}
		createdAt, err := parseTime(item.CreatedAt)
		if err != nil {
			return nil, dbError("decode note", err)
		}
		notes = append(notes, &domain.Note{
			ID:          item.NoteID,
			NodeID:      item.NodeID,
			WorkspaceID: item.WorkspaceID,
			UserID:      item.UserID,
			Text:        item.Text,
			CreatedAt:   createdAt,
		})
	}
	return notes, nil
}

// PutStar inserts a star, Conflict when one already exists. The
// conditional insert is what lets the service layer toggle safely under
// concurrent duplicate requests.
func (r *AnnotationRepository) PutStar(ctx context.Context, s *domain.Star) error {
	av, err := attributevalue.MarshalMap(starItem{
		PK:          nodePK(s.NodeID),
		SK:          starSK(s.UserID),
		GSI1PK:      starsGSI1PK(s.WorkspaceID, s.UserID),
		GSI1SK:      nodeSK(s.NodeID),
		EntityType:  entityStar,
		NodeID:      s.NodeID,
		WorkspaceID: s.WorkspaceID,
		UserID:      s.UserID,
		CreatedAt:   formatTime(s.CreatedAt),
	})
	if err != nil {
		return dbError("marshal star", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return pkgerrors.NewConflictError("star already exists")
		}
		return dbError("put star", err)
	}
	return nil
}

// DeleteStar removes a star, reporting whether one existed
func (r *AnnotationRepository) DeleteStar(ctx context.Context, nodeID, userID string) (bool, error) {
	result, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: nodePK(nodeID)},
			"SK": &types.AttributeValueMemberS{Value: starSK(userID)},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, dbError("delete star", err)
	}
	return len(result.Attributes) > 0, nil
}

// ListStarsByWorkspaceUser returns a user's stars within a workspace
func (r *AnnotationRepository) ListStarsByWorkspaceUser(ctx context.Context, workspaceID, userID string) ([]*domain.Star, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: starsGSI1PK(workspaceID, userID)},
		},
	})
	if err != nil {
		return nil, dbError("list stars", err)
	}

	stars := make([]*domain.Star, 0, len(result.Items))
	for _, raw := range result.Items {
		var item starItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, dbError("unmarshal star", err)
		}
		createdAt, err := parseTime(item.CreatedAt)
		if err != nil {
			return nil, dbError("decode star", err)
		}
		stars = append(stars, &domain.Star{
			NodeID:      item.NodeID,
			WorkspaceID: item.WorkspaceID,
			UserID:      item.UserID,
			CreatedAt:   createdAt,
		})
	}
	return stars, nil
}
