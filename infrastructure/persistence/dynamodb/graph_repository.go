package dynamodb

import (
	"context"

	"scholarmap-backend/application/ports"
	"scholarmap-backend/domain"
	pkgerrors "scholarmap-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// GraphRepository implements ports.GraphRepository on DynamoDB. Nodes
// and edges share the owning query's partition; sources hang off their
// node's partition with the rank zero-padded into the sort key so a
// plain key scan returns them rank-ascending.
type GraphRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewGraphRepository creates a new GraphRepository
func NewGraphRepository(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) ports.GraphRepository {
	return &GraphRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// nodeItem is the DynamoDB item structure for a graph node
type nodeItem struct {
	PK           string                 `dynamodbav:"PK"`
	SK           string                 `dynamodbav:"SK"`
	GSI1PK       string                 `dynamodbav:"GSI1PK"` // NODE#<id> for direct lookup
	GSI1SK       string                 `dynamodbav:"GSI1SK"`
	EntityType   string                 `dynamodbav:"EntityType"`
	NodeID       string                 `dynamodbav:"NodeID"`
	QueryID      string                 `dynamodbav:"QueryID"`
	WorkspaceID  string                 `dynamodbav:"WorkspaceID"`
	Label        string                 `dynamodbav:"Label"`
	NodeType     string                 `dynamodbav:"NodeType"`
	ParentNodeID string                 `dynamodbav:"ParentNodeID,omitempty"`
	Score        *float64               `dynamodbav:"Score,omitempty"`
	Metadata     map[string]interface{} `dynamodbav:"Metadata,omitempty"`
	CreatedAt    string                 `dynamodbav:"CreatedAt"`
}

// edgeItem is the DynamoDB item structure for a graph edge
type edgeItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	EdgeID     string `dynamodbav:"EdgeID"`
	QueryID    string `dynamodbav:"QueryID"`
	FromNodeID string `dynamodbav:"FromNodeID"`
	ToNodeID   string `dynamodbav:"ToNodeID"`
	Relation   string `dynamodbav:"Relation"`
}

// sourceItem is the DynamoDB item structure for a citation
type sourceItem struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	EntityType string   `dynamodbav:"EntityType"`
	SourceID   string   `dynamodbav:"SourceID"`
	QueryID    string   `dynamodbav:"QueryID"`
	NodeID     string   `dynamodbav:"NodeID"`
	Kind       string   `dynamodbav:"Kind"`
	Title      string   `dynamodbav:"Title"`
	Authors    []string `dynamodbav:"Authors,omitempty"`
	Year       int      `dynamodbav:"Year,omitempty"`
	URL        string   `dynamodbav:"URL,omitempty"`
	DOI        string   `dynamodbav:"DOI,omitempty"`
	Snippet    string   `dynamodbav:"Snippet,omitempty"`
	Rank       int      `dynamodbav:"Rank"`
}

func (item nodeItem) toDomain() (*domain.Node, error) {
	createdAt, err := parseTime(item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Node{
		ID:           item.NodeID,
		QueryID:      item.QueryID,
		WorkspaceID:  item.WorkspaceID,
		Label:        item.Label,
		Type:         item.NodeType,
		ParentNodeID: item.ParentNodeID,
		Score:        item.Score,
		Metadata:     item.Metadata,
		CreatedAt:    createdAt,
	}, nil
}

func (item sourceItem) toDomain() *domain.Source {
	return &domain.Source{
		ID:      item.SourceID,
		QueryID: item.QueryID,
		NodeID:  item.NodeID,
		Kind:    item.Kind,
		Title:   item.Title,
		Authors: item.Authors,
		Year:    item.Year,
		URL:     item.URL,
		DOI:     item.DOI,
		Snippet: item.Snippet,
		Rank:    item.Rank,
	}
}

// CreateNode persists a node
func (r *GraphRepository) CreateNode(ctx context.Context, n *domain.Node) error {
	av, err := attributevalue.MarshalMap(nodeItem{
		PK:           queryPK(n.QueryID),
		SK:           nodeSK(n.ID),
		GSI1PK:       nodePK(n.ID),
		GSI1SK:       "METADATA",
		EntityType:   entityNode,
		NodeID:       n.ID,
		QueryID:      n.QueryID,
		WorkspaceID:  n.WorkspaceID,
		Label:        n.Label,
		NodeType:     n.Type,
		ParentNodeID: n.ParentNodeID,
		Score:        n.Score,
		Metadata:     n.Metadata,
		CreatedAt:    formatTime(n.CreatedAt),
	})
	if err != nil {
		return dbError("marshal node", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return pkgerrors.NewConflictError("node already exists")
		}
		return dbError("create node", err)
	}
	return nil
}

// CreateEdge persists an edge
func (r *GraphRepository) CreateEdge(ctx context.Context, e *domain.Edge) error {
	av, err := attributevalue.MarshalMap(edgeItem{
		PK:         queryPK(e.QueryID),
		SK:         edgeSK(e.ID),
		EntityType: entityEdge,
		EdgeID:     e.ID,
		QueryID:    e.QueryID,
		FromNodeID: e.FromNodeID,
		ToNodeID:   e.ToNodeID,
		Relation:   e.Relation,
	})
	if err != nil {
		return dbError("marshal edge", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return dbError("create edge", err)
	}
	return nil
}

// CreateSource persists a citation under its node
func (r *GraphRepository) CreateSource(ctx context.Context, s *domain.Source) error {
	av, err := attributevalue.MarshalMap(sourceItem{
		PK:         nodePK(s.NodeID),
		SK:         sourceSK(s.Rank, s.ID),
		EntityType: entitySource,
		SourceID:   s.ID,
		QueryID:    s.QueryID,
		NodeID:     s.NodeID,
		Kind:       s.Kind,
		Title:      s.Title,
		Authors:    s.Authors,
		Year:       s.Year,
		URL:        s.URL,
		DOI:        s.DOI,
		Snippet:    s.Snippet,
		Rank:       s.Rank,
	})
	if err != nil {
		return dbError("marshal source", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return dbError("create source", err)
	}
	return nil
}

// GetNodeByID returns a node via GSI1, or nil when absent
func (r *GraphRepository) GetNodeByID(ctx context.Context, nodeID string) (*domain.Node, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: nodePK(nodeID)},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, dbError("query node by id", err)
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var item nodeItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, dbError("unmarshal node", err)
	}
	return item.toDomain()
}

// ListNodesByQuery returns all nodes of a query
func (r *GraphRepository) ListNodesByQuery(ctx context.Context, queryID string) ([]*domain.Node, error) {
	items, err := r.queryPrefix(ctx, queryPK(queryID), "NODE#")
	if err != nil {
		return nil, err
	}

	nodes := make([]*domain.Node, 0, len(items))
	for _, raw := range items {
		var item nodeItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, dbError("unmarshal node", err)
		}
		n, err := item.toDomain()
		if err != nil {
			return nil, dbError("decode node", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// ListEdgesByQuery returns all edges of a query
func (r *GraphRepository) ListEdgesByQuery(ctx context.Context, queryID string) ([]*domain.Edge, error) {
	items, err := r.queryPrefix(ctx, queryPK(queryID), "EDGE#")
	if err != nil {
		return nil, err
	}

	edges := make([]*domain.Edge, 0, len(items))
	for _, raw := range items {
		var item edgeItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, dbError("unmarshal edge", err)
		}
		edges = append(edges, &domain.Edge{
			ID:         item.EdgeID,
			QueryID:    item.QueryID,
			FromNodeID: item.FromNodeID,
			ToNodeID:   item.ToNodeID,
			Relation:   item.Relation,
		})
	}
	return edges, nil
}

// ListSourcesByNode returns a node's sources rank-ascending
func (r *GraphRepository) ListSourcesByNode(ctx context.Context, nodeID string) ([]*domain.Source, error) {
	items, err := r.queryPrefix(ctx, nodePK(nodeID), "SOURCE#")
	if err != nil {
		return nil, err
	}

	sources := make([]*domain.Source, 0, len(items))
	for _, raw := range items {
		var item sourceItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, dbError("unmarshal source", err)
		}
		sources = append(sources, item.toDomain())
	}
	return sources, nil
}

// queryPrefix runs a full key scan of one partition narrowed by a sort
// key prefix, following pagination until exhausted
func (r *GraphRepository) queryPrefix(ctx context.Context, pk, prefix string) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(pk)).
		And(expression.Key("SK").BeginsWith(prefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, dbError("build query expression", err)
	}

	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue

	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, dbError("query partition", err)
		}
		items = append(items, result.Items...)
		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}
	return items, nil
}
