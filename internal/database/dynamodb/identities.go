package dynamodb

import (
	"context"
	"log/slog"

	"github.com/edgeflag/edgeflag/internal/api"
	"github.com/edgeflag/edgeflag/internal/constants"
	"github.com/edgeflag/edgeflag/internal/database"
	apperrors "github.com/edgeflag/edgeflag/internal/errors"
	"github.com/edgeflag/edgeflag/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Attribute names on the identities table.
const (
	attrCompositeKey      = "composite_key"
	attrEnvironmentAPIKey = "environment_api_key"
	attrIdentityUUID      = "identity_uuid"
	attrIdentityFeatures  = "identity_features"
)

// IdentityRepository implements database.IdentityRepository using DynamoDB.
type IdentityRepository struct {
	client    Client
	tableName string
	logger    *slog.Logger
}

// NewIdentityRepository creates a new DynamoDB-backed identity repository.
func NewIdentityRepository(client Client, tableName string, log *slog.Logger) *IdentityRepository {
	return &IdentityRepository{
		client:    client,
		tableName: tableName,
		logger:    log,
	}
}

// Get performs a point lookup by composite key. A miss returns nil, nil.
func (r *IdentityRepository) Get(ctx context.Context, compositeKey string) (*api.IdentityDocument, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	logArgs := []any{
		"operation", "DynamoDB.GetItem",
		"table", r.tableName,
		"compositeKey", compositeKey,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			attrCompositeKey: &types.AttributeValueMemberS{Value: compositeKey},
		},
	})
	if err != nil {
		return nil, apperrors.ErrDatabaseError("failed to get identity", err)
	}

	if result.Item == nil {
		reqLogger.Debug("identity not found", "compositeKey", compositeKey)

		return nil, nil
	}

	var doc api.IdentityDocument
	if err := attributevalue.UnmarshalMap(result.Item, &doc); err != nil {
		return nil, apperrors.ErrInternalError("failed to unmarshal identity", err)
	}

	return &doc, nil
}

// GetByUUID resolves an identity through the uuid index. An empty page is a
// NotFound error: callers of this path expect exactly one result.
func (r *IdentityRepository) GetByUUID(ctx context.Context, identityUUID string) (*api.IdentityDocument, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	keyCond := expression.Key(attrIdentityUUID).Equal(expression.Value(identityUUID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to build uuid query", err)
	}

	logArgs := []any{
		"operation", "DynamoDB.Query",
		"table", r.tableName,
		"index", constants.IdentityUUIDIndex,
		"identityUUID", identityUUID,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(constants.IdentityUUIDIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, apperrors.ErrDatabaseError("failed to query identity by uuid", err)
	}

	if len(result.Items) == 0 {
		return nil, apperrors.ErrNotFound("identity not found", nil)
	}

	var doc api.IdentityDocument
	if err := attributevalue.UnmarshalMap(result.Items[0], &doc); err != nil {
		return nil, apperrors.ErrInternalError("failed to unmarshal identity", err)
	}

	return &doc, nil
}

// Put upserts an identity keyed by its composite key.
func (r *IdentityRepository) Put(ctx context.Context, doc *api.IdentityDocument) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	av, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return apperrors.ErrInternalError("failed to marshal identity", err)
	}

	logArgs := []any{
		"operation", "DynamoDB.PutItem",
		"table", r.tableName,
		"compositeKey", doc.CompositeKey,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return apperrors.ErrDatabaseError("failed to put identity", err)
	}

	return nil
}

// Delete removes an identity. Deleting an absent key is not an error.
func (r *IdentityRepository) Delete(ctx context.Context, compositeKey string) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	logArgs := []any{
		"operation", "DynamoDB.DeleteItem",
		"table", r.tableName,
		"compositeKey", compositeKey,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			attrCompositeKey: &types.AttributeValueMemberS{Value: compositeKey},
		},
	})
	if err != nil {
		return apperrors.ErrDatabaseError("failed to delete identity", err)
	}

	return nil
}

// BatchWrite writes identities in 25-item chunks. Identifiers longer than
// the store's 1024-byte sort key limit are skipped and logged rather than
// sent, so one bad record cannot fail a whole batch.
func (r *IdentityRepository) BatchWrite(ctx context.Context, docs []api.IdentityDocument) (int, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	requests := make([]types.WriteRequest, 0, len(docs))
	for i := range docs {
		doc := &docs[i]
		if len(doc.Identifier) > constants.MaxIdentifierBytes {
			reqLogger.Warn("skipping identity: identifier too long",
				"compositeKey", doc.CompositeKey,
				"identifierBytes", len(doc.Identifier),
			)
			continue
		}

		av, err := attributevalue.MarshalMap(doc)
		if err != nil {
			return 0, apperrors.ErrInternalError("failed to marshal identity", err)
		}
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: av},
		})
	}

	if err := r.writeChunked(ctx, requests); err != nil {
		return 0, err
	}

	return len(requests), nil
}

// DeleteAll removes every identity in an environment. The scan is projected
// to composite keys only to keep read cost down.
func (r *IdentityRepository) DeleteAll(ctx context.Context, environmentAPIKey string) error {
	sc := r.Scan(database.ScanOptions{
		EnvironmentAPIKey: environmentAPIKey,
		Projection:        []string{attrCompositeKey},
	})

	var requests []types.WriteRequest
	for sc.Next(ctx) {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{
					attrCompositeKey: &types.AttributeValueMemberS{Value: sc.Item().CompositeKey},
				},
			},
		})
	}
	if err := sc.Err(); err != nil {
		return err
	}

	return r.writeChunked(ctx, requests)
}

// writeChunked issues batch writes in store-sized chunks. Partial failures
// within a chunk are retried by the SDK transport, not here.
func (r *IdentityRepository) writeChunked(ctx context.Context, requests []types.WriteRequest) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	for start := 0; start < len(requests); start += constants.BatchWriteChunkSize {
		end := min(start+constants.BatchWriteChunkSize, len(requests))

		logArgs := []any{
			"operation", "DynamoDB.BatchWriteItem",
			"table", r.tableName,
			"items", end - start,
		}
		logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
		reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

		_, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				r.tableName: requests[start:end],
			},
		})
		if err != nil {
			return apperrors.ErrDatabaseError("failed to batch write identities", err)
		}
	}

	return nil
}

// QueryPage fetches one page of identities for an environment through the
// environment/identifier index.
func (r *IdentityRepository) QueryPage(ctx context.Context, q database.PageQuery) (*database.Page, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	keyCond := expression.Key(attrEnvironmentAPIKey).Equal(expression.Value(q.EnvironmentAPIKey))
	builder := expression.NewBuilder().WithKeyCondition(keyCond)

	if q.OverridesOnly {
		builder = builder.WithFilter(
			expression.Name(attrIdentityFeatures).NotEqual(expression.Value([]any{})),
		)
	}
	if len(q.Projection) > 0 {
		names := make([]expression.NameBuilder, len(q.Projection))
		for i, attr := range q.Projection {
			names[i] = expression.Name(attr)
		}
		builder = builder.WithProjection(expression.NamesList(names[0], names[1:]...))
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to build page query", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(constants.EnvironmentAPIKeyIdentifierIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(q.Limit),
	}
	if q.StartKey != nil {
		input.ExclusiveStartKey = q.StartKey
	}
	if q.ReturnConsumedCapacity {
		// TOTAL is enough; per-index breakdowns are not needed.
		input.ReturnConsumedCapacity = types.ReturnConsumedCapacityTotal
	}

	logArgs := []any{
		"operation", "DynamoDB.Query",
		"table", r.tableName,
		"index", constants.EnvironmentAPIKeyIdentifierIndex,
		"environmentAPIKey", q.EnvironmentAPIKey,
		"limit", q.Limit,
		"overridesOnly", q.OverridesOnly,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, apperrors.ErrDatabaseError("failed to query identities page", err)
	}

	return pageFromQueryOutput(result)
}

// Search runs a one-page secondary-index search: partition equality plus a
// sort-key condition chosen from a closed operator set. It never loops.
func (r *IdentityRepository) Search(
	ctx context.Context,
	environmentAPIKey string,
	req api.SearchRequest,
	limit int32,
	startKey database.StartKey,
) (*database.Page, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	sortKey := expression.Key(req.Attribute)
	var sortCond expression.KeyConditionBuilder
	switch req.Operator {
	case api.SearchOperatorEqual:
		sortCond = sortKey.Equal(expression.Value(req.Term))
	case api.SearchOperatorBeginsWith:
		sortCond = sortKey.BeginsWith(req.Term)
	default:
		return nil, apperrors.ErrBadRequest("unsupported search operator", nil)
	}

	keyCond := expression.Key(attrEnvironmentAPIKey).
		Equal(expression.Value(environmentAPIKey)).
		And(sortCond)

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to build search query", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(req.IndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(limit),
	}
	if startKey != nil {
		input.ExclusiveStartKey = startKey
	}

	logArgs := []any{
		"operation", "DynamoDB.Query",
		"table", r.tableName,
		"index", req.IndexName,
		"environmentAPIKey", environmentAPIKey,
		"attribute", req.Attribute,
		"operator", req.Operator,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, apperrors.ErrDatabaseError("failed to search identities", err)
	}

	return pageFromQueryOutput(result)
}

// pageFromQueryOutput converts a raw query output into a typed page.
func pageFromQueryOutput(out *dynamodb.QueryOutput) (*database.Page, error) {
	items := make([]api.IdentityDocument, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, apperrors.ErrInternalError("failed to unmarshal identities page", err)
	}

	page := &database.Page{
		Items:            items,
		LastEvaluatedKey: out.LastEvaluatedKey,
	}
	if out.ConsumedCapacity != nil && out.ConsumedCapacity.CapacityUnits != nil {
		page.ConsumedCapacity = out.ConsumedCapacity.CapacityUnits
	}

	return page, nil
}
