package dynamodb

import (
	"context"
	"log/slog"

	"github.com/edgeflag/edgeflag/internal/api"
	apperrors "github.com/edgeflag/edgeflag/internal/errors"
	"github.com/edgeflag/edgeflag/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const attrEnvironmentKey = "api_key"

// EnvironmentRepository implements database.EnvironmentRepository using DynamoDB.
type EnvironmentRepository struct {
	client    Client
	tableName string
	logger    *slog.Logger
}

// NewEnvironmentRepository creates a new DynamoDB-backed environment repository.
func NewEnvironmentRepository(client Client, tableName string, log *slog.Logger) *EnvironmentRepository {
	return &EnvironmentRepository{
		client:    client,
		tableName: tableName,
		logger:    log,
	}
}

// Get fetches an environment document by API key. A miss is a NotFound error.
func (r *EnvironmentRepository) Get(ctx context.Context, apiKey string) (*api.EnvironmentDocument, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	logArgs := []any{
		"operation", "DynamoDB.GetItem",
		"table", r.tableName,
		"apiKey", apiKey,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			attrEnvironmentKey: &types.AttributeValueMemberS{Value: apiKey},
		},
	})
	if err != nil {
		return nil, apperrors.ErrDatabaseError("failed to get environment", err)
	}

	if result.Item == nil {
		return nil, apperrors.ErrNotFound("environment not found", nil)
	}

	var doc api.EnvironmentDocument
	if err := attributevalue.UnmarshalMap(result.Item, &doc); err != nil {
		return nil, apperrors.ErrInternalError("failed to unmarshal environment", err)
	}

	return &doc, nil
}
