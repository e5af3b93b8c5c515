// Package dynamodb implements the database repository interfaces on top of
// Amazon DynamoDB.
package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Client defines the interface for DynamoDB operations used by repositories.
// This interface makes repositories easier to test by allowing mock implementations.
type Client interface {
	PutItem(
		ctx context.Context,
		params *dynamodb.PutItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.PutItemOutput, error)
	GetItem(
		ctx context.Context,
		params *dynamodb.GetItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.GetItemOutput, error)
	Query(
		ctx context.Context,
		params *dynamodb.QueryInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.QueryOutput, error)
	DeleteItem(
		ctx context.Context,
		params *dynamodb.DeleteItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(
		ctx context.Context,
		params *dynamodb.BatchWriteItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.BatchWriteItemOutput, error)
}

// ClientAdapter wraps the AWS SDK DynamoDB client to implement Client interface.
// This allows us to use the real AWS client in production while maintaining testability.
type ClientAdapter struct {
	client *dynamodb.Client
}

// NewClientAdapter creates a new adapter wrapping the AWS SDK DynamoDB client.
func NewClientAdapter(client *dynamodb.Client) *ClientAdapter {
	return &ClientAdapter{client: client}
}

// PutItem wraps the AWS SDK PutItem operation.
func (a *ClientAdapter) PutItem(
	ctx context.Context,
	params *dynamodb.PutItemInput,
	optFns ...func(*dynamodb.Options),
) (*dynamodb.PutItemOutput, error) {
	return a.client.PutItem(ctx, params, optFns...)
}

// GetItem wraps the AWS SDK GetItem operation.
func (a *ClientAdapter) GetItem(
	ctx context.Context,
	params *dynamodb.GetItemInput,
	optFns ...func(*dynamodb.Options),
) (*dynamodb.GetItemOutput, error) {
	return a.client.GetItem(ctx, params, optFns...)
}

// Query wraps the AWS SDK Query operation.
func (a *ClientAdapter) Query(
	ctx context.Context,
	params *dynamodb.QueryInput,
	optFns ...func(*dynamodb.Options),
) (*dynamodb.QueryOutput, error) {
	return a.client.Query(ctx, params, optFns...)
}

// DeleteItem wraps the AWS SDK DeleteItem operation.
func (a *ClientAdapter) DeleteItem(
	ctx context.Context,
	params *dynamodb.DeleteItemInput,
	optFns ...func(*dynamodb.Options),
) (*dynamodb.DeleteItemOutput, error) {
	return a.client.DeleteItem(ctx, params, optFns...)
}

// BatchWriteItem wraps the AWS SDK BatchWriteItem operation.
// The SDK transport retries unprocessed items internally; repositories do
// not inspect partial results.
func (a *ClientAdapter) BatchWriteItem(
	ctx context.Context,
	params *dynamodb.BatchWriteItemInput,
	optFns ...func(*dynamodb.Options),
) (*dynamodb.BatchWriteItemOutput, error) {
	return a.client.BatchWriteItem(ctx, params, optFns...)
}
