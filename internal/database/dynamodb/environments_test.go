package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/edgeflag/edgeflag/internal/api"
	apperrors "github.com/edgeflag/edgeflag/internal/errors"
	"github.com/edgeflag/edgeflag/internal/testutil"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEnvironmentsTable = "test-environments-table"

func TestEnvironmentRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stored environment", func(t *testing.T) {
		mockClient := NewMockClient()
		repo := NewEnvironmentRepository(mockClient, testEnvironmentsTable, testutil.SilentLogger())

		doc := api.EnvironmentDocument{
			APIKey: "env-key",
			Name:   "Production",
			Project: api.ProjectDocument{
				ID:   7,
				Name: "checkout",
				Segments: []api.Segment{
					{ID: 1, Name: "beta-users"},
				},
			},
		}
		item, err := attributevalue.MarshalMap(doc)
		require.NoError(t, err)
		mockClient.storeItem(testEnvironmentsTable, item)

		got, err := repo.Get(ctx, "env-key")

		require.NoError(t, err)
		assert.Equal(t, &doc, got)
	})

	t.Run("miss is not found", func(t *testing.T) {
		mockClient := NewMockClient()
		repo := NewEnvironmentRepository(mockClient, testEnvironmentsTable, testutil.SilentLogger())

		_, err := repo.Get(ctx, "unknown-key")

		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("transport error propagates", func(t *testing.T) {
		mockClient := NewMockClient()
		mockClient.GetItemError = errors.New("throttled")
		repo := NewEnvironmentRepository(mockClient, testEnvironmentsTable, testutil.SilentLogger())

		_, err := repo.Get(ctx, "env-key")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeDatabaseError, apperrors.GetErrorCode(err))
	})
}
