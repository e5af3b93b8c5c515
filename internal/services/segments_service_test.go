package services

import (
	"context"
	"errors"
	"testing"

	"github.com/edgeflag/edgeflag/internal/api"
	ddb "github.com/edgeflag/edgeflag/internal/database/dynamodb"
	apperrors "github.com/edgeflag/edgeflag/internal/errors"
	"github.com/edgeflag/edgeflag/internal/testutil"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEnvironmentsTable = "test-environments-table"

func newTestSegmentService(t *testing.T) (SegmentService, *ddb.IdentityRepository, *ddb.MockClient) {
	t.Helper()
	mockClient := ddb.NewMockClient()
	identities := ddb.NewIdentityRepository(mockClient, testTable, testutil.SilentLogger())
	environments := ddb.NewEnvironmentRepository(mockClient, testEnvironmentsTable, testutil.SilentLogger())
	svc := NewSegmentService(identities, environments, testutil.SilentLogger())
	return svc, identities, mockClient
}

func storeEnvironment(t *testing.T, mockClient *ddb.MockClient, doc api.EnvironmentDocument) {
	t.Helper()
	item, err := attributevalue.MarshalMap(doc)
	require.NoError(t, err)
	if mockClient.Tables[testEnvironmentsTable] == nil {
		mockClient.Tables[testEnvironmentsTable] = make(map[string]map[string]types.AttributeValue)
	}
	mockClient.Tables[testEnvironmentsTable][doc.APIKey] = item
}

func proSegmentEnvironment() api.EnvironmentDocument {
	return api.EnvironmentDocument{
		APIKey: "env-key",
		Project: api.ProjectDocument{
			ID: 1,
			Segments: []api.Segment{
				{
					ID: 10,
					Rules: []api.SegmentRule{
						{Type: api.RuleTypeAll, Conditions: []api.SegmentCondition{
							{Operator: api.OperatorEqual, Property: "plan", Value: "pro"},
						}},
					},
				},
				{
					ID: 20,
					Rules: []api.SegmentRule{
						{Type: api.RuleTypeAll, Conditions: []api.SegmentCondition{
							{Operator: api.OperatorEqual, Property: "plan", Value: "free"},
						}},
					},
				},
			},
		},
	}
}

func TestSegmentService_SegmentIDs(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves matching segments", func(t *testing.T) {
		svc, identities, mockClient := newTestSegmentService(t)
		storeEnvironment(t, mockClient, proSegmentEnvironment())

		doc := testutil.NewIdentityBuilder().
			WithIdentifier("alice").WithUUID("uuid-alice").
			WithTrait("plan", "pro").
			Build()
		require.NoError(t, identities.Put(ctx, doc))

		ids, err := svc.SegmentIDs(ctx, "uuid-alice")

		require.NoError(t, err)
		assert.Equal(t, []int64{10}, ids)
	})

	t.Run("unknown identity fails soft", func(t *testing.T) {
		svc, _, _ := newTestSegmentService(t)

		ids, err := svc.SegmentIDs(ctx, "uuid-missing")

		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("unknown environment fails soft", func(t *testing.T) {
		svc, identities, _ := newTestSegmentService(t)

		doc := testutil.NewIdentityBuilder().
			WithIdentifier("alice").WithUUID("uuid-alice").
			Build()
		require.NoError(t, identities.Put(ctx, doc))

		ids, err := svc.SegmentIDs(ctx, "uuid-alice")

		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("transport errors are not swallowed", func(t *testing.T) {
		svc, _, mockClient := newTestSegmentService(t)
		mockClient.QueryError = errors.New("throttled")

		_, err := svc.SegmentIDs(ctx, "uuid-alice")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeDatabaseError, apperrors.GetErrorCode(err))
	})
}
