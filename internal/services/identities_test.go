package services

import (
	"context"
	"testing"

	"github.com/edgeflag/edgeflag/internal/api"
	"github.com/edgeflag/edgeflag/internal/database"
	ddb "github.com/edgeflag/edgeflag/internal/database/dynamodb"
	apperrors "github.com/edgeflag/edgeflag/internal/errors"
	"github.com/edgeflag/edgeflag/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTable = "test-identities-table"

func newTestIdentityService() (IdentityService, database.IdentityRepository, *ddb.MockClient) {
	mockClient := ddb.NewMockClient()
	repo := ddb.NewIdentityRepository(mockClient, testTable, testutil.SilentLogger())
	return NewIdentityService(repo, testutil.SilentLogger()), repo, mockClient
}

func TestIdentityService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("new identity gets uuid and creation date", func(t *testing.T) {
		svc, _, _ := newTestIdentityService()

		doc, err := svc.Create(ctx, "env-key", api.CreateIdentityRequest{
			Identifier: "alice",
			Traits:     []api.Trait{{Key: "plan", Value: "pro"}},
		})

		require.NoError(t, err)
		assert.Equal(t, "env-key_alice", doc.CompositeKey)
		assert.Equal(t, "env-key", doc.EnvironmentAPIKey)
		assert.NotEmpty(t, doc.IdentityUUID)
		assert.NotEmpty(t, doc.CreatedDate)
	})

	t.Run("upsert keeps uuid and creation date", func(t *testing.T) {
		svc, _, _ := newTestIdentityService()

		first, err := svc.Create(ctx, "env-key", api.CreateIdentityRequest{Identifier: "alice"})
		require.NoError(t, err)

		second, err := svc.Create(ctx, "env-key", api.CreateIdentityRequest{
			Identifier: "alice",
			Traits:     []api.Trait{{Key: "plan", Value: "free"}},
		})
		require.NoError(t, err)

		assert.Equal(t, first.IdentityUUID, second.IdentityUUID)
		assert.Equal(t, first.CreatedDate, second.CreatedDate)
		assert.Equal(t, []api.Trait{{Key: "plan", Value: "free"}}, second.IdentityTraits)
	})

	t.Run("missing identifier rejected", func(t *testing.T) {
		svc, _, _ := newTestIdentityService()

		_, err := svc.Create(ctx, "env-key", api.CreateIdentityRequest{})

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.GetErrorCode(err))
	})
}

func TestIdentityService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestIdentityService()

	created, err := svc.Create(ctx, "env-key", api.CreateIdentityRequest{Identifier: "alice"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "env-key", "alice"))

	got, err := repo.Get(ctx, created.CompositeKey)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIdentityService_Search(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestIdentityService()

	_, err := svc.Search(ctx, "env-key", api.SearchRequest{
		Attribute: "identifier",
		Operator:  api.SearchOperator("LIKE"),
		Term:      "a",
	}, 10, nil)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.GetErrorCode(err))
}

func TestIdentityService_Import(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestIdentityService()

	docs := []api.IdentityDocument{
		{Identifier: "alice"},
		{Identifier: "bob", IdentityUUID: "preset-uuid"},
	}

	written, err := svc.Import(ctx, "env-key", docs)

	require.NoError(t, err)
	assert.Equal(t, 2, written)

	alice, err := repo.Get(ctx, "env-key_alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.NotEmpty(t, alice.IdentityUUID)
	assert.NotEmpty(t, alice.CreatedDate)

	bob, err := repo.Get(ctx, "env-key_bob")
	require.NoError(t, err)
	require.NotNil(t, bob)
	assert.Equal(t, "preset-uuid", bob.IdentityUUID)
}
