package services

import (
	"context"
	"testing"

	"github.com/edgeflag/edgeflag/internal/api"
	ddb "github.com/edgeflag/edgeflag/internal/database/dynamodb"
	apperrors "github.com/edgeflag/edgeflag/internal/errors"
	"github.com/edgeflag/edgeflag/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyticsService(budget float64) (AnalyticsService, *ddb.IdentityRepository, *ddb.MockClient) {
	mockClient := ddb.NewMockClient()
	repo := ddb.NewIdentityRepository(mockClient, testTable, testutil.SilentLogger())
	svc := NewAnalyticsService(repo, testutil.SilentLogger(), budget, 100)
	return svc, repo, mockClient
}

func seedOverrides(t *testing.T, repo *ddb.IdentityRepository) {
	t.Helper()
	ctx := context.Background()

	// alice overrides features 1 and 2; the duplicate entry for 1 must
	// count once.
	alice := testutil.NewIdentityBuilder().
		WithIdentifier("alice").WithUUID("u1").
		WithOverride(1, true).WithOverride(1, false).WithOverride(2, true).
		Build()
	// bob overrides feature 2 only.
	bob := testutil.NewIdentityBuilder().
		WithIdentifier("bob").WithUUID("u2").
		WithOverride(2, false).
		Build()
	// carol has no overrides and must not contribute.
	carol := testutil.NewIdentityBuilder().
		WithIdentifier("carol").WithUUID("u3").
		Build()
	// dave carries an override with no feature id; it lands in the
	// unknown bucket.
	dave := testutil.NewIdentityBuilder().
		WithIdentifier("dave").WithUUID("u4").
		WithOverride(0, true).
		Build()

	for _, doc := range []*api.IdentityDocument{alice, bob, carol, dave} {
		require.NoError(t, repo.Put(ctx, doc))
	}
}

func TestAnalyticsService_OverrideCount(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestAnalyticsService(0)
	seedOverrides(t, repo)

	count, err := svc.OverrideCount(ctx, "env-key")

	require.NoError(t, err)
	// alice: {1,2}, bob: {2}, dave: {0} -> 4 pairs.
	assert.Equal(t, 4, count)
}

func TestAnalyticsService_OverrideCountsByFeature(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestAnalyticsService(0)
	seedOverrides(t, repo)

	counts, err := svc.OverrideCountsByFeature(ctx, "env-key")

	require.NoError(t, err)
	assert.Equal(t, map[int64]int{
		0: 1,
		1: 1,
		2: 2,
	}, counts)
}

func TestAnalyticsService_EmptyEnvironment(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestAnalyticsService(0)

	count, err := svc.OverrideCount(ctx, "env-key")
	require.NoError(t, err)
	assert.Zero(t, count)

	counts, err := svc.OverrideCountsByFeature(ctx, "env-key")
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestAnalyticsService_CapacityBudget(t *testing.T) {
	ctx := context.Background()
	mockClient := ddb.NewMockClient()
	repo := ddb.NewIdentityRepository(mockClient, testTable, testutil.SilentLogger())
	seedOverrides(t, repo)

	// One-item pages at 5 units each against a budget of 1: the first page
	// is attempted, the check before the second page trips.
	mockClient.DefaultPageCapacity = 5
	svc := NewAnalyticsService(repo, testutil.SilentLogger(), 1, 1)

	_, err := svc.OverrideCount(ctx, "env-key")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeCapacityBudgetExceeded, apperrors.GetErrorCode(err))
}
