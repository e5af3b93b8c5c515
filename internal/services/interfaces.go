// Package services implements the business logic for identity management,
// override analytics, and segment membership resolution.
package services

import (
	"context"

	"github.com/edgeflag/edgeflag/internal/api"
	"github.com/edgeflag/edgeflag/internal/database"
)

// IdentityService manages identity documents within environments.
type IdentityService interface {
	// Create upserts an identity from a request. An existing identity keeps
	// its uuid and creation date; traits and overrides are replaced.
	Create(ctx context.Context, environmentAPIKey string, req api.CreateIdentityRequest) (*api.IdentityDocument, error)

	// GetByUUID resolves an identity by its uuid. A miss is a NotFound error.
	GetByUUID(ctx context.Context, identityUUID string) (*api.IdentityDocument, error)

	// Delete removes an identity by environment and identifier. Idempotent.
	Delete(ctx context.Context, environmentAPIKey, identifier string) error

	// List fetches one page of an environment's identities.
	List(ctx context.Context, environmentAPIKey string, limit int32, startKey database.StartKey) (*database.Page, error)

	// Search fetches one page of identities matching a search request.
	Search(ctx context.Context, environmentAPIKey string, req api.SearchRequest, limit int32, startKey database.StartKey) (*database.Page, error)

	// Import bulk-writes identity documents, assigning missing uuids and
	// deriving composite keys. Returns the number written.
	Import(ctx context.Context, environmentAPIKey string, docs []api.IdentityDocument) (int, error)
}

// AnalyticsService aggregates feature override usage across an environment.
type AnalyticsService interface {
	// OverrideCount returns the total number of (identity, feature) override
	// pairs in the environment, counting each feature at most once per
	// identity.
	OverrideCount(ctx context.Context, environmentAPIKey string) (int, error)

	// OverrideCountsByFeature returns, per feature id, how many distinct
	// identities override that feature.
	OverrideCountsByFeature(ctx context.Context, environmentAPIKey string) (map[int64]int, error)
}

// SegmentService resolves segment membership for identities.
type SegmentService interface {
	// SegmentIDs resolves membership for the identity with the given uuid.
	// A missing identity or environment yields an empty list, not an error.
	SegmentIDs(ctx context.Context, identityUUID string) ([]int64, error)

	// SegmentIDsForIdentity resolves membership for an already-loaded
	// identity document.
	SegmentIDsForIdentity(ctx context.Context, doc *api.IdentityDocument) ([]int64, error)
}
