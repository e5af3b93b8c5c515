// Package database defines repository interfaces for data persistence.
// It provides abstractions over the identity and environment stores so the
// business logic layer does not depend on a concrete backend.
package database

import (
	"context"

	"github.com/edgeflag/edgeflag/internal/api"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// StartKey is an opaque continuation token returned by the store after a
// page. Absence (nil) signals scan completion.
type StartKey = map[string]types.AttributeValue

// PageQuery describes one page request against the identities partition.
type PageQuery struct {
	EnvironmentAPIKey string
	Limit             int32
	StartKey          StartKey
	// OverridesOnly applies a server-side filter restricting results to
	// identities with a non-empty override list.
	OverridesOnly bool
	// Projection restricts the attributes returned. Empty means all.
	Projection []string
	// ReturnConsumedCapacity asks the store to report the read cost of
	// this page.
	ReturnConsumedCapacity bool
}

// Page is one page of identities plus pagination and cost metadata.
type Page struct {
	Items            []api.IdentityDocument
	LastEvaluatedKey StartKey
	// ConsumedCapacity is the read cost the store reported for this page,
	// nil when cost reporting was not requested or not returned.
	ConsumedCapacity *float64
}

// ScanOptions configures a paginated scan over one environment's identities.
type ScanOptions struct {
	EnvironmentAPIKey string
	// PageSize bounds each page; zero selects the default pagination limit.
	PageSize int32
	// Projection restricts returned attributes. Empty means all.
	Projection []string
	// CapacityBudget caps cumulative read capacity across all pages of the
	// scan. Zero or negative means unbounded.
	CapacityBudget float64
	OverridesOnly  bool
}

// IdentityScanner is a pull-based lazy sequence of identity documents.
// Usage follows the bufio.Scanner idiom:
//
//	sc := repo.Scan(opts)
//	for sc.Next(ctx) {
//	    item := sc.Item()
//	    ...
//	}
//	if err := sc.Err(); err != nil { ... }
//
// Pages are fetched on demand; stopping iteration is the only cancellation
// mechanism and issues no further page requests.
type IdentityScanner interface {
	Next(ctx context.Context) bool
	Item() *api.IdentityDocument
	Err() error
}

// IdentityRepository defines typed access to the identities table.
type IdentityRepository interface {
	// Get performs a point lookup by composite key. A miss returns nil, nil.
	Get(ctx context.Context, compositeKey string) (*api.IdentityDocument, error)

	// GetByUUID resolves an identity through the uuid index. A miss is a
	// NotFound error: callers of this path expect exactly one result.
	GetByUUID(ctx context.Context, identityUUID string) (*api.IdentityDocument, error)

	// Put upserts an identity keyed by its composite key.
	Put(ctx context.Context, doc *api.IdentityDocument) error

	// Delete removes an identity. Deleting an absent key is not an error.
	Delete(ctx context.Context, compositeKey string) error

	// BatchWrite writes identities in store-sized chunks, skipping (and
	// logging) any whose identifier exceeds the store's sort key limit.
	// Returns the number of identities actually written.
	BatchWrite(ctx context.Context, docs []api.IdentityDocument) (int, error)

	// DeleteAll removes every identity in an environment via a projected
	// scan plus chunked batch deletes.
	DeleteAll(ctx context.Context, environmentAPIKey string) error

	// QueryPage fetches a single page of identities for an environment.
	QueryPage(ctx context.Context, q PageQuery) (*Page, error)

	// Search runs a one-page secondary-index search. It never loops; the
	// returned page carries the continuation key for the caller to resume.
	Search(ctx context.Context, environmentAPIKey string, req api.SearchRequest, limit int32, startKey StartKey) (*Page, error)

	// Scan returns a lazy paginated scanner over an environment's identities.
	Scan(opts ScanOptions) IdentityScanner
}

// EnvironmentRepository defines typed access to the environments table.
type EnvironmentRepository interface {
	// Get fetches an environment document by API key. A miss is a NotFound
	// error.
	Get(ctx context.Context, apiKey string) (*api.EnvironmentDocument, error)
}
