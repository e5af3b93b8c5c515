// Package api defines the API types and structures used across edgeflag.
package api

import "fmt"

// IdentityDocument is one end-user identity known to an environment, as
// stored in the identities table. The composite key is deterministic from
// the environment key and identifier and never changes after creation.
type IdentityDocument struct {
	CompositeKey      string            `json:"composite_key" dynamodbav:"composite_key"`
	EnvironmentAPIKey string            `json:"environment_api_key" dynamodbav:"environment_api_key"`
	Identifier        string            `json:"identifier" dynamodbav:"identifier"`
	IdentityUUID      string            `json:"identity_uuid" dynamodbav:"identity_uuid"`
	CreatedDate       string            `json:"created_date,omitempty" dynamodbav:"created_date,omitempty"`
	IdentityFeatures  []FeatureOverride `json:"identity_features" dynamodbav:"identity_features"`
	IdentityTraits    []Trait           `json:"identity_traits,omitempty" dynamodbav:"identity_traits,omitempty"`
}

// HasOverrides reports whether the identity carries any feature overrides.
func (d *IdentityDocument) HasOverrides() bool {
	return len(d.IdentityFeatures) > 0
}

// CompositeKey builds the identities table primary key for an identifier
// within an environment.
func CompositeKey(environmentAPIKey, identifier string) string {
	return fmt.Sprintf("%s_%s", environmentAPIKey, identifier)
}

// FeatureOverride is a per-identity feature state that takes precedence over
// the feature's environment-wide default.
type FeatureOverride struct {
	Feature Feature `json:"feature" dynamodbav:"feature"`
	Enabled bool    `json:"enabled" dynamodbav:"enabled"`
	Value   any     `json:"feature_state_value,omitempty" dynamodbav:"feature_state_value,omitempty"`
}

// Feature identifies an overridable feature flag.
type Feature struct {
	ID   int64  `json:"id" dynamodbav:"id"`
	Name string `json:"name,omitempty" dynamodbav:"name,omitempty"`
	Type string `json:"type,omitempty" dynamodbav:"type,omitempty"`
}

// Trait is a key/value attribute attached to an identity, consumed by
// segment evaluation.
type Trait struct {
	Key   string `json:"trait_key" dynamodbav:"trait_key"`
	Value string `json:"trait_value" dynamodbav:"trait_value"`
}

// CreateIdentityRequest is the payload for creating or upserting an identity.
type CreateIdentityRequest struct {
	Identifier string            `json:"identifier" validate:"required"`
	Traits     []Trait           `json:"traits,omitempty"`
	Features   []FeatureOverride `json:"features,omitempty"`
}

// IdentitiesPage is one page of identities plus an opaque cursor to resume
// from. An empty cursor means the listing is complete.
type IdentitiesPage struct {
	Identities []IdentityDocument `json:"identities"`
	Cursor     string             `json:"cursor,omitempty"`
}

// SegmentIDsResponse lists the segments an identity currently belongs to.
type SegmentIDsResponse struct {
	IdentityUUID string  `json:"identity_uuid"`
	SegmentIDs   []int64 `json:"segment_ids"`
}

// OverrideCountResponse reports the total number of (identity, feature)
// override pairs in an environment.
type OverrideCountResponse struct {
	EnvironmentAPIKey string `json:"environment_api_key"`
	Count             int    `json:"count"`
}

// FeatureOverrideCount reports how many distinct identities override one feature.
type FeatureOverrideCount struct {
	FeatureID     int64 `json:"feature_id"`
	IdentityCount int   `json:"identity_count"`
}

// FeatureOverridesResponse lists per-feature override counts for an environment.
type FeatureOverridesResponse struct {
	EnvironmentAPIKey string                 `json:"environment_api_key"`
	Features          []FeatureOverrideCount `json:"features"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the standard error payload returned by all handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
