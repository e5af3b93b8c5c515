// Package testutil provides shared testing utilities and helpers.
package testutil

import (
	"io"
	"log/slog"

	"github.com/edgeflag/edgeflag/internal/api"
)

// IdentityBuilder provides a fluent interface for building test identities.
type IdentityBuilder struct {
	doc *api.IdentityDocument
}

// NewIdentityBuilder creates a new IdentityBuilder with sensible defaults.
func NewIdentityBuilder() *IdentityBuilder {
	return &IdentityBuilder{
		doc: &api.IdentityDocument{
			EnvironmentAPIKey: "env-key",
			Identifier:        "user-1",
			IdentityUUID:      "00000000-0000-0000-0000-000000000001",
		},
	}
}

// WithEnvironment sets the environment API key.
func (b *IdentityBuilder) WithEnvironment(apiKey string) *IdentityBuilder {
	b.doc.EnvironmentAPIKey = apiKey
	return b
}

// WithIdentifier sets the identifier.
func (b *IdentityBuilder) WithIdentifier(identifier string) *IdentityBuilder {
	b.doc.Identifier = identifier
	return b
}

// WithUUID sets the identity uuid.
func (b *IdentityBuilder) WithUUID(uuid string) *IdentityBuilder {
	b.doc.IdentityUUID = uuid
	return b
}

// WithOverride appends a feature override by feature id.
func (b *IdentityBuilder) WithOverride(featureID int64, enabled bool) *IdentityBuilder {
	b.doc.IdentityFeatures = append(b.doc.IdentityFeatures, api.FeatureOverride{
		Feature: api.Feature{ID: featureID},
		Enabled: enabled,
	})
	return b
}

// WithTrait appends a trait.
func (b *IdentityBuilder) WithTrait(key, value string) *IdentityBuilder {
	b.doc.IdentityTraits = append(b.doc.IdentityTraits, api.Trait{Key: key, Value: value})
	return b
}

// Build finalizes the identity, deriving its composite key.
func (b *IdentityBuilder) Build() *api.IdentityDocument {
	doc := *b.doc
	doc.CompositeKey = api.CompositeKey(doc.EnvironmentAPIKey, doc.Identifier)
	return &doc
}

// SilentLogger returns a logger that discards all output, for use in tests.
func SilentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
