// Package constants holds project-wide constants shared by the CLI and the
// backend service.
package constants

// ProjectName is used for CLI help text, config directories and user agents.
const ProjectName = "edgeflag"

// Environment represents the execution environment (e.g., CLI, server).
type Environment string

// Environment types for logger configuration
const (
	Development Environment = "development"
	Production  Environment = "production"
	CLI         Environment = "cli"
)

const (
	// IdentitiesPageSize is the default page size for paginated identity
	// scans when the caller does not specify one.
	IdentitiesPageSize = 100

	// MaxIdentifierBytes is the DynamoDB sort key size limit. Identifiers
	// longer than this cannot be stored and are rejected at write time.
	MaxIdentifierBytes = 1024

	// BatchWriteChunkSize is the DynamoDB BatchWriteItem request limit.
	BatchWriteChunkSize = 25

	// RequestIDByteSize is the number of random bytes in generated request IDs.
	RequestIDByteSize = 8
)

// Index names on the identities table.
const (
	IdentityUUIDIndex                = "identity_uuid-index"
	EnvironmentAPIKeyIdentifierIndex = "environment_api_key-identifier-index"
)
