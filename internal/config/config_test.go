package config

import (
	"testing"
	"time"

	"github.com/edgeflag/edgeflag/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Point HOME somewhere empty so a developer's real config file
	// cannot leak into the test.
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, constants.Development, cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "edgeflag_identities", cfg.IdentitiesTable)
	assert.Equal(t, "edgeflag_environments", cfg.EnvironmentsTable)
	assert.Equal(t, int32(constants.IdentitiesPageSize), cfg.ScanPageSize)
	assert.Zero(t, cfg.OverridesCapacityBudget)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("EDGEFLAG_IDENTITIES_TABLE", "identities-prod")
	t.Setenv("EDGEFLAG_LOG_LEVEL", "debug")
	t.Setenv("EDGEFLAG_PORT", "9090")
	t.Setenv("EDGEFLAG_OVERRIDES_CAPACITY_BUDGET", "12.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "identities-prod", cfg.IdentitiesTable)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Port)
	assert.InDelta(t, 12.5, cfg.OverridesCapacityBudget, 0)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("EDGEFLAG_LOG_LEVEL", "loud")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		LogLevel:          "info",
		Port:              8080,
		IdentitiesTable:   "identities",
		EnvironmentsTable: "environments",
	}
	require.NoError(t, cfg.Validate())

	cfg.IdentitiesTable = ""
	require.Error(t, cfg.Validate())
}
