// Package config manages configuration for the edgeflag CLI and service.
// It uses Viper for unified configuration management from files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/edgeflag/edgeflag/internal/constants"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the unified configuration for the CLI and the backend service.
// It supports loading from a YAML file and environment variables; environment
// variables take precedence.
type Config struct {
	Environment constants.Environment `mapstructure:"environment" yaml:"environment"`
	LogLevel    string                `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Port        int                   `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`

	IdentitiesTable   string `mapstructure:"identities_table" yaml:"identities_table" validate:"required"`
	EnvironmentsTable string `mapstructure:"environments_table" yaml:"environments_table" validate:"required"`

	// ScanPageSize bounds each identity query page.
	ScanPageSize int32 `mapstructure:"scan_page_size" yaml:"scan_page_size" validate:"omitempty,min=1"`

	// OverridesCapacityBudget caps the read capacity one override-analytics
	// scan may consume. Zero means unbounded.
	OverridesCapacityBudget float64 `mapstructure:"overrides_capacity_budget" yaml:"overrides_capacity_budget" validate:"omitempty,min=0"`

	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

var validate = validator.New()

// Load loads the configuration using Viper.
// File: ~/.edgeflag/config.yaml (optional). Env vars use the EDGEFLAG_ prefix.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if err := loadConfigFile(v); err != nil {
		// Missing config file is fine; the service runs on env vars alone.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	v.SetEnvPrefix(strings.ToUpper(constants.ProjectName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration against its validation tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", string(constants.Development))
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 8080)
	v.SetDefault("identities_table", "edgeflag_identities")
	v.SetDefault("environments_table", "edgeflag_environments")
	v.SetDefault("scan_page_size", constants.IdentitiesPageSize)
	v.SetDefault("overrides_capacity_budget", 0)
	v.SetDefault("request_timeout", 30*time.Second)
}

func loadConfigFile(v *viper.Viper) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return viper.ConfigFileNotFoundError{}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(home, "."+constants.ProjectName))

	return v.ReadInConfig()
}

// bindEnvVars binds each key explicitly so AutomaticEnv and Unmarshal agree
// on nested keys.
func bindEnvVars(v *viper.Viper) {
	keys := []string{
		"environment",
		"log_level",
		"port",
		"identities_table",
		"environments_table",
		"scan_page_size",
		"overrides_capacity_budget",
		"request_timeout",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}
