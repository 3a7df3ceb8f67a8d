package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override,
// e.g. TASKD_SERVER_PORT or TASKD_STORAGE_DATABASE_URL.
const EnvPrefix = "TASKD"

// ErrDatabaseURLRequired is returned when the postgres driver is selected
// without a database URL.
var ErrDatabaseURLRequired = errors.New("storage.database_url is required for the postgres driver")

// defaults lists every known key. Viper only consults the environment for
// keys it knows about, so each key needs an entry here.
var defaults = map[string]any{
	"server.port":              8080,
	"server.log_level":         "info",
	"storage.driver":           "memory",
	"storage.database_url":     "",
	"tasks.assignment_horizon": "24h",
	"tasks.registry_file":      "",
	"presentation.timezone":    "Asia/Kolkata",
	"auth.jwt_secret":          "",
	"auth.token_lifetime":      "1h",
}

// Load reads configuration from defaults, an optional YAML file and
// TASKD_* environment variables, in increasing order of precedence.
//
// When configPath is empty, config.yaml in the working directory is used if
// present. An explicit configPath that cannot be read is an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the rules that span several fields.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if cfg.Storage.Driver == "postgres" && cfg.Storage.DatabaseURL == "" {
		return fmt.Errorf("configuration validation failed: %w", ErrDatabaseURLRequired)
	}

	return nil
}
