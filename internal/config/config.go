package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server       ServerConfig       `mapstructure:"server" validate:"required"`
	Storage      StorageConfig      `mapstructure:"storage" validate:"required"`
	Tasks        TasksConfig        `mapstructure:"tasks" validate:"required"`
	Presentation PresentationConfig `mapstructure:"presentation" validate:"required"`
	Auth         AuthConfig         `mapstructure:"auth"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StorageConfig selects the task store backend.
type StorageConfig struct {
	Driver      string `mapstructure:"driver" validate:"required,oneof=memory postgres"`
	DatabaseURL string `mapstructure:"database_url" validate:"omitempty,url"`
}

// TasksConfig tunes the lifecycle engine.
type TasksConfig struct {
	// AssignmentHorizon is added to the current time to set the deadline of
	// tasks created by assignment.
	AssignmentHorizon time.Duration `mapstructure:"assignment_horizon" validate:"gt=0"`

	// RegistryFile replaces the built-in task-type registry when set.
	RegistryFile string `mapstructure:"registry_file"`
}

// PresentationConfig controls how timestamps are rendered in responses.
type PresentationConfig struct {
	Timezone string `mapstructure:"timezone" validate:"required,timezone"`
}

// AuthConfig contains bearer token settings. Authentication is disabled
// while JWTSecret is empty.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime" validate:"gt=0"`
}

// AuthEnabled reports whether requests must carry a bearer token.
func (c AuthConfig) AuthEnabled() bool {
	return c.JWTSecret != ""
}
