package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateRequired checks that a string field is not empty.
func ValidateRequired(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidatePort checks that a port number is in range.
func ValidatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{Field: field, Message: "must be between 1 and 65535"}
	}
	return nil
}

// ValidateOneOf checks that value is one of allowed.
func ValidateOneOf(field, value string, allowed ...string) error {
	if !slices.Contains(allowed, value) {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be one of %v", allowed)}
	}
	return nil
}

// Validate validates a ServerConfig.
func (c *ServerConfig) Validate() error {
	return ValidatePort("server.port", c.Port)
}

// Validate validates a DatabaseConfig. A disabled database is always valid.
// In-memory sqlite is rejected since migrations open a separate connection.
func (c *DatabaseConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if err := ValidateOneOf("database.driver", c.Driver, "sqlite3", "postgres"); err != nil {
		return err
	}
	if c.Driver == "sqlite3" && isSQLiteMemoryDSN(c.DSN) {
		return &ValidationError{Field: "database.dsn", Message: "in-memory sqlite is not supported; use a file path"}
	}
	return nil
}

func isSQLiteMemoryDSN(dsn string) bool {
	dsn = strings.TrimPrefix(dsn, "file:")
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Validate validates a RedisConfig. A disabled Redis is always valid.
func (c *RedisConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := ValidateRequired("redis.address", c.Address); err != nil {
		return err
	}
	return ValidateRequired("redis.channel", c.Channel)
}

// Validate validates a LoggingConfig.
func (c *LoggingConfig) Validate() error {
	if err := ValidateOneOf("logging.level", c.Level, "debug", "info", "warn", "warning", "error", "fatal"); err != nil {
		return err
	}
	return ValidateOneOf("logging.format", c.Format, "json", "console")
}
