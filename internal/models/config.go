package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Credit   CreditConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// CreditConfig points at an optional credit policy override file.
// When PolicyFile is empty the built-in policy is used.
type CreditConfig struct {
	PolicyFile string
}
