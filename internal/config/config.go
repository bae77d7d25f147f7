// Package config provides centralized configuration management for the server.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Table    TableConfig
	Export   ExportConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 2m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. When empty, datasets are
	// served from their built-in seed rows.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// LoadTimeout bounds a single dataset query (default: 30s)
	LoadTimeout time.Duration `env:"DB_LOAD_TIMEOUT" default:"30s"`
}

// TableConfig holds interactive table settings.
type TableConfig struct {
	// PageSize is the default number of rows per page (default: 10)
	PageSize int `env:"TABLE_PAGE_SIZE" default:"10"`

	// MaxPageSize caps the page_size query parameter (default: 500)
	MaxPageSize int `env:"TABLE_MAX_PAGE_SIZE" default:"500"`
}

// ExportConfig holds export defaults. Requests may override the per-file
// options but not the format allow-list or the timeout.
type ExportConfig struct {
	// Formats is the comma-separated format allow-list (default: csv,xlsx,pdf)
	Formats []string `env:"EXPORT_FORMATS" default:"csv,xlsx,pdf"`

	// Orientation of PDF pages: landscape or portrait (default: landscape)
	Orientation string `env:"EXPORT_PDF_ORIENTATION" default:"landscape"`

	// FontSize of PDF body text in points (default: 8)
	FontSize float64 `env:"EXPORT_PDF_FONT_SIZE" default:"8"`

	// SheetName of spreadsheet exports (default: Data)
	SheetName string `env:"EXPORT_SHEET_NAME" default:"Data"`

	// IncludeTimestamp prints the generation time under PDF titles (default: true)
	IncludeTimestamp bool `env:"EXPORT_INCLUDE_TIMESTAMP" default:"true"`

	// TruncateCells shortens overflowing PDF cells instead of wrapping (default: false)
	TruncateCells bool `env:"EXPORT_TRUNCATE_CELLS" default:"false"`

	// Timeout bounds a single export (default: 2m)
	Timeout time.Duration `env:"EXPORT_TIMEOUT" default:"2m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
