// Package config loads sheetimport settings from the environment.
package config

import (
	"net"
	"strconv"
	"time"

	"github.com/dreamph/sheetimport"
)

// Config holds all settings of the CLI and the upload server.
type Config struct {
	Server  ServerConfig
	Import  ImportConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`

	// MaxUploadBytes caps the multipart request body (default: 8MiB).
	// The importer's own size gate applies to the file itself.
	MaxUploadBytes int64 `env:"SERVER_MAX_UPLOAD_BYTES" default:"8388608"`
}

// ImportConfig holds the defaults applied to every import.
type ImportConfig struct {
	// MaxSizeMiB is the largest accepted file (default: 1). Negative disables the gate.
	MaxSizeMiB float64 `env:"IMPORT_MAX_SIZE_MIB" default:"1"`

	// SizeTolerance multiplies MaxSizeMiB before rejecting (default: 1.1)
	SizeTolerance float64 `env:"IMPORT_SIZE_TOLERANCE" default:"1.1"`

	// ErrorThreshold stops the row loop after this many errors (default: 10).
	// Negative disables it.
	ErrorThreshold int `env:"IMPORT_ERROR_THRESHOLD" default:"10"`

	// Sheet is the worksheet to read; blank means the first one.
	Sheet string `env:"IMPORT_SHEET"`

	HasHeaders bool `env:"IMPORT_HAS_HEADERS" default:"true"`
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

// Options converts the import section to importer options.
func (c ImportConfig) Options() []sheetimport.Option {
	opts := []sheetimport.Option{
		sheetimport.MaxSizeMiB(c.MaxSizeMiB),
		sheetimport.SizeTolerance(c.SizeTolerance),
		sheetimport.ErrorThreshold(c.ErrorThreshold),
	}
	if c.Sheet != "" {
		opts = append(opts, sheetimport.Sheet(c.Sheet))
	}
	if !c.HasHeaders {
		opts = append(opts, sheetimport.NoHeader())
	}
	return opts
}
