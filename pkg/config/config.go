package config

import (
	"time"

	"github.com/codeready-toolchain/docmask/pkg/pii"
	"github.com/codeready-toolchain/docmask/pkg/redaction"
)

// ConfigFile is the name of the YAML file read from the config directory.
const ConfigFile = "docmask.yaml"

// Config is the umbrella configuration object returned by Initialize()
// and used throughout the application.
type Config struct {
	configDir string // Configuration directory path (for reference)

	// Active PII categories; never empty after loading
	Categories pii.CategorySet

	Processing *ProcessingConfig
	Render     redaction.RenderConfig
	Detector   *DetectorConfig
	Audit      *AuditConfig
	Server     *ServerConfig
	Telemetry  *TelemetryConfig
}

// ProcessingConfig controls document processing.
type ProcessingConfig struct {
	// WorkerCount bounds how many pages are processed concurrently.
	WorkerCount int `yaml:"worker_count"`

	// Spans enables line-level span scanning for extracted PDFs in
	// addition to word tokens.
	Spans bool `yaml:"spans"`
}

// DetectorConfig configures the optional remote detector.
type DetectorConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Addr          string        `yaml:"addr"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
}

// AuditConfig toggles the run ledger. Database settings come from DB_* env vars.
type AuditConfig struct {
	Enabled bool `yaml:"enabled"`

	// RetentionDays is how long finished runs are kept. A negative value
	// keeps them forever.
	RetentionDays int `yaml:"retention_days"`

	// StaleAfter marks in-progress runs older than this as failed.
	StaleAfter time.Duration `yaml:"stale_after"`

	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// ServerConfig holds listen addresses for the serve command.
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	GRPCAddr        string        `yaml:"grpc_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig toggles OpenTelemetry stdout exporters.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Initialize is defined in loader.go

// Stats contains statistics about loaded configuration
type Stats struct {
	Categories      int
	Workers         int
	DetectorEnabled bool
	AuditEnabled    bool
}

// Stats returns configuration statistics for logging
func (c *Config) Stats() Stats {
	s := Stats{Categories: c.Categories.Len()}
	if c.Processing != nil {
		s.Workers = c.Processing.WorkerCount
	}
	if c.Detector != nil {
		s.DetectorEnabled = c.Detector.Enabled
	}
	if c.Audit != nil {
		s.AuditEnabled = c.Audit.Enabled
	}
	return s
}

// ConfigDir returns the configuration directory path
func (c *Config) ConfigDir() string {
	return c.configDir
}
