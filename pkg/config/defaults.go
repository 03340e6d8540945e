package config

import (
	"runtime"
	"time"

	"github.com/codeready-toolchain/docmask/pkg/pii"
	"github.com/codeready-toolchain/docmask/pkg/redaction"
)

// DefaultProcessingConfig returns the built-in processing defaults.
func DefaultProcessingConfig() *ProcessingConfig {
	return &ProcessingConfig{
		WorkerCount: runtime.NumCPU(),
	}
}

// DefaultDetectorConfig returns the built-in remote detector defaults.
// The remote detector is off unless enabled in YAML.
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		Addr:          "localhost:50061",
		Timeout:       5 * time.Second,
		RatePerSecond: 20,
		Burst:         10,
	}
}

// DefaultAuditConfig returns the built-in ledger retention settings.
// The ledger itself is off unless enabled in YAML.
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		RetentionDays:   90,
		StaleAfter:      time.Hour,
		CleanupInterval: time.Hour,
	}
}

// DefaultServerConfig returns the built-in listen addresses.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		HTTPAddr:        ":8080",
		GRPCAddr:        ":50061",
		ShutdownTimeout: 10 * time.Second,
	}
}

// DefaultConfig returns a ready-to-use configuration with every category active.
func DefaultConfig() *Config {
	return &Config{
		Categories: pii.AllCategorySet(),
		Processing: DefaultProcessingConfig(),
		Render:     redaction.DefaultRenderConfig(),
		Detector:   DefaultDetectorConfig(),
		Audit:      DefaultAuditConfig(),
		Server:     DefaultServerConfig(),
		Telemetry:  &TelemetryConfig{},
	}
}
