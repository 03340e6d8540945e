package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/codeready-toolchain/docmask/pkg/pii"
	"github.com/codeready-toolchain/docmask/pkg/redaction"
)

// DocmaskYAMLConfig represents the complete docmask.yaml file structure
type DocmaskYAMLConfig struct {
	Categories []string          `yaml:"categories"`
	Processing *ProcessingConfig `yaml:"processing"`
	Render     *RenderYAMLConfig `yaml:"render"`
	Detector   *DetectorConfig   `yaml:"detector"`
	Audit      *AuditConfig      `yaml:"audit"`
	Server     *ServerConfig     `yaml:"server"`
	Telemetry  *TelemetryConfig  `yaml:"telemetry"`
}

// RenderYAMLConfig uses pointers so an explicit zero (e.g. baseline_inset: 0)
// is distinguishable from an omitted field.
type RenderYAMLConfig struct {
	FontScale     *float64 `yaml:"font_scale,omitempty"`
	MinFontSize   *float64 `yaml:"min_font_size,omitempty"`
	MaxFontSize   *float64 `yaml:"max_font_size,omitempty"`
	BaselineInset *float64 `yaml:"baseline_inset,omitempty"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load docmask.yaml from configDir (built-in defaults when absent)
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge user values over built-in defaults
//  5. Validate all configuration
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"categories", stats.Categories,
		"workers", stats.Workers,
		"detector_enabled", stats.DetectorEnabled,
		"audit_enabled", stats.AuditEnabled)

	return cfg, nil
}

// load is the internal loader (not exported)
func load(_ context.Context, configDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.configDir = configDir

	if configDir == "" {
		return cfg, nil
	}

	loader := &configLoader{configDir: configDir}
	user, err := loader.loadDocmaskYAML()
	if errors.Is(err, ErrConfigNotFound) {
		slog.Info("No configuration file found, using built-in defaults",
			"file", filepath.Join(configDir, ConfigFile))
		return cfg, nil
	}
	if err != nil {
		return nil, NewLoadError(ConfigFile, err)
	}

	if len(user.Categories) > 0 {
		set, err := pii.ParseCategorySet(user.Categories)
		if err != nil {
			return nil, NewValidationError("categories", "", "categories", fmt.Errorf("%w: %v", ErrInvalidValue, err))
		}
		cfg.Categories = set
	}

	// Merge user-provided sections into defaults (non-zero values override)
	if user.Processing != nil {
		if err := mergo.Merge(cfg.Processing, user.Processing, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge processing config: %w", err)
		}
	}
	if user.Detector != nil {
		if err := mergo.Merge(cfg.Detector, user.Detector, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge detector config: %w", err)
		}
	}
	if user.Server != nil {
		if err := mergo.Merge(cfg.Server, user.Server, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge server config: %w", err)
		}
	}
	if user.Audit != nil {
		if err := mergo.Merge(cfg.Audit, user.Audit, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge audit config: %w", err)
		}
	}
	if user.Telemetry != nil {
		cfg.Telemetry = user.Telemetry
	}
	cfg.Render = resolveRenderConfig(user.Render)

	return cfg, nil
}

// validate performs comprehensive validation on loaded configuration
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand environment variables using {{.VAR}} template syntax
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadDocmaskYAML() (*DocmaskYAMLConfig, error) {
	var config DocmaskYAMLConfig
	if err := l.loadYAML(ConfigFile, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// resolveRenderConfig applies YAML render overrides on top of the defaults.
func resolveRenderConfig(r *RenderYAMLConfig) redaction.RenderConfig {
	cfg := redaction.DefaultRenderConfig()
	if r == nil {
		return cfg
	}
	if r.FontScale != nil {
		cfg.FontScale = *r.FontScale
	}
	if r.MinFontSize != nil {
		cfg.MinFontSize = *r.MinFontSize
	}
	if r.MaxFontSize != nil {
		cfg.MaxFontSize = *r.MaxFontSize
	}
	if r.BaselineInset != nil {
		cfg.BaselineInset = *r.BaselineInset
	}
	return cfg
}
