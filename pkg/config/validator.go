package config

import (
	"fmt"
)

// ConfigValidator validates configuration with clear error messages
type ConfigValidator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration
func NewValidator(cfg *Config) *ConfigValidator {
	return &ConfigValidator{cfg: cfg}
}

// ValidateAll performs validation (fail-fast - stops at first error)
func (v *ConfigValidator) ValidateAll() error {
	if err := v.validateCategories(); err != nil {
		return fmt.Errorf("category validation failed: %w", err)
	}

	if err := v.validateProcessing(); err != nil {
		return fmt.Errorf("processing validation failed: %w", err)
	}

	if err := v.validateRender(); err != nil {
		return fmt.Errorf("render validation failed: %w", err)
	}

	if err := v.validateDetector(); err != nil {
		return fmt.Errorf("detector validation failed: %w", err)
	}

	if err := v.validateAudit(); err != nil {
		return fmt.Errorf("audit validation failed: %w", err)
	}

	if err := v.validateServer(); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}

	return nil
}

func (v *ConfigValidator) validateCategories() error {
	if v.cfg.Categories.Len() == 0 {
		return NewValidationError("categories", "", "categories", fmt.Errorf("%w: at least one category required", ErrMissingRequiredField))
	}
	return nil
}

func (v *ConfigValidator) validateProcessing() error {
	p := v.cfg.Processing
	if p == nil {
		return NewValidationError("processing", "", "", ErrMissingRequiredField)
	}
	if p.WorkerCount < 1 {
		return NewValidationError("processing", "", "worker_count", fmt.Errorf("%w: must be at least 1, got %d", ErrInvalidValue, p.WorkerCount))
	}
	return nil
}

func (v *ConfigValidator) validateRender() error {
	r := v.cfg.Render
	if r.FontScale <= 0 {
		return NewValidationError("render", "", "font_scale", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if r.MinFontSize <= 0 {
		return NewValidationError("render", "", "min_font_size", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if r.MaxFontSize < r.MinFontSize {
		return NewValidationError("render", "", "max_font_size", fmt.Errorf("%w: %.1f is below min_font_size %.1f", ErrInvalidValue, r.MaxFontSize, r.MinFontSize))
	}
	if r.BaselineInset < 0 {
		return NewValidationError("render", "", "baseline_inset", fmt.Errorf("%w: must not be negative", ErrInvalidValue))
	}
	return nil
}

func (v *ConfigValidator) validateDetector() error {
	d := v.cfg.Detector
	if d == nil || !d.Enabled {
		return nil
	}
	if d.Addr == "" {
		return NewValidationError("detector", "", "addr", ErrMissingRequiredField)
	}
	if d.Timeout <= 0 {
		return NewValidationError("detector", "", "timeout", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if d.RatePerSecond < 0 {
		return NewValidationError("detector", "", "rate_per_second", fmt.Errorf("%w: must not be negative", ErrInvalidValue))
	}
	return nil
}

func (v *ConfigValidator) validateAudit() error {
	a := v.cfg.Audit
	if a == nil || !a.Enabled {
		return nil
	}
	if a.RetentionDays == 0 {
		return NewValidationError("audit", "", "retention_days", fmt.Errorf("%w: use a negative value to keep runs forever", ErrInvalidValue))
	}
	if a.StaleAfter <= 0 {
		return NewValidationError("audit", "", "stale_after", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	if a.CleanupInterval <= 0 {
		return NewValidationError("audit", "", "cleanup_interval", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	return nil
}

func (v *ConfigValidator) validateServer() error {
	s := v.cfg.Server
	if s == nil {
		return NewValidationError("server", "", "", ErrMissingRequiredField)
	}
	if s.HTTPAddr == "" {
		return NewValidationError("server", "", "http_addr", ErrMissingRequiredField)
	}
	if s.ShutdownTimeout <= 0 {
		return NewValidationError("server", "", "shutdown_timeout", fmt.Errorf("%w: must be positive", ErrInvalidValue))
	}
	return nil
}
