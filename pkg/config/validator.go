package config

import (
	"fmt"
	"strings"

	"github.com/nodewee/capture-ocr/pkg/types"
	"github.com/nodewee/capture-ocr/pkg/utils"
)

// ConfigValidator checks a Config and reports every problem at once
type ConfigValidator struct{}

// NewConfigValidator creates a config validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// Validate validates the configuration
func (v *ConfigValidator) Validate(c *Config) error {
	var errs []string

	if err := v.validateOCRStrategy(c.OCRStrategy); err != nil {
		errs = append(errs, err.Error())
	}
	if err := v.validateNumericValues(c); err != nil {
		errs = append(errs, err.Error())
	}
	if err := v.validateLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err.Error())
	}
	if strings.TrimSpace(c.Language) == "" && strings.TrimSpace(c.TessLanguage) == "" {
		errs = append(errs, "language must not be empty")
	}

	if len(errs) > 0 {
		return utils.NewValidationError("configuration validation failed",
			fmt.Errorf("validation errors: %s", strings.Join(errs, "; ")))
	}
	return nil
}

func (v *ConfigValidator) validateOCRStrategy(strategy types.OCRStrategy) error {
	switch strategy {
	case types.OCRStrategyCloud, types.OCRStrategyTesseract, types.OCRStrategyAuto:
		return nil
	}
	return fmt.Errorf("invalid OCR engine: %q (want cloud, tesseract or auto)", strategy)
}

func (v *ConfigValidator) validateNumericValues(c *Config) error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.MaxPolls < 1 {
		return fmt.Errorf("max polls must be at least 1")
	}
	if c.TimeoutMinutes < 1 {
		return fmt.Errorf("timeout must be at least 1 minute")
	}
	return nil
}

func (v *ConfigValidator) validateLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("invalid log level: %s", level)
}
