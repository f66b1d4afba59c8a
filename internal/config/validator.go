package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/haven-sec/rehearse/internal/types"
)

// Validator checks configuration values before anything is constructed from
// them.
type Validator interface {
	Validate(cfg *Config) error
}

type validatorImpl struct {
	validate *validator.Validate
}

// NewValidator creates a Validator using struct tag rules plus the
// cross-field checks tags cannot express.
func NewValidator() Validator {
	return &validatorImpl{validate: validator.New()}
}

func (v *validatorImpl) Validate(cfg *Config) error {
	if cfg == nil {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "configuration is nil")
	}

	if err := v.validate.Struct(cfg); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return types.WrapError(types.CONFIG_VALIDATION_FAILED, "validation error", err)
		}
		messages := make([]string, 0, len(validationErrs))
		for _, e := range validationErrs {
			messages = append(messages, formatFieldError(e))
		}
		return types.NewErrorf(types.CONFIG_VALIDATION_FAILED,
			"configuration validation failed:\n  - %s", strings.Join(messages, "\n  - "))
	}

	switch cfg.Storage.Backend {
	case BackendFile:
		if cfg.Storage.File.Dir == "" {
			return types.NewError(types.CONFIG_VALIDATION_FAILED,
				"storage.file.dir is required when storage.backend is 'file'")
		}
	case BackendSQLite:
		if cfg.Storage.SQLite.Path == "" {
			return types.NewError(types.CONFIG_VALIDATION_FAILED,
				"storage.sqlite.path is required when storage.backend is 'sqlite'")
		}
	}

	if cfg.Advisory.Generator == "llm" && cfg.Advisory.Provider == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"advisory.provider is required when advisory.generator is 'llm'")
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Namespace())
	field = strings.TrimPrefix(field, "config.")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s (got: %v)", field, e.Param(), e.Value())
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", field, e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got: %v)", field, e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed %s validation (got: %v)", field, e.Tag(), e.Value())
	}
}
