package config

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sitesentry/sitesentry/internal/common"
)

// ValidateConfig performs struct-tag validation on the GlobalConfig.
func ValidateConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return common.NewValidationError("config", nil, "config cannot be nil")
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if ok := asValidationErrors(err, &validationErrors); ok {
			return common.NewError("config validation failed: %s", formatValidationErrors(validationErrors))
		}
		return common.WrapError(err, "config validation failed")
	}
	return nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if ok {
		*target = ve
	}
	return ok
}

func formatValidationErrors(errs validator.ValidationErrors) string {
	messages := make([]string, 0, len(errs))
	for _, fe := range errs {
		messages = append(messages, fe.Namespace()+" failed on '"+fe.Tag()+"'")
	}
	return strings.Join(messages, "; ")
}
