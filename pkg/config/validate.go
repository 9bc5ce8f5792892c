package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/cluso-contingency/pkg/centrality"
	"github.com/dd0wney/cluso-contingency/pkg/logging"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// validate is a singleton validator instance
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("metric", func(fl validator.FieldLevel) bool {
		_, err := centrality.Lookup(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		_, err := logging.LookupLevel(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks field constraints and cross-field rules, reporting every
// violation.
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, formatFieldError(fe))
			}
		} else {
			errs = append(errs, err)
		}
	}

	if c.Labeling.Strategy == "threshold" && c.Labeling.Value <= 0 {
		errs = append(errs, errors.New("labeling.value: threshold must be positive"))
	}
	if c.Labeling.Strategy == "quantile" && (c.Labeling.Value <= 0 || c.Labeling.Value >= 1) {
		errs = append(errs, errors.New("labeling.value: quantile must lie strictly between 0 and 1"))
	}
	if c.Format == FormatGraph6 && c.Delimiter != "" {
		errs = append(errs, errors.New("delimiter: not applicable to graph6 input"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// formatFieldError converts a validator error to a user-friendly message
// keyed by the config name of the field.
func formatFieldError(fe validator.FieldError) error {
	field := configKey(fe.Namespace())
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s: field is required", field)
	case "min":
		return fmt.Errorf("%s: must have at least %s entries", field, param)
	case "gte":
		return fmt.Errorf("%s: must be at least %s, got %v", field, param, fe.Value())
	case "gt":
		return fmt.Errorf("%s: must be greater than %s, got %v", field, param, fe.Value())
	case "lte":
		return fmt.Errorf("%s: must not exceed %s, got %v", field, param, fe.Value())
	case "oneof":
		return fmt.Errorf("%s: %q must be one of [%s]", field, fe.Value(), param)
	case "metric":
		return fmt.Errorf("%s: unknown metric %q (known: %s)", field, fe.Value(), strings.Join(centrality.Names(), ", "))
	case "loglevel":
		return fmt.Errorf("%s: unknown level %q", field, fe.Value())
	case "hostname_port":
		return fmt.Errorf("%s: %q is not a host:port address", field, fe.Value())
	default:
		return fmt.Errorf("%s: validation failed (%s)", field, fe.Tag())
	}
}

// configKey maps a validator namespace such as "Config.Labeling.Value" or
// "Config.Orders[1]" to the settings key "labeling.value" or "orders[1]".
func configKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snakeCase(p)
	}
	return strings.Join(parts, ".")
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && s[i-1] != '[' {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
