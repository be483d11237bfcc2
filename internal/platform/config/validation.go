package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their koanf keys, so a failure reads the way
// the setting is written in YAML or derived from an APP_ variable.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name, _, _ := strings.Cut(f.Tag.Get("koanf"), ","); name != "" && name != "-" {
			return name
		}

		return f.Name
	})

	return v
}

// Validate checks every setting and lists all failures at once. The service
// refuses to start on any of them.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return err
	}

	lines := make([]string, len(failures))
	for i, fe := range failures {
		lines[i] = settingKey(fe.Namespace()) + " " + rule(fe)
	}

	return fmt.Errorf("config validation failed:\n  %s", strings.Join(lines, "\n  "))
}

// rule phrases the failed constraint.
func rule(fe validator.FieldError) string {
	p := fe.Param()

	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required when " + p
	case "min":
		return "must be at least " + p
	case "max":
		return "must be at most " + p
	case "gt":
		return "must be greater than " + p
	case "lt":
		return "must be less than " + p
	case "gtefield":
		return "must not be below " + snake(p)
	case "oneof":
		return "must be one of: " + p
	case "url":
		return "must be a valid URL"
	default:
		return "failed validation: " + fe.Tag()
	}
}

// snake turns a Go field name such as InitialInterval into its koanf key.
func snake(field string) string {
	var b strings.Builder

	for i, r := range field {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}

			r = unicode.ToLower(r)
		}

		b.WriteRune(r)
	}

	return b.String()
}

// settingKey turns "Config.data.max_file_size" into "data.max_file_size".
func settingKey(namespace string) string {
	if _, key, ok := strings.Cut(namespace, "."); ok {
		return strings.ToLower(key)
	}

	return strings.ToLower(namespace)
}
