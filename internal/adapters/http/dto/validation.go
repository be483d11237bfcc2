package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	// ErrValidation wraps struct validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrBinding wraps malformed JSON, query, or path input.
	ErrBinding = errors.New("binding failed")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(paramName)

	// The built-in uuid rule rejects the empty string; required covers that.
	_ = v.RegisterValidation("uuid", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}

		_, err := uuid.Parse(s)

		return err == nil
	})

	_ = v.RegisterValidation("notempty", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// paramName reports a field by the name the client sent: its json body key,
// query parameter, or path parameter.
func paramName(f reflect.StructField) string {
	for _, key := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")

		switch name {
		case "":
			continue
		case "-":
			return ""
		default:
			return name
		}
	}

	return f.Name
}

// Validate checks v against its validate tags.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// BindAndValidate decodes the JSON body into v and validates it.
func BindAndValidate(c *gin.Context, v any) error {
	return bindThenValidate(c.ShouldBindJSON(v), v)
}

// BindQueryAndValidate decodes the query string into v and validates it.
func BindQueryAndValidate(c *gin.Context, v any) error {
	return bindThenValidate(c.ShouldBindQuery(v), v)
}

// BindURIAndValidate decodes the path parameters into v and validates it.
func BindURIAndValidate(c *gin.Context, v any) error {
	return bindThenValidate(c.ShouldBindUri(v), v)
}

func bindThenValidate(bindErr error, v any) error {
	if bindErr != nil {
		return fmt.Errorf("%w: %w", ErrBinding, bindErr)
	}

	return Validate(v)
}

// FieldErrors returns a readable message per failing parameter. It is empty
// unless err came from Validate.
func FieldErrors(err error) map[string]string {
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return nil
	}

	out := make(map[string]string, len(failures))
	for _, fe := range failures {
		out[fe.Field()] = describe(fe)
	}

	return out
}

func describe(fe validator.FieldError) string {
	p := fe.Param()

	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "notempty":
		return "must not be empty"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + p
	case "gt":
		return "must be greater than " + p
	case "gte":
		return "must be greater than or equal to " + p
	case "lt":
		return "must be less than " + p
	case "lte":
		return "must be less than or equal to " + p
	case "min", "max":
		return bound(fe.Tag(), p, fe.Kind())
	default:
		return "failed validation: " + fe.Tag()
	}
}

func bound(tag, p string, kind reflect.Kind) string {
	if kind == reflect.String {
		p += " characters"
	}

	if tag == "min" {
		return "must be at least " + p
	}

	return "must be at most " + p
}
