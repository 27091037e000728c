package apiutil

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/codr1/plantfloor/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared request validator. It reports JSON field names
// and knows the slug, role, pagekind and csscolor tags.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return models.IsSlug(fl.Field().String())
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return models.IsValidRole(fl.Field().String())
		})
		_ = v.RegisterValidation("pagekind", func(fl validator.FieldLevel) bool {
			return models.IsValidPageKind(fl.Field().String())
		})
		_ = v.RegisterValidation("csscolor", func(fl validator.FieldLevel) bool {
			return models.IsCSSColor(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// ValidateStruct runs the shared validator and converts the first failure into
// a FieldError.
func ValidateStruct(value any) error {
	err := Validator().Struct(value)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return err
	}
	first := validationErrs[0]
	return FieldError{Field: first.Field(), Reason: describeTag(first)}
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "slug":
		return "must contain only lowercase letters, numbers, and hyphens"
	case "role":
		return "must be admin or editor"
	case "pagekind":
		return "must be page, blog, or gallery"
	case "csscolor":
		return "must be a CSS color"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param()
	case "gte":
		return "must be " + fe.Param() + " or greater"
	case "lte":
		return "must be " + fe.Param() + " or less"
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}
