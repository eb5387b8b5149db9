// Package validate checks service inputs against their `validate` struct tags
// and reports failures as field-level application errors.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/i18n"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// Struct validates s. It returns nil, a validation *apperr.Error, or the
// validator's own error for programming mistakes such as a non-struct input.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	return FromFieldErrors(fieldErrs)
}

// FromFieldErrors converts validator field errors to a validation error keyed
// by the JSON field name.
func FromFieldErrors(fieldErrs validator.ValidationErrors) *apperr.Error {
	out := apperr.NewValidation()
	for _, fe := range fieldErrs {
		key, args := messageFor(fe)
		out.Add(fe.Field(), key, args...)
	}
	return out
}

func messageFor(fe validator.FieldError) (i18n.Key, []any) {
	switch fe.Tag() {
	case "required":
		return i18n.FieldRequired, nil
	case "min":
		return i18n.FieldTooShort, []any{fe.Param()}
	case "max":
		return i18n.FieldTooLong, []any{fe.Param()}
	case "email":
		return i18n.FieldInvalidEmail, nil
	case "oneof":
		return i18n.FieldOneOf, []any{strings.ReplaceAll(fe.Param(), " ", ", ")}
	default:
		return i18n.FieldInvalid, nil
	}
}
