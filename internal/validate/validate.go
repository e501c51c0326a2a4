// Package validate wraps go-playground/validator for the form DTOs bound by
// handlers. Field names in messages come from the `form` tag so they match
// what the user saw on the page.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// tagColorPattern matches the #rrggbb values produced by <input type="color">.
var tagColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// tagcolor: a 7-character hex color. Stricter than the built-in hexcolor,
	// which also accepts #rgb and #rrggbbaa.
	if err := v.RegisterValidation("tagcolor", func(fl validator.FieldLevel) bool {
		return tagColorPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("registering tagcolor validation: %v", err))
	}

	// notblank: like required, but whitespace alone does not count.
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(fmt.Sprintf("registering notblank validation: %v", err))
	}

	return v
}

// Struct validates s and returns an error whose message lists each failing
// field in plain words, or nil.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// IsTagColor reports whether s is a #rrggbb color.
func IsTagColor(s string) bool {
	return tagColorPattern.MatchString(s)
}

// describe turns one field failure into a user-facing sentence.
func describe(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "tagcolor":
		return field + " must be a hex color like #6b7280"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
