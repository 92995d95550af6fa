package models

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared struct validator with the custom "slug" tag
// registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// IsSlug reports whether s is a valid internal category name.
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}
