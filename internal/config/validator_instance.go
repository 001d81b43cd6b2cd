package config

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/alexisbeaulieu97/countdown/internal/target"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	themeIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
)

// validatorInstance configures and returns the shared validator instance used across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = v.RegisterValidation("tzid", func(fl validator.FieldLevel) bool {
			_, err := target.LoadTimezone(fl.Field().String())
			return err == nil
		})

		_ = v.RegisterValidation("theme_id", func(fl validator.FieldLevel) bool {
			return themeIDPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("countdown_mode", func(fl validator.FieldLevel) bool {
			return target.Mode(fl.Field().String()).Valid()
		})

		validateInst = v
	})

	return validateInst
}

// GetValidator returns a configured validator instance for use outside the config package.
func GetValidator() *validator.Validate {
	return validatorInstance()
}
