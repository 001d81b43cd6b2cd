package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	countdownerrors "github.com/alexisbeaulieu97/countdown/pkg/errors"
)

// convertValidationError normalizes validator errors into countdown validation errors.
func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		ve := ves[0]
		field := yamlishFieldName(ve)
		if ve.Tag() == "tzid" {
			return countdownerrors.NewInvalidValueError(field, ve.Value(), "unknown time zone", err)
		}
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return countdownerrors.NewValidationError(field, msg, err)
	}

	return countdownerrors.NewValidationError("config", err.Error(), err)
}

// yamlishFieldName drops the root struct from the namespace, leaving the
// yaml key path such as "timezones[1]".
func yamlishFieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}
