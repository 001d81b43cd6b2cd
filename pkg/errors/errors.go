package errors

import (
	"fmt"
)

// ParseError represents a configuration file parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration and input validation issues. Value
// holds the rejected input when one was supplied, so callers can echo it back
// without parsing Message.
type ValidationError struct {
	Field   string
	Value   any
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError for a missing or
// structurally invalid field.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

// NewInvalidValueError constructs a ValidationError that records the rejected
// value alongside the field.
func NewInvalidValueError(field string, value any, message string, err error) error {
	return &ValidationError{Field: field, Value: value, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Value != nil {
		return fmt.Sprintf("validation error: %s %q: %s", e.Field, fmt.Sprint(e.Value), e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PrerequisiteError reports a missing piece of host scaffolding, such as the
// surface or the accessibility live region, detected at construction time.
type PrerequisiteError struct {
	Component string
	Missing   string
}

// NewPrerequisiteError constructs a PrerequisiteError.
func NewPrerequisiteError(component, missing string) error {
	return &PrerequisiteError{Component: component, Missing: missing}
}

func (e *PrerequisiteError) Error() string {
	if e == nil {
		return ""
	}
	if e.Component != "" {
		return fmt.Sprintf("missing prerequisite for %s: %s", e.Component, e.Missing)
	}
	return fmt.Sprintf("missing prerequisite: %s", e.Missing)
}

// ThemeError indicates a failure while loading or mounting a theme renderer.
type ThemeError struct {
	Theme   string
	Message string
	Err     error
}

// NewThemeError constructs a ThemeError for the given theme id.
func NewThemeError(theme string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ThemeError{Theme: theme, Message: message, Err: err}
}

func (e *ThemeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Theme != "" {
		return fmt.Sprintf("theme error [%s]: %s", e.Theme, e.Message)
	}
	return fmt.Sprintf("theme error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ThemeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
