// Package errors defines the failure categories of a corpus run and a way to tag
// concrete errors with them so callers can branch on errors.Is.
package errors

import (
	"errors"
	"fmt"
	reflectlite "reflect"
)

var (
	// ErrMalformedRecord is reported when a record is not valid JSON. The record is skipped.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrMissingField is reported when a required field is absent or has the wrong type.
	// The record is dropped.
	ErrMissingField = errors.New("missing required field")

	// ErrIO is reported when a file cannot be opened, read, written or decompressed.
	ErrIO = errors.New("i/o failure")

	// ErrConfiguration is reported when the options given for a command are incomplete
	// or inconsistent.
	ErrConfiguration = errors.New("invalid configuration")
)

// Malformed returns an error tagged with ErrMalformedRecord.
func Malformed(format string, args ...any) error {
	return With(fmt.Errorf(format, args...), ErrMalformedRecord)
}

// MissingField returns an error tagged with ErrMissingField for the named field.
func MissingField(field string) error {
	return With(fmt.Errorf("field %q absent or of unexpected type", field), ErrMissingField)
}

// IO wraps err with the operation and path that failed and tags it with ErrIO.
func IO(op, path string, err error) error {
	return With(fmt.Errorf("%s %s: %w", op, path, err), ErrIO)
}

// Configuration returns an error tagged with ErrConfiguration.
func Configuration(format string, args ...any) error {
	return With(fmt.Errorf(format, args...), ErrConfiguration)
}

// Reason returns a short label for the category of err, used for skip counters.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedRecord):
		return "malformed"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "unknown"
	}
}

// With returns an error that represents top wrapped on top of the base error.
func With(base, top error) error {
	if base == nil && top == nil {
		return nil
	}
	if top == nil {
		return base
	}
	if base == nil {
		return top
	}
	return union{error: base, top: top}
}

type union struct {
	error
	top error
}

func (u union) Is(target error) bool {
	// Same as errors.Is without the iterative unwrapping, which Unwrap below handles.
	if target == nil {
		return false
	}

	isComparable := reflectlite.TypeOf(target).Comparable()
	if isComparable && u.top == target {
		return true
	}
	if x, ok := u.top.(interface{ Is(error) bool }); ok && x.Is(target) {
		return true
	}
	return false
}

func (u union) As(target any) bool {
	if target == nil {
		panic("errors: target cannot be nil")
	}
	val := reflectlite.ValueOf(target)
	typ := val.Type()
	if typ.Kind() != reflectlite.Ptr || val.IsNil() {
		panic("errors: target must be a non-nil pointer")
	}
	targetType := typ.Elem()
	if targetType.Kind() != reflectlite.Interface && !targetType.Implements(errorType) {
		panic("errors: *target must be interface or implement error")
	}
	if reflectlite.TypeOf(u.top).AssignableTo(targetType) {
		val.Elem().Set(reflectlite.ValueOf(u.top))
		return true
	}
	if x, ok := u.top.(interface{ As(any) bool }); ok && x.As(target) {
		return true
	}
	return false
}

var errorType = reflectlite.TypeOf((*error)(nil)).Elem()

func (u union) Unwrap() error {
	if err := errors.Unwrap(u.top); err != nil {
		return union{error: u.error, top: err}
	}
	// top is exhausted, fall back to the base error.
	return u.error
}
