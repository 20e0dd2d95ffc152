package admin

import (
	"errors"
	"fmt"
)

type (
	// ValidationError is returned when an argument is malformed. It is
	// always detected before any remote call is issued.
	ValidationError struct {
		Field  string
		Reason string
	}

	// OutOfRangeError is returned when a value is inconsistent with a
	// related entity, e.g. an address outside the range of its scope
	OutOfRangeError struct {
		Field  string
		Value  interface{}
		Reason string
	}

	// UnsupportedError is returned when the server version lacks a
	// capability
	UnsupportedError struct {
		Feature string
		Version Version
	}
)

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %v out of range: %s", e.Field, e.Value, e.Reason)
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("DHCP server v%s does not support %s", e.Version, e.Feature)
}

// IsValidation returns true if err is a *ValidationError
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsOutOfRange returns true if err is an *OutOfRangeError
func IsOutOfRange(err error) bool {
	var e *OutOfRangeError
	return errors.As(err, &e)
}

// IsUnsupported returns true if err is an *UnsupportedError
func IsUnsupported(err error) bool {
	var e *UnsupportedError
	return errors.As(err, &e)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func outOfRange(field string, value interface{}, reason string) error {
	return &OutOfRangeError{Field: field, Value: value, Reason: reason}
}
