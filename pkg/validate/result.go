// Package validate turns raw backend output into tagged results. Nothing in
// this package panics or lets an error escape untagged.
package validate

import (
	"errors"
)

// Class tags how an operation resolved.
type Class string

const (
	ClassOK            Class = "ok"
	ClassConfiguration Class = "configuration_error"
	ClassTransport     Class = "transport_error"
	ClassValidation    Class = "validation_error"
)

// Failure classes in the order fallback tables list them.
var FailureClasses = []Class{ClassConfiguration, ClassTransport, ClassValidation}

var (
	// ErrMissingCredential means no backend credential is configured.
	ErrMissingCredential = errors.New("inference credential not configured")
	// ErrEmptyResponse means the backend answered with nothing usable.
	ErrEmptyResponse = errors.New("empty response")
	// ErrMalformed means the backend output did not match the expected shape.
	ErrMalformed = errors.New("malformed response")
)

// Result is the outcome of one backend interaction.
type Result[T any] struct {
	Value T
	Class Class
	Err   error
}

// OK reports whether the result carries a usable value.
func (r Result[T]) OK() bool { return r.Class == ClassOK }

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v, Class: ClassOK}
}

// Fail builds a failed result tagged with the class err belongs to.
func Fail[T any](err error) Result[T] {
	return Result[T]{Class: Classify(err), Err: err}
}

// Classify maps an error to its failure class. Anything that is not a
// credential or shape problem is treated as transport.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassOK
	case errors.Is(err, ErrMissingCredential):
		return ClassConfiguration
	case errors.Is(err, ErrEmptyResponse), errors.Is(err, ErrMalformed):
		return ClassValidation
	default:
		return ClassTransport
	}
}
