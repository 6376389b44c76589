// Package fault classifies workflow failures. Every failure is terminal for
// the run that produced it; the kind only tells operators (and metrics) which
// step gave up.
package fault

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the class of a workflow failure.
type Kind string

const (
	Unknown       Kind = "unknown"
	Configuration Kind = "configuration"
	IdentityRead  Kind = "identity"
	Signature     Kind = "signature"
	Transport     Kind = "transport"
	Parse         Kind = "parse"
	Schema        Kind = "schema"
	Apply         Kind = "apply"
	Persistence   Kind = "persistence"
)

func (k Kind) String() string {
	return string(k)
}

// Error carries a Kind alongside the underlying error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

// Cause lets errors.Cause walk through to the underlying error.
func (e *Error) Cause() error {
	return e.Err
}

// Unwrap supports the standard library errors package.
func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a fault of kind with a plain message.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Err: errors.New(message)}
}

// Errorf returns a fault of kind with a formatted message.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: errors.Errorf(format, args...)}
}

// Wrap annotates err with message and tags it with kind. A nil err returns
// nil.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: errors.Wrap(err, message)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: errors.Wrapf(err, format, args...)}
}

// KindOf reports the kind of the outermost fault in err's chain, looking
// through pkg/errors annotations. Errors that were never classified are
// Unknown.
func KindOf(err error) Kind {
	for err != nil {
		if f, ok := err.(*Error); ok {
			return f.Kind
		}
		switch e := err.(type) {
		case interface{ Unwrap() error }:
			err = e.Unwrap()
		case interface{ Cause() error }:
			err = e.Cause()
		default:
			return Unknown
		}
	}
	return Unknown
}

// Is reports whether err is a fault of kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
