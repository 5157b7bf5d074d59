/*
Package errkind defines the closed set of failure kinds reported by the ART
and palette decoders, the converter and the file I/O layer.
*/
package errkind

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	// Unknown is never produced by this module; it is what KindOf reports
	// for foreign errors.
	Unknown Kind = iota
	// InvalidArt reports a malformed or truncated ART container.
	InvalidArt
	// InvalidPalette reports a malformed palette or lookup container.
	InvalidPalette
	// ConversionFailure reports a tile that cannot be converted with the
	// given palette and options.
	ConversionFailure
	// IOFailure reports a failure reading or writing a file.
	IOFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidArt:
		return "invalid art"
	case InvalidPalette:
		return "invalid palette"
	case ConversionFailure:
		return "conversion failure"
	case IOFailure:
		return "io failure"
	default:
		return "unknown"
	}
}

// Sentinels for use with errors.Is.
var (
	ErrInvalidArt        = &Error{Kind: InvalidArt}
	ErrInvalidPalette    = &Error{Kind: InvalidPalette}
	ErrConversionFailure = &Error{Kind: ConversionFailure}
	ErrIOFailure         = &Error{Kind: IOFailure}
)

// Error is a failure of a given Kind with a human-readable context string.
type Error struct {
	Kind    Kind
	Context string
	Err     error
}

// New returns an Error of kind k.
func New(k Kind, context string) error {
	return &Error{Kind: k, Context: context}
}

// Newf returns an Error of kind k with a formatted context.
func Newf(k Kind, format string, a ...interface{}) error {
	return &Error{Kind: k, Context: fmt.Sprintf(format, a...)}
}

// Wrap returns an Error of kind k wrapping err. It returns nil if err is nil.
func Wrap(k Kind, context string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Context: context, Err: err}
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Context != "" {
		s += ": " + e.Context
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so the package sentinels work with
// errors.Is regardless of context.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
