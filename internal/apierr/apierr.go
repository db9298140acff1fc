// Package apierr defines the failure taxonomy surfaced to callers of a
// mutation: network failures, field-level validation failures, and everything
// else.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
)

// Kind classifies a failed remote call.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "NetworkError"
	case KindValidation:
		return "ValidationError"
	default:
		return "UnknownError"
	}
}

// Error is a classified remote failure. Fields is only set for validation
// failures and maps field names to messages.
type Error struct {
	Kind   Kind
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString(" (")
		for i, name := range names {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", name, e.Fields[name])
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same Kind, so errors.Is(err, apierr.ErrNetwork)
// works for any network failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Err == nil && t.Fields == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrNetwork    = &Error{Kind: KindNetwork}
	ErrValidation = &Error{Kind: KindValidation}
	ErrUnknown    = &Error{Kind: KindUnknown}
)

// Network wraps err as a transport failure that produced no response.
func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Err: err}
}

// Validation reports server-side rejection of specific fields.
func Validation(fields map[string]string, err error) *Error {
	dup := make(map[string]string, len(fields))
	for k, v := range fields {
		dup[k] = v
	}
	return &Error{Kind: KindValidation, Fields: dup, Err: err}
}

// Unknown wraps any other failure.
func Unknown(err error) *Error {
	return &Error{Kind: KindUnknown, Err: err}
}

// Classify returns err as an *Error. Already classified errors are returned
// unchanged; timeouts, cancellations and net.Error values become network
// failures; anything else is unknown. A nil err yields nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
		return Network(err)
	}
	return Unknown(err)
}

// FieldErrors returns the field map of a validation failure, or nil.
func FieldErrors(err error) map[string]string {
	var classified *Error
	if errors.As(err, &classified) && classified.Kind == KindValidation {
		return classified.Fields
	}
	return nil
}
