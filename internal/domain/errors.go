package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure at a component boundary.
type Kind string

const (
	KindUnknown       Kind = "unknown"
	KindTransport     Kind = "transport"     // network or upstream API failure
	KindSerialization Kind = "serialization" // value could not be encoded or decoded
	KindIO            Kind = "io"            // filesystem failure
	KindCorrupt       Kind = "corrupt"       // store file exists but is not a JSON record array
)

// Error is the typed failure returned by fetch and store operations.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// NewError wraps err with an operation name and kind.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind of the first *Error in err's chain, KindUnknown if
// there is none, and "" for a nil error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
